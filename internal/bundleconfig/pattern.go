package bundleconfig

import (
	"fmt"
	"regexp"
)

// Pattern is a regular expression that marshals as its source text
type Pattern struct {
	re *regexp.Regexp
}

// MustPattern compiles expr and panics if it is invalid
func MustPattern(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(expr)}
}

// MatchString reports whether name matches. The zero Pattern matches nothing.
func (p Pattern) MatchString(name string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(name)
}

// IsZero reports whether no expression is set
func (p Pattern) IsZero() bool {
	return p.re == nil
}

func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pattern) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		p.re = nil
		return nil
	}
	re, err := regexp.Compile(string(text))
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", text, err)
	}
	p.re = re
	return nil
}
