// Package templates finds page templates in a source directory and maps each one to
// the file it renders to and the script chunk it includes.
package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RenderedExt is the extension of every rendered page.
	RenderedExt = ".html"
	// EJSExt is the only templating suffix that gets rewritten.
	EJSExt = ".ejs"
)

var acceptedExts = []string{RenderedExt, EJSExt}

// Mapping pairs a template file with the page it is rendered to.
type Mapping struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

// Chunk returns the name of the script chunk injected into the page, which is the
// input file name without its extension.
func (m Mapping) Chunk() string {
	return strings.TrimSuffix(m.Input, filepath.Ext(m.Input))
}

// Discover lists the immediate entries of dir and returns a mapping for every file
// with an accepted template extension, in directory listing order.
func Discover(dir string) ([]Mapping, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates in %s: %w", dir, err)
	}

	mappings := []Mapping{}
	for _, entry := range entries {
		if entry.IsDir() || !Accepted(entry.Name()) {
			continue
		}
		mappings = append(mappings, Mapping{
			Input:  entry.Name(),
			Output: OutputName(entry.Name()),
		})
	}

	return mappings, nil
}

// Accepted reports whether name has a template extension, ignoring case.
func Accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range acceptedExts {
		if ext == accepted {
			return true
		}
	}
	return false
}

// OutputName rewrites a trailing ".ejs" to ".html". Any other name is returned as is.
func OutputName(name string) string {
	if base, ok := strings.CutSuffix(name, EJSExt); ok {
		return base + RenderedExt
	}
	return name
}
