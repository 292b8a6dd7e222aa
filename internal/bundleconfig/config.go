// Package bundleconfig assembles the declarative build configuration for a site: entry
// points, output naming, per-extension processing rules, page generation directives,
// static copies and minifiers. The configuration is built once and then only read.
package bundleconfig

import "errors"

// ErrConfiguration indicates the configuration could not be resolved
var ErrConfiguration = errors.New("configuration resolution failed")

// RuleKind selects how files matched by a rule are processed
type RuleKind string

const (
	// RuleScript transpiles and bundles scripts
	RuleScript RuleKind = "script"
	// RuleStylesheet compiles stylesheets and extracts them into their own file
	RuleStylesheet RuleKind = "stylesheet"
	// RuleAsset emits the file under a hashed name, or inlines it below the limit
	RuleAsset RuleKind = "asset"
)

type Config struct {
	Mode string `json:"mode" yaml:"mode"`
	// Context is the absolute source directory
	Context    string            `json:"context" yaml:"context"`
	Entries    map[string]string `json:"entries" yaml:"entries"`
	Output     Output            `json:"output" yaml:"output"`
	Resolve    Resolve           `json:"resolve" yaml:"resolve"`
	Rules      []Rule            `json:"rules" yaml:"rules"`
	Pages      []Page            `json:"pages" yaml:"pages"`
	Copy       []CopyPattern     `json:"copy" yaml:"copy"`
	Minimizers []Minimizer       `json:"minimizers" yaml:"minimizers"`
}

type Output struct {
	Path string `json:"path" yaml:"path"`
	// Filename template for script bundles, e.g. "js/[contenthash].js"
	Filename string `json:"filename" yaml:"filename"`
	// CSSFilename template for extracted stylesheets
	CSSFilename string `json:"cssFilename" yaml:"cssFilename"`
	PublicPath  string `json:"publicPath" yaml:"publicPath"`
	// Clean empties Path before writing
	Clean bool `json:"clean" yaml:"clean"`
}

type Resolve struct {
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// Rule maps files matching Test to a processing kind
type Rule struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    RuleKind `json:"kind" yaml:"kind"`
	Test    Pattern  `json:"test" yaml:"test"`
	Exclude Pattern  `json:"exclude,omitzero" yaml:"exclude,omitempty"`
	Use     []string `json:"use,omitempty" yaml:"use,omitempty"`
	// Filename template for emitted assets
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	// InlineLimit is the size in bytes below which an asset becomes a data URL
	InlineLimit int64 `json:"inlineLimit,omitempty" yaml:"inlineLimit,omitempty"`
}

// Matches reports whether the rule applies to path
func (r Rule) Matches(path string) bool {
	return r.Test.MatchString(path) && !r.Exclude.MatchString(path)
}

// Page is a generation directive: render Template to Filename and include Chunks
type Page struct {
	Template string     `json:"template" yaml:"template"`
	Filename string     `json:"filename" yaml:"filename"`
	Chunks   []string   `json:"chunks" yaml:"chunks"`
	Inject   bool       `json:"inject" yaml:"inject"`
	Minify   HTMLMinify `json:"minify" yaml:"minify"`
}

type HTMLMinify struct {
	CollapseWhitespace            bool `json:"collapseWhitespace" yaml:"collapseWhitespace"`
	KeepClosingSlash              bool `json:"keepClosingSlash" yaml:"keepClosingSlash"`
	RemoveComments                bool `json:"removeComments" yaml:"removeComments"`
	RemoveRedundantAttributes     bool `json:"removeRedundantAttributes" yaml:"removeRedundantAttributes"`
	RemoveScriptTypeAttributes    bool `json:"removeScriptTypeAttributes" yaml:"removeScriptTypeAttributes"`
	RemoveStyleLinkTypeAttributes bool `json:"removeStyleLinkTypeAttributes" yaml:"removeStyleLinkTypeAttributes"`
	UseShortDoctype               bool `json:"useShortDoctype" yaml:"useShortDoctype"`
}

// CopyPattern copies a directory verbatim into the output
type CopyPattern struct {
	From string `json:"from" yaml:"from"`
	// To is relative to Output.Path
	To string `json:"to" yaml:"to"`
	// Ignore holds glob patterns matched against base names and relative paths
	Ignore           []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	NoErrorOnMissing bool     `json:"noErrorOnMissing" yaml:"noErrorOnMissing"`
}

const (
	MinimizerCode = "code"
	MinimizerJSON = "json"
)

type Minimizer struct {
	Name     string  `json:"name" yaml:"name"`
	Test     Pattern `json:"test" yaml:"test"`
	Parallel bool    `json:"parallel" yaml:"parallel"`
}

// Minimizer returns the minimizer with the given name, if configured
func (c *Config) Minimizer(name string) (Minimizer, bool) {
	for _, m := range c.Minimizers {
		if m.Name == name {
			return m, true
		}
	}
	return Minimizer{}, false
}

// AssetRules returns the rules of kind RuleAsset in order
func (c *Config) AssetRules() []Rule {
	var rules []Rule
	for _, r := range c.Rules {
		if r.Kind == RuleAsset {
			rules = append(rules, r)
		}
	}
	return rules
}
