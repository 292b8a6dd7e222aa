package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"maps"
	"sync"
	"time"

	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
}

// Chunk is the set of files a page includes for one entry point
type Chunk struct {
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles"`
}

// EmittedAsset records a file handled by an asset rule
type EmittedAsset struct {
	Rule    string `json:"rule"`
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size"`
	Inlined bool   `json:"inlined"`
}

// Manifest describes the outputs of one build
type Manifest struct {
	BuildID string           `json:"buildId"`
	BuiltAt time.Time        `json:"builtAt"`
	Chunks  map[string]Chunk `json:"chunks"`
	Pages   []string         `json:"pages"`
	Copied  int              `json:"copied"`
	Assets  []EmittedAsset   `json:"assets"`
}

// Pipeline executes a build configuration
type Pipeline struct {
	build  *bundleconfig.Config
	config Config
	funcs  template.FuncMap
	chunks map[string]Chunk
	mu     sync.RWMutex
}

// New creates a new asset pipeline for the given build configuration
func New(build *bundleconfig.Config, config Config) *Pipeline {
	return NewWithFuncs(build, config, nil)
}

// NewWithFuncs creates a new asset pipeline whose page templates can call custom functions
func NewWithFuncs(build *bundleconfig.Config, config Config, customFuncs template.FuncMap) *Pipeline {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	return &Pipeline{
		build:  build,
		config: config,
		funcs:  funcs,
	}
}

// Chunk returns the scripts and styles built for the named entry point
func (p *Pipeline) Chunk(name string) (Chunk, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.chunks == nil {
		return Chunk{}, errors.New("assets not built yet, call Build() first")
	}

	chunk, ok := p.chunks[name]
	if !ok {
		return Chunk{}, ErrUnknownChunk
	}
	return chunk, nil
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
