package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
)

const (
	inlineNamespace  = "inline-asset"
	emittedNamespace = "emitted-asset"
)

// emitter writes asset rule outputs during a bundle and records what it did.
// esbuild calls plugins from many goroutines.
type emitter struct {
	outDir     string
	publicPath string
	minifyJSON bool

	mu     sync.Mutex
	assets []EmittedAsset
}

// record keeps one entry per source and outcome, since a file can be imported from
// both scripts and stylesheets
func (e *emitter) record(asset EmittedAsset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.assets {
		if a.Source == asset.Source && a.Inlined == asset.Inlined {
			return
		}
	}
	e.assets = append(e.assets, asset)
}

func (e *emitter) emitted() []EmittedAsset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EmittedAsset(nil), e.assets...)
}

// emit writes the source file under the rule's filename template and returns its public URL
func (e *emitter) emit(rule bundleconfig.Rule, source, query string) (string, error) {
	contents, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read asset: %w", err)
	}

	if e.minifyJSON && strings.EqualFold(filepath.Ext(source), ".json") {
		contents, err = minifyJSON(contents)
		if err != nil {
			return "", fmt.Errorf("failed to minify %s: %w", source, err)
		}
	}

	name, urlName := assetName(rule.Filename, source, query, contents)
	target := filepath.Join(e.outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(target, contents, 0600); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}

	e.record(EmittedAsset{Rule: rule.Name, Source: source, Path: name, Size: int64(len(contents))})
	log.Debug().Str("rule", rule.Name).Str("source", source).Str("file", name).Msg("Emitted asset")

	return publicURL(e.publicPath, urlName), nil
}

// assetPlugin applies the asset rules: files under the rule's inline limit load as data
// URLs, anything larger is emitted. JS imports of an emitted file get its URL as a string
// and CSS url() tokens are rewritten to it.
func assetPlugin(rules []bundleconfig.Rule, e *emitter) api.Plugin {
	return api.Plugin{
		Name: "asset-rules",
		Setup: func(build api.PluginBuild) {
			for _, rule := range rules {
				build.OnResolve(api.OnResolveOptions{Filter: resolveFilter(rule)},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						return resolveAsset(rule, e, args)
					})
			}

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: inlineNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					raw := string(contents)
					return api.OnLoadResult{Contents: &raw, Loader: api.LoaderDataURL}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: emittedNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					url := args.Path
					return api.OnLoadResult{Contents: &url, Loader: api.LoaderText}, nil
				})
		},
	}
}

// resolveFilter also admits imports carrying a query or fragment, such as
// "./font.eot?#iefix", which the rule's anchored test would reject. resolveAsset checks
// the rule again once the suffix is stripped.
func resolveFilter(rule bundleconfig.Rule) string {
	return `(?:` + rule.Test.String() + `)|[?#]`
}

func resolveAsset(rule bundleconfig.Rule, e *emitter, args api.OnResolveArgs) (api.OnResolveResult, error) {
	importPath, query := splitQuery(args.Path)

	// bare module imports fall through to esbuild's own resolver and file loader
	if !strings.HasPrefix(importPath, ".") && !filepath.IsAbs(importPath) {
		return api.OnResolveResult{}, nil
	}

	source := importPath
	if !filepath.IsAbs(source) {
		source = filepath.Join(args.ResolveDir, importPath)
	}

	if !rule.Matches(source) {
		return api.OnResolveResult{}, nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return api.OnResolveResult{}, fmt.Errorf("failed to stat asset %s: %w", importPath, err)
	}

	if rule.InlineLimit > 0 && info.Size() < rule.InlineLimit {
		e.record(EmittedAsset{Rule: rule.Name, Source: source, Size: info.Size(), Inlined: true})
		return api.OnResolveResult{Path: source, Namespace: inlineNamespace}, nil
	}

	url, err := e.emit(rule, source, query)
	if err != nil {
		return api.OnResolveResult{}, err
	}

	if args.Kind == api.ResolveCSSURLToken || args.Kind == api.ResolveCSSImportRule {
		return api.OnResolveResult{Path: url, External: true}, nil
	}
	return api.OnResolveResult{Path: url, Namespace: emittedNamespace}, nil
}

// sassCompiler starts dart-sass on first use
type sassCompiler struct {
	binary string

	once       sync.Once
	transpiler *godartsass.Transpiler
	err        error
}

func (s *sassCompiler) start() (*godartsass.Transpiler, error) {
	s.once.Do(func() {
		s.transpiler, s.err = godartsass.Start(godartsass.Options{
			DartSassEmbeddedFilename: s.binary,
		})
		if s.err != nil {
			s.err = fmt.Errorf("failed to start dart-sass %q: %w", s.binary, s.err)
		}
	})
	return s.transpiler, s.err
}

func (s *sassCompiler) compile(path string, includePaths []string) (string, error) {
	transpiler, err := s.start()
	if err != nil {
		return "", err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	syntax := godartsass.SourceSyntaxSCSS
	if strings.EqualFold(filepath.Ext(path), ".sass") {
		syntax = godartsass.SourceSyntaxSASS
	}

	result, err := transpiler.Execute(godartsass.Args{
		Source:       string(source),
		URL:          "file://" + filepath.ToSlash(path),
		SourceSyntax: syntax,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: append([]string{filepath.Dir(path)}, includePaths...),
	})
	if err != nil {
		return "", fmt.Errorf("failed to compile %s: %w", path, err)
	}
	return result.CSS, nil
}

func (s *sassCompiler) Close() error {
	if s.transpiler == nil {
		return nil
	}
	return s.transpiler.Close()
}

// sassPlugin compiles .scss and .sass stylesheets so esbuild can extract them as CSS
func sassPlugin(compiler *sassCompiler, includePaths []string) api.Plugin {
	return api.Plugin{
		Name: "sass",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.(sa|sc)ss$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					css, err := compiler.compile(args.Path, includePaths)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{
						Contents:   &css,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     api.LoaderCSS,
					}, nil
				})
		},
	}
}
