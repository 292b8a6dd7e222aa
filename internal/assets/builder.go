package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
	"github.com/wolfeidau/pagebundle/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const tracerName = "github.com/wolfeidau/pagebundle/internal/assets"

// Build executes the configuration: bundle entries, copy static files, render pages and
// write the manifest. Builds on the same pipeline never overlap.
func (p *Pipeline) Build(ctx context.Context) (*Manifest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assets.Build")
	defer span.End()

	manifest, err := p.execute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.GetMetrics().BuildErrorsTotal.Add(ctx, 1)
		return nil, err
	}

	telemetry.GetMetrics().BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()))
	span.SetAttributes(
		attribute.String("build.id", manifest.BuildID),
		attribute.Int("build.pages", len(manifest.Pages)),
		attribute.Int("build.assets", len(manifest.Assets)),
	)

	log.Info().
		Str("build_id", manifest.BuildID).
		Int("pages", len(manifest.Pages)).
		Int("chunks", len(manifest.Chunks)).
		Int("assets", len(manifest.Assets)).
		Int("copied", manifest.Copied).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return manifest, nil
}

func (p *Pipeline) execute(ctx context.Context) (*Manifest, error) {
	out := p.build.Output.Path

	if p.build.Output.Clean {
		if err := os.RemoveAll(out); err != nil {
			return nil, fmt.Errorf("failed to clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(out, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	chunks, assets, err := p.bundle(ctx)
	if err != nil {
		return nil, err
	}
	p.chunks = chunks

	copied, err := phase(ctx, "assets.copy", func(ctx context.Context) (int, error) {
		return copyPatterns(ctx, out, p.build.Copy)
	})
	if err != nil {
		return nil, err
	}

	pages, err := phase(ctx, "assets.pages", func(ctx context.Context) ([]string, error) {
		return p.renderPages(ctx, chunks)
	})
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		BuildID: uuid.NewString(),
		BuiltAt: time.Now().UTC(),
		Chunks:  chunks,
		Pages:   pages,
		Copied:  copied,
		Assets:  assets,
	}

	if err := writeManifest(filepath.Join(out, p.config.ManifestName), manifest); err != nil {
		return nil, err
	}

	if p.config.Precompress {
		if _, err := phase(ctx, "assets.precompress", func(ctx context.Context) (int, error) {
			return precompress(ctx, out, p.concurrency())
		}); err != nil {
			return nil, err
		}
	}

	return manifest, nil
}

// bundle runs esbuild over the entry points and writes each entry's script and
// extracted stylesheet under the output filename templates
func (p *Pipeline) bundle(ctx context.Context) (map[string]Chunk, []EmittedAsset, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assets.bundle")
	defer span.End()

	chunks := map[string]Chunk{}

	entryPoints := p.entryPoints()
	if len(entryPoints) == 0 {
		log.Warn().Msg("No entry points found, skipping script bundle")
		return chunks, nil, nil
	}

	names := make([]string, 0, len(entryPoints))
	for _, e := range entryPoints {
		names = append(names, e.OutputPath)
	}
	span.SetAttributes(attribute.StringSlice("bundle.entrypoints", names))
	log.Info().Strs("entrypoints", names).Msg("Building assets")

	_, minify := p.build.Minimizer(bundleconfig.MinimizerCode)
	_, minifyData := p.build.Minimizer(bundleconfig.MinimizerJSON)

	em := &emitter{
		outDir:     p.build.Output.Path,
		publicPath: p.build.Output.PublicPath,
		minifyJSON: minifyData,
	}
	sass := &sassCompiler{binary: p.config.SassBinary}
	defer func() {
		if err := sass.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to stop dart-sass")
		}
	}()

	workDir, err := p.workDir()
	if err != nil {
		return nil, nil, err
	}

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:       workDir,
		EntryPointsAdvanced: entryPoints,
		Bundle:              true,
		Write:               false,
		Outdir:              p.build.Output.Path,
		EntryNames:          "[name]",
		AssetNames:          "assets/[name]-[hash]",
		PublicPath:          p.build.Output.PublicPath,
		Format:              api.FormatIIFE,
		Platform:            api.PlatformBrowser,
		Target:              api.ES2017,
		ResolveExtensions:   p.build.Resolve.Extensions,
		Loader:              p.loaders(),
		Define:              map[string]string{"process.env.NODE_ENV": fmt.Sprintf("%q", p.build.Mode)},
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         api.TreeShakingTrue,
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		Plugins: []api.Plugin{
			assetPlugin(p.build.AssetRules(), em),
			sassPlugin(sass, []string{p.build.Context}),
		},
	})

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		err := fmt.Errorf("%w: %s", ErrBuildFailed, result.Errors[0].Text)
		span.RecordError(err)
		return nil, nil, err
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	// keyed by path relative to the output directory, so "pages/about" and "about" differ
	files := map[string]api.OutputFile{}
	for _, file := range result.OutputFiles {
		rel, err := p.outputRel(file.Path)
		if err != nil {
			return nil, nil, err
		}
		files[rel] = file
	}

	for outputPath, info := range metadata.Outputs {
		if info.EntryPoint == "" || path.Ext(outputPath) != ".js" {
			continue
		}

		script, err := p.outputRel(filepath.Join(workDir, outputPath))
		if err != nil {
			return nil, nil, err
		}
		name := strings.TrimSuffix(script, ".js")
		chunk := Chunk{Scripts: []string{}, Styles: []string{}}

		scriptURL, err := p.writeOutput(files, script, p.build.Output.Filename)
		if err != nil {
			return nil, nil, err
		}
		chunk.Scripts = append(chunk.Scripts, scriptURL)

		if info.CSSBundle != "" {
			style, err := p.outputRel(filepath.Join(workDir, info.CSSBundle))
			if err != nil {
				return nil, nil, err
			}
			styleURL, err := p.writeOutput(files, style, p.build.Output.CSSFilename)
			if err != nil {
				return nil, nil, err
			}
			chunk.Styles = append(chunk.Styles, styleURL)
		}

		chunks[name] = chunk
	}

	// anything else esbuild produced, e.g. assets reached through bare module imports
	for rel, file := range files {
		if err := writeFile(filepath.Join(p.build.Output.Path, filepath.FromSlash(rel)), file.Contents); err != nil {
			return nil, nil, err
		}
		log.Info().Str("file", rel).Msg("Built file")
	}

	assets := em.emitted()
	for _, a := range assets {
		if a.Inlined {
			telemetry.GetMetrics().AssetsInlinedTotal.Add(ctx, 1, metricAttrs(a.Rule))
		} else {
			telemetry.GetMetrics().AssetsEmittedTotal.Add(ctx, 1, metricAttrs(a.Rule))
		}
	}

	return chunks, assets, nil
}

// writeOutput writes a bundled file under the filename template and removes it from
// files. It returns the public URL.
func (p *Pipeline) writeOutput(files map[string]api.OutputFile, rel, tmpl string) (string, error) {
	file, ok := files[rel]
	if !ok {
		return "", fmt.Errorf("output %s missing from build result", rel)
	}
	delete(files, rel)

	name := nameFor(tmpl, rel, "", file.Contents)
	if err := writeFile(filepath.Join(p.build.Output.Path, filepath.FromSlash(name)), file.Contents); err != nil {
		return "", err
	}

	log.Info().Str("file", name).Str("output", rel).Msg("Built file")
	return publicURL(p.build.Output.PublicPath, name), nil
}

// workDir is the directory esbuild resolves metafile paths against
func (p *Pipeline) workDir() (string, error) {
	if p.build.Context != "" {
		return p.build.Context, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// outputRel returns an absolute output path relative to the output directory, slash separated
func (p *Pipeline) outputRel(abs string) (string, error) {
	rel, err := filepath.Rel(p.build.Output.Path, abs)
	if err != nil {
		return "", fmt.Errorf("failed to place output %s: %w", abs, err)
	}
	return filepath.ToSlash(rel), nil
}

func (p *Pipeline) entryPoints() []api.EntryPoint {
	names := make([]string, 0, len(p.build.Entries))
	for name := range p.build.Entries {
		names = append(names, name)
	}
	slices.Sort(names)

	entryPoints := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		input := p.build.Entries[name]
		if _, err := os.Stat(input); err != nil {
			log.Warn().Str("entry", name).Str("path", input).Err(err).Msg("Skipping missing entry point")
			continue
		}
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: input, OutputPath: name})
	}
	return entryPoints
}

func (p *Pipeline) loaders() map[string]api.Loader {
	loaders := map[string]api.Loader{
		".js":  api.LoaderJS,
		".mjs": api.LoaderJS,
		".css": api.LoaderCSS,
	}
	// fallback for assets the rules plugin leaves to esbuild
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".eot", ".ttf", ".woff", ".woff2", ".otf"} {
		loaders[ext] = api.LoaderFile
	}
	return loaders
}

func (p *Pipeline) concurrency() int {
	if m, ok := p.build.Minimizer(bundleconfig.MinimizerCode); ok && m.Parallel {
		return runtime.NumCPU()
	}
	return 1
}

func writeFile(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, contents, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeManifest(path string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return writeFile(path, data)
}

// phase runs fn inside a child span
func phase[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("phase", name).Msg("Build phase failed")
		}
	}
	return result, err
}

func metricAttrs(rule string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("rule", rule))
}
