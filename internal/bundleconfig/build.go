package bundleconfig

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/environment"
	"github.com/wolfeidau/pagebundle/internal/templates"
)

const (
	defaultEntry    = "index"
	imagesCopyDir   = "assets/images"
	productionMode  = "production"
	scriptBundle    = "js/[contenthash].js"
	extractedStyles = "css/[contenthash].css"
)

var pageMinify = HTMLMinify{
	CollapseWhitespace:            true,
	KeepClosingSlash:              true,
	RemoveComments:                true,
	RemoveRedundantAttributes:     false,
	RemoveScriptTypeAttributes:    true,
	RemoveStyleLinkTypeAttributes: true,
	UseShortDoctype:               true,
}

// Build derives the configuration from env. It lists the source directory once to find
// page templates. On failure it returns a nil config and an error wrapping
// ErrConfiguration.
func Build(env environment.Environment) (*Config, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	env, err := env.Abs()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	mappings, err := templates.Discover(env.Paths.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	log.Debug().
		Str("source", env.Paths.Source).
		Int("templates", len(mappings)).
		Msg("Discovered page templates")

	entries := map[string]string{
		defaultEntry: filepath.Join(env.Paths.Source, "index.js"),
	}
	for name, path := range env.Entries {
		if !filepath.IsAbs(path) {
			path = filepath.Join(env.Paths.Source, path)
		}
		entries[name] = path
	}

	return &Config{
		Mode:    productionMode,
		Context: env.Paths.Source,
		Entries: entries,
		Output: Output{
			Path:        env.Paths.Output,
			Filename:    scriptBundle,
			CSSFilename: extractedStyles,
			PublicPath:  "/",
			Clean:       true,
		},
		Resolve: Resolve{
			Extensions: []string{".js"},
		},
		Rules:      rules(env.Limits),
		Pages:      pages(env.Paths.Source, mappings),
		Copy:       copyPatterns(env.Paths.Source),
		Minimizers: []Minimizer{
			{Name: MinimizerCode, Test: MustPattern(`\.m?js$`), Parallel: true},
			{Name: MinimizerJSON, Test: MustPattern(`\.json$`)},
		},
	}, nil
}

func rules(limits environment.Limits) []Rule {
	return []Rule{
		{
			Name:    "script",
			Kind:    RuleScript,
			Test:    MustPattern(`\.m?js$`),
			Exclude: MustPattern(`node_modules`),
			Use:     []string{"babel-loader"},
		},
		{
			Name: "stylesheet",
			Kind: RuleStylesheet,
			Test: MustPattern(`\.(c|sa|sc)ss$`),
			Use:  []string{"extract", "css-loader", "sass-loader"},
		},
		{
			Name:     "data",
			Kind:     RuleAsset,
			Test:     MustPattern(`\.json$`),
			Filename: "data/[hash].json",
		},
		{
			Name:        "image",
			Kind:        RuleAsset,
			Test:        MustPattern(`\.(jpg|jpeg|png|gif|svg|webp)$`),
			Filename:    "assets/images/[hash][ext][query]",
			InlineLimit: limits.Images,
		},
		{
			Name:        "font",
			Kind:        RuleAsset,
			Test:        MustPattern(`\.(eot|ttf|woff|woff2|otf)$`),
			Filename:    "assets/fonts/[hash][ext]",
			InlineLimit: limits.Fonts,
		},
	}
}

func pages(source string, mappings []templates.Mapping) []Page {
	pages := make([]Page, 0, len(mappings))
	for _, m := range mappings {
		pages = append(pages, Page{
			Template: filepath.Join(source, m.Input),
			Filename: m.Output,
			Chunks:   []string{m.Chunk()},
			Inject:   true,
			Minify:   pageMinify,
		})
	}
	return pages
}

func copyPatterns(source string) []CopyPattern {
	return []CopyPattern{
		{
			From:             filepath.Join(source, imagesCopyDir),
			To:               imagesCopyDir,
			Ignore:           []string{"*.DS_Store", "Thumbs.db"},
			NoErrorOnMissing: true,
		},
	}
}
