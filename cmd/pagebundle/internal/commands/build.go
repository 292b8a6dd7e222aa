package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/pagebundle/internal/assets"
	"github.com/wolfeidau/pagebundle/internal/logger"
)

type BuildCmd struct {
	Env EnvironmentFlags `embed:""`

	Precompress bool   `help:"write .gz and .zst siblings for text outputs" default:"false" env:"PAGEBUNDLE_PRECOMPRESS"`
	SassBinary  string `help:"dart-sass binary used for .scss and .sass files" default:"sass" env:"PAGEBUNDLE_SASS_BINARY"`
	Tracing     bool   `help:"export build traces and metrics over OTLP" default:"false" env:"PAGEBUNDLE_TRACING"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting build")

	stop := startTelemetry(ctx, c.Tracing, globals.Version)
	defer stop()

	manifest, err := build(ctx, c.Env, c.pipelineConfig())
	if err != nil {
		return err
	}

	fmt.Printf("Built %d page(s), %d chunk(s), %d asset(s) [build %s]\n",
		len(manifest.Pages), len(manifest.Chunks), len(manifest.Assets), manifest.BuildID)

	return nil
}

func (c *BuildCmd) pipelineConfig() assets.Config {
	cfg := assets.DefaultConfig()
	cfg.Precompress = c.Precompress
	cfg.SassBinary = c.SassBinary
	return cfg
}

// build resolves the configuration and runs one pipeline build
func build(ctx context.Context, flags EnvironmentFlags, cfg assets.Config) (*assets.Manifest, error) {
	buildConfig, err := flags.BuildConfig()
	if err != nil {
		return nil, err
	}

	manifest, err := assets.New(buildConfig, cfg).Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build site: %w", err)
	}
	return manifest, nil
}
