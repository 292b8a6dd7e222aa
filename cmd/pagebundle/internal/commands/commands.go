package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
	"github.com/wolfeidau/pagebundle/internal/environment"
	"github.com/wolfeidau/pagebundle/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Version string
}

// EnvironmentFlags override the settings file. Empty and zero values leave the file or
// default value in place.
type EnvironmentFlags struct {
	Settings         string `help:"path to a YAML settings file" type:"path" env:"PAGEBUNDLE_SETTINGS"`
	Source           string `help:"source directory containing templates and index.js (default: src)" env:"PAGEBUNDLE_SOURCE"`
	Output           string `help:"output directory (default: dist)" env:"PAGEBUNDLE_OUTPUT"`
	ImageInlineLimit int64  `help:"inline images smaller than this many bytes (default: 8192)" env:"PAGEBUNDLE_LIMIT_IMAGES"`
	FontInlineLimit  int64  `help:"inline fonts smaller than this many bytes (default: 8192)" env:"PAGEBUNDLE_LIMIT_FONTS"`
}

// Environment loads the settings file and applies the flag overrides
func (f EnvironmentFlags) Environment() (environment.Environment, error) {
	env, err := environment.Load(f.Settings)
	if err != nil {
		return environment.Environment{}, fmt.Errorf("failed to load settings: %w", err)
	}

	if f.Source != "" {
		env.Paths.Source = f.Source
	}
	if f.Output != "" {
		env.Paths.Output = f.Output
	}
	if f.ImageInlineLimit != 0 {
		env.Limits.Images = f.ImageInlineLimit
	}
	if f.FontInlineLimit != 0 {
		env.Limits.Fonts = f.FontInlineLimit
	}

	return env, nil
}

// BuildConfig resolves the environment and derives the build configuration from it
func (f EnvironmentFlags) BuildConfig() (*bundleconfig.Config, error) {
	env, err := f.Environment()
	if err != nil {
		return nil, err
	}
	return bundleconfig.Build(env)
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// startTelemetry installs the OTLP exporters when enabled. The returned func flushes them
// and must run before the process exits.
func startTelemetry(ctx context.Context, enabled bool, version string) func() {
	if !enabled {
		return func() {}
	}

	shutdown, err := telemetry.Init(ctx, "pagebundle", version)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}
