package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/pagebundle/internal/assets"
	httpmiddleware "github.com/wolfeidau/pagebundle/internal/http"
	"github.com/wolfeidau/pagebundle/internal/logger"
)

type ServeCmd struct {
	Env EnvironmentFlags `embed:""`

	Listen      string        `help:"HTTP server listen address" default:"127.0.0.1:8080" env:"PAGEBUNDLE_LISTEN"`
	Watch       bool          `help:"rebuild when files in the source directory change" default:"false" env:"PAGEBUNDLE_WATCH"`
	Debounce    time.Duration `help:"quiet period after a change before rebuilding" default:"200ms"`
	CORSOrigins []string      `help:"allowed CORS origins" env:"PAGEBUNDLE_CORS_ORIGINS"`
	SassBinary  string        `help:"dart-sass binary used for .scss and .sass files" default:"sass" env:"PAGEBUNDLE_SASS_BINARY"`
	Tracing     bool          `help:"export build traces and metrics over OTLP" default:"false" env:"PAGEBUNDLE_TRACING"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	env, err := c.Env.Environment()
	if err != nil {
		return err
	}
	env, err = env.Abs()
	if err != nil {
		return err
	}

	stop := startTelemetry(ctx, c.Tracing, globals.Version)
	defer stop()

	cfg := c.pipelineConfig()
	if _, err := build(ctx, c.Env, cfg); err != nil {
		return err
	}

	server := configureHTTPServer(c.Listen, c.handler(log, env.Paths.Output))

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", c.Listen).Str("dir", env.Paths.Output).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	if c.Watch {
		go func() {
			rebuild := func(ctx context.Context) error {
				_, err := build(ctx, c.Env, cfg)
				return err
			}
			if err := watch(ctx, env.Paths.Source, env.Paths.Output, c.Debounce, rebuild); err != nil {
				errCh <- fmt.Errorf("watcher failed: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("Failed to shutdown HTTP server")
	}

	return err
}

func (c *ServeCmd) pipelineConfig() assets.Config {
	cfg := assets.DefaultConfig()
	cfg.SassBinary = c.SassBinary
	return cfg
}

// handler serves the output directory with gzip, optional CORS and request logging
func (c *ServeCmd) handler(log zerolog.Logger, dir string) http.Handler {
	var h http.Handler = gzhttp.GzipHandler(http.FileServer(http.Dir(dir)))

	if len(c.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: c.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		}).Handler(h)
	}

	h = httpmiddleware.RequestLogger(log)(h)
	return httpmiddleware.ClientIPMiddleware()(h)
}
