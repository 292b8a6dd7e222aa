package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/pagebundle/internal/logger"
	"gopkg.in/yaml.v3"
)

type ConfigCmd struct {
	Env EnvironmentFlags `embed:""`

	Format string `help:"output format" default:"yaml" enum:"yaml,json"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Setup(globals.Debug)
	return c.print(os.Stdout)
}

func (c *ConfigCmd) print(w io.Writer) error {
	cfg, err := c.Env.BuildConfig()
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	}
}
