package environment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings indicates a missing or out of range setting
var ErrInvalidSettings = errors.New("invalid environment settings")

const (
	defaultSourceDir  = "src"
	defaultOutputDir  = "dist"
	defaultInlineSize = 8192
)

// Paths locates the source tree and the build output
type Paths struct {
	Source string `yaml:"source" json:"source"`
	Output string `yaml:"output" json:"output"`
}

// Limits are inlining thresholds in bytes. Assets smaller than the limit are embedded as
// data URLs. Zero disables inlining.
type Limits struct {
	Images int64 `yaml:"images" json:"images"`
	Fonts  int64 `yaml:"fonts" json:"fonts"`
}

// Environment holds the settings a build configuration is derived from
type Environment struct {
	Paths  Paths  `yaml:"paths" json:"paths"`
	Limits Limits `yaml:"limits" json:"limits"`
	// Extra script entry points keyed by chunk name, relative to Paths.Source
	Entries map[string]string `yaml:"entries,omitempty" json:"entries,omitempty"`
}

// Default returns the settings used when nothing else is configured
func Default() Environment {
	return Environment{
		Paths: Paths{
			Source: defaultSourceDir,
			Output: defaultOutputDir,
		},
		Limits: Limits{
			Images: defaultInlineSize,
			Fonts:  defaultInlineSize,
		},
	}
}

// Load reads a YAML settings file over the defaults. An empty path returns the defaults.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (Environment, error) {
	env := Default()
	if path == "" {
		return env, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &env); err != nil {
		return Environment{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	env.Paths.Source = resolve(base, env.Paths.Source)
	env.Paths.Output = resolve(base, env.Paths.Output)

	return env, nil
}

// Validate checks that the settings can produce a configuration
func (e Environment) Validate() error {
	if e.Paths.Source == "" {
		return fmt.Errorf("%w: source path is required", ErrInvalidSettings)
	}
	if e.Paths.Output == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidSettings)
	}
	if e.Limits.Images < 0 {
		return fmt.Errorf("%w: image inline limit must not be negative", ErrInvalidSettings)
	}
	if e.Limits.Fonts < 0 {
		return fmt.Errorf("%w: font inline limit must not be negative", ErrInvalidSettings)
	}
	for name, path := range e.Entries {
		if name == "" || path == "" {
			return fmt.Errorf("%w: entry %q has an empty name or path", ErrInvalidSettings, name)
		}
	}
	return nil
}

// Abs returns a copy with both paths made absolute
func (e Environment) Abs() (Environment, error) {
	source, err := filepath.Abs(e.Paths.Source)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to resolve source path: %w", err)
	}
	output, err := filepath.Abs(e.Paths.Output)
	if err != nil {
		return Environment{}, fmt.Errorf("failed to resolve output path: %w", err)
	}
	e.Paths.Source = source
	e.Paths.Output = output
	return e, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
