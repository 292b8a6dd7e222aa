package assets

type Config struct {
	// Write .gz and .zst siblings next to text outputs
	Precompress bool
	// Path or name of the dart-sass binary used for .scss and .sass files
	SassBinary string
	// Name of the build manifest written to the output directory
	ManifestName string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Precompress:  false,
		SassBinary:   "sass",
		ManifestName: "manifest.json",
	}
}
