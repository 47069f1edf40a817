// Package logging builds the daemon's structured zap loggers.
//
// Mode loops run at 60 Hz, so log sampling is part of the default
// configuration: repeated sub-warning entries collapse after a burst,
// while warnings and errors always pass through.
package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum enabled level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format selects the encoder: json or console.
	Format string `koanf:"format"`

	// Sampling collapses repeated sub-warning entries.
	Sampling SamplingConfig `koanf:"sampling"`
}

// SamplingConfig tunes per-second log sampling.
type SamplingConfig struct {
	Enabled bool `koanf:"enabled"`

	// Initial is how many entries per identical message pass through in
	// each one-second window before sampling kicks in.
	Initial int `koanf:"initial"`

	// Thereafter keeps every Nth repeat once Initial is exhausted.
	Thereafter int `koanf:"thereafter"`
}

// DefaultConfig returns production defaults: JSON at info level with
// sampling sized for tick-rate logging.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Sampling: SamplingConfig{
			Enabled:    true,
			Initial:    100,
			Thereafter: 100,
		},
	}
}

// Validate checks the config before a logger is built from it.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", c.Format)
	}
	if c.Sampling.Enabled && (c.Sampling.Initial <= 0 || c.Sampling.Thereafter <= 0) {
		return fmt.Errorf("sampling initial and thereafter must be positive")
	}
	return nil
}
