// Package config loads the demo server configuration from navstack.toml.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "navstack.toml"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":3000"
)

// Synchronization strategies.
const (
	StrategyChronological = "chronological"
	StrategyHierarchical  = "hierarchical"
)

// Config is the demo server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `toml:"addr"`

	// Strategy selects the synchronizer: "chronological" or "hierarchical".
	Strategy string `toml:"strategy"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `toml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:     DefaultAddr,
		Strategy: StrategyChronological,
		LogLevel: "info",
		Metrics:  true,
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present but invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyChronological
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyChronological, StrategyHierarchical:
	default:
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
