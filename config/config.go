// Package config holds the server settings: built-in defaults, an optional TOML file in the
// project root, and the command-line flags layered on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up in the project root when no path is given.
const FileName = ".gotoword.toml"

// ErrInvalidConfig is wrapped by every error caused by a bad config value or file.
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration written as a Go duration string ("30s", "5m") in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the full set of settings.
type Config struct {
	Exclude         []string `toml:"exclude"`
	MaxFileSize     int64    `toml:"max_file_size"`
	MaxResults      int      `toml:"max_results"`
	LogLevel        string   `toml:"log_level"`
	LogFile         string   `toml:"log_file"`
	CaseInsensitive bool     `toml:"case_insensitive"`

	// SearchTimeout bounds one occurrence search; zero means no limit.
	SearchTimeout Duration `toml:"search_timeout"`
	// SyncInterval is the period of the index verification loop; zero disables it.
	SyncInterval Duration `toml:"sync_interval"`
	Debounce     Duration `toml:"debounce"`
	// ReindexCooldown is the minimum time between two full reindex requests.
	ReindexCooldown Duration `toml:"reindex_cooldown"`

	Workers        int `toml:"workers"`
	ResultCapacity int `toml:"result_capacity"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxFileSize:     1024 * 1024,
		MaxResults:      50,
		LogLevel:        "info",
		SearchTimeout:   Duration(30 * time.Second),
		SyncInterval:    Duration(time.Minute),
		Debounce:        Duration(100 * time.Millisecond),
		ReindexCooldown: Duration(10 * time.Second),
		Workers:         8,
		ResultCapacity:  32,
	}
}

// Load reads path over the defaults. A missing file is not an error when the path was
// not given explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks every value, returning an error that wraps ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.MaxFileSize <= 0:
		return fmt.Errorf("%w: max_file_size must be positive, got %d", ErrInvalidConfig, c.MaxFileSize)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max_results must be positive, got %d", ErrInvalidConfig, c.MaxResults)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.ResultCapacity <= 0:
		return fmt.Errorf("%w: result_capacity must be positive, got %d", ErrInvalidConfig, c.ResultCapacity)
	case c.SearchTimeout < 0, c.SyncInterval < 0, c.Debounce < 0, c.ReindexCooldown < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: invalid exclude pattern %q", ErrInvalidConfig, pattern)
		}
	}
	return nil
}

// SlogLevel returns the configured log level, or info for an unknown name.
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
