package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "bridgelower.yaml"

const (
	FormatFlatBuffers = "flatbuffers"
	FormatJSON        = "json"
	FormatText        = "text"
)

// Config holds every setting the CLI and serve loop read.
type Config struct {
	Lowering struct {
		Parallelism int `yaml:"parallelism"`
	} `yaml:"lowering"`
	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`
	Cache struct {
		Dir        string `yaml:"dir"`
		MaxEntries int    `yaml:"max_entries"`
	} `yaml:"cache"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	var cfg Config
	cfg.Output.Format = FormatFlatBuffers
	cfg.Cache.MaxEntries = 20
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig layers, lowest first: defaults, the YAML file, then
// BRIDGELOWER_* environment variables (a .env file is loaded into the
// environment first). An empty path reads DefaultConfigFile if present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if v := os.Getenv("BRIDGELOWER_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("BRIDGELOWER_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("BRIDGELOWER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BRIDGELOWER_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BRIDGELOWER_PARALLELISM: %w", err)
		}
		cfg.Lowering.Parallelism = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown formats and negative limits.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatFlatBuffers, FormatJSON, FormatText:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Lowering.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Lowering.Parallelism)
	}
	return nil
}

// newLogger writes text records to stderr; stdout carries only payloads.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
