// Package config loads the semi CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nickandperla.net/semi/internal/charset"
	"nickandperla.net/semi/internal/logger"
)

// Config is the on-disk configuration. Zero values are replaced by Default.
type Config struct {
	LogLevel string `yaml:"log_level"`
	DB       string `yaml:"db"`       // Run journal path; empty disables the journal
	Encoding string `yaml:"encoding"` // Charset of program text
	Color    string `yaml:"color"`    // auto, always or never
	Serve    Serve  `yaml:"serve"`
}

// Serve configures the playground server.
type Serve struct {
	Addr          string        `yaml:"addr"`
	Retention     time.Duration `yaml:"retention"`
	PruneInterval time.Duration `yaml:"prune_interval"`
	MaxBody       int           `yaml:"max_body"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Encoding: "utf-8",
		Color:    "auto",
		Serve: Serve{
			Addr:          "127.0.0.1:8080",
			Retention:     24 * time.Hour,
			PruneInterval: 5 * time.Minute,
			MaxBody:       64 * 1024,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	return cfg, nil
}

// Validate checks values that the decoder cannot.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := charset.Lookup(c.Encoding); err != nil {
		return err
	}
	switch strings.ToLower(c.Color) {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode: %s (use auto, always, or never)", c.Color)
	}
	if c.Serve.Retention <= 0 {
		return fmt.Errorf("serve.retention must be positive")
	}
	if c.Serve.PruneInterval <= 0 {
		return fmt.Errorf("serve.prune_interval must be positive")
	}
	if c.Serve.MaxBody <= 0 {
		return fmt.Errorf("serve.max_body must be positive")
	}
	return nil
}
