// Package config loads mapper configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full mapper configuration.
type Config struct {
	Staging StagingConfig `yaml:"staging"`
	Archive ArchiveConfig `yaml:"archive"`
	Sink    SinkConfig    `yaml:"sink"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StagingConfig points at the ClearCode staging database.
type StagingConfig struct {
	DSN string `yaml:"dsn"`
}

// ArchiveConfig points at the archive storage database.
type ArchiveConfig struct {
	DSN string `yaml:"dsn"`
}

// SinkConfig points at the metadata store.
type SinkConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Format string `yaml:"format"` // "json" | "text"
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Load reads configuration from path (optional; empty path skips the
// file) and applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Staging.DSN = getenvDefault("CLEARCODE_DSN", cfg.Staging.DSN)
	cfg.Archive.DSN = getenvDefault("ARCHIVE_DSN", cfg.Archive.DSN)
	cfg.Sink.DSN = getenvDefault("METADATA_DSN", cfg.Sink.DSN)
	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = v
	}

	return cfg, cfg.validate()
}

func defaults() Config {
	return Config{
		Logging: LoggingConfig{Format: "text", Level: "info"},
		Metrics: MetricsConfig{Address: ":9090"},
	}
}

func (c Config) validate() error {
	if c.Staging.DSN == "" {
		return fmt.Errorf("staging DSN is required")
	}
	if c.Archive.DSN == "" {
		return fmt.Errorf("archive DSN is required")
	}
	if c.Sink.DSN == "" {
		return fmt.Errorf("sink DSN is required")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}
