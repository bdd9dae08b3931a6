package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/docload/docpipe"
)

// Config holds the docload binary configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	DBPath   string         `yaml:"db_path"`
	LogLevel string         `yaml:"log_level"`
	Pipeline docpipe.Config `yaml:"pipeline"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8090",
		DBPath:   "data/docload.db",
		LogLevel: "info",
		Pipeline: docpipe.Config{
			MaxFileSize: 100 * 1024 * 1024,
			RemoteExtraction: docpipe.RemoteConfig{
				Timeout: 60 * time.Second,
			},
			Spreadsheet: docpipe.SpreadsheetConfig{ChunkSize: 1000},
		},
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty), then
// applies .env and DOCLOAD_* environment overrides, then validates.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DOCLOAD_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("DOCLOAD_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("DOCLOAD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DOCLOAD_TIKA_URL"); v != "" {
		c.Pipeline.RemoteExtraction.Enabled = true
		c.Pipeline.RemoteExtraction.Endpoint = v
	}
	if v := os.Getenv("DOCLOAD_TIKA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DOCLOAD_TIKA_TIMEOUT: %w", err)
		}
		c.Pipeline.RemoteExtraction.Timeout = d
	}
	if v := os.Getenv("DOCLOAD_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("DOCLOAD_MAX_FILE_SIZE: %w", err)
		}
		c.Pipeline.MaxFileSize = n
	}
	return nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Pipeline.MaxFileSize <= 0 {
		return fmt.Errorf("pipeline.max_file_size must be > 0")
	}
	if c.Pipeline.Spreadsheet.MaxRows < 0 {
		return fmt.Errorf("pipeline.spreadsheet.max_rows must be >= 0")
	}
	if r := c.Pipeline.RemoteExtraction; r.Enabled && r.Endpoint == "" {
		return fmt.Errorf("pipeline.remote_extraction.endpoint is required when enabled")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}
