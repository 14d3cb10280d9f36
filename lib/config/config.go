// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the wallet's
// coordination backend.
//
// Configuration is loaded from a single YAML file specified by:
//   - OMNI_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery, so configuration is
// deterministic and auditable. The file may contain per-environment
// sections (development, production) that override base values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment type.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for end-user installs.
	Production Environment = "production"
)

// Config is the master configuration for the coordination backend.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Matrix configures the homeserver connection.
	Matrix MatrixConfig `yaml:"matrix"`

	// Storage configures the local database.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Per-environment overrides, applied after the base config loads.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Matrix  *MatrixConfig  `yaml:"matrix,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver.
	HomeserverURL string `yaml:"homeserver_url"`

	// SyncTimeoutMillis is the /sync long-poll hold time the event
	// router requests. Default: 30000.
	SyncTimeoutMillis int `yaml:"sync_timeout_millis"`
}

// StorageConfig configures the local SQLite database.
type StorageConfig struct {
	// DatabasePath is the path to the wallet database file.
	DatabasePath string `yaml:"database_path"`

	// PoolSize is the SQLite connection pool size. Zero uses the
	// pool's default.
	PoolSize int `yaml:"pool_size"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// Default returns the default configuration. These defaults ensure all
// fields have sensible zero-values before the config file is applied —
// the file remains the source of truth.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "omni-desktop")

	return &Config{
		Environment: Development,
		Matrix: MatrixConfig{
			HomeserverURL:     "https://matrix.org",
			SyncTimeoutMillis: 30000,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(dataDir, "omni.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the OMNI_CONFIG environment variable.
// Fails when OMNI_CONFIG is not set — there is no hidden discovery.
func Load() (*Config, error) {
	configPath := os.Getenv("OMNI_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("OMNI_CONFIG environment variable not set; " +
			"set it to the path of your omni.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The base
// config is parsed first, then the override section matching the
// configured environment is applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	var overrides *Overrides
	switch cfg.Environment {
	case Development:
		overrides = cfg.Development
	case Production:
		overrides = cfg.Production
	case "":
		return nil, fmt.Errorf("config: %s: environment is empty", path)
	default:
		return nil, fmt.Errorf("config: %s: unknown environment %q", path, cfg.Environment)
	}
	cfg.apply(overrides)

	if cfg.Matrix.HomeserverURL == "" {
		return nil, fmt.Errorf("config: %s: matrix.homeserver_url is required", path)
	}
	if cfg.Storage.DatabasePath == "" {
		return nil, fmt.Errorf("config: %s: storage.database_path is required", path)
	}

	return cfg, nil
}

func (c *Config) apply(overrides *Overrides) {
	if overrides == nil {
		return
	}
	if overrides.Matrix != nil {
		c.Matrix = *overrides.Matrix
	}
	if overrides.Storage != nil {
		c.Storage = *overrides.Storage
	}
	if overrides.Logging != nil {
		c.Logging = *overrides.Logging
	}
}
