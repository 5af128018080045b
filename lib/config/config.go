// Copyright 2026 The Zpress Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "ZPRESS_CONFIG"

// Config is the defaults file schema. Every field is optional; zero
// values mean "use the built-in default".
type Config struct {
	// Level is the default compression level.
	Level int `yaml:"level"`

	// Format is the default output format (zstd, gzip, xz, lzma,
	// lz4).
	Format string `yaml:"format"`

	// Threads is the default worker count for the zstd codec.
	Threads int `yaml:"threads"`

	// Checksum controls content checksums; nil keeps the built-in
	// default of on.
	Checksum *bool `yaml:"checksum,omitempty"`

	// Sparse is the default sparse mode: off, auto, or force.
	Sparse string `yaml:"sparse"`

	// Progress is the default progress mode: auto, always, or never.
	Progress string `yaml:"progress"`

	// Verbosity is the default notification level, 0 through 5.
	Verbosity *int `yaml:"verbosity,omitempty"`
}

// Load reads the config file at path. When path is empty the EnvVar
// location is consulted; when that is also empty an all-defaults
// Config is returned. A file that is named but unreadable or invalid
// is an error: a requested configuration must never be silently
// dropped.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Sparse {
	case "", "off", "auto", "force":
	default:
		return fmt.Errorf("invalid sparse mode %q (off, auto, force)", c.Sparse)
	}
	switch c.Progress {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid progress mode %q (auto, always, never)", c.Progress)
	}
	switch c.Format {
	case "", "zstd", "gzip", "xz", "lzma", "lz4":
	default:
		return fmt.Errorf("invalid format %q", c.Format)
	}
	if c.Verbosity != nil && (*c.Verbosity < 0 || *c.Verbosity > 5) {
		return fmt.Errorf("verbosity %d out of range 0..5", *c.Verbosity)
	}
	return nil
}
