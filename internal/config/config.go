// Package config holds runtime configuration for pylens. Configuration is
// read from an optional pylens.toml file and can be overridden by CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration.
type Config struct {
	Project  Project  `toml:"project"`
	Analysis Analysis `toml:"analysis"`
	Watch    Watch    `toml:"watch"`
}

type Project struct {
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Analysis struct {
	MaxConcurrentFiles int   `toml:"max_concurrent_files"` // semaphore size for full-project scans
	MaxFileSize        int64 `toml:"max_file_size"`        // files above this are skipped
	CacheSize          int   `toml:"cache_size"`           // per-component LRU result cache entries
}

type Watch struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			MaxConcurrentFiles: 10,
			MaxFileSize:        10 * 1024 * 1024,
			CacheSize:          2048,
		},
		Watch: Watch{
			Enabled:    true,
			DebounceMs: 200,
		},
	}
}

// Load reads configuration from path, layering it over defaults. A missing
// file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize resolves relative paths and rejects nonsensical values.
func (c *Config) normalize() error {
	if c.Project.Root != "" && !filepath.IsAbs(c.Project.Root) {
		abs, err := filepath.Abs(c.Project.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve project root %q: %w", c.Project.Root, err)
		}
		c.Project.Root = abs
	}
	if c.Analysis.MaxConcurrentFiles <= 0 {
		c.Analysis.MaxConcurrentFiles = 10
	}
	if c.Analysis.CacheSize <= 0 {
		c.Analysis.CacheSize = 2048
	}
	if c.Watch.DebounceMs < 0 {
		c.Watch.DebounceMs = 0
	}
	return nil
}
