// Package config loads and manages the readsync configuration file
// stored at ~/.readsync/config.yaml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is the directory under the user's home for CLI state.
const DefaultConfigDir = ".readsync"

// DefaultConfigFile is the config file name within the config directory.
const DefaultConfigFile = "config.yaml"

// DefaultDBFile is the database file name within the config directory.
const DefaultDBFile = "readsync.db"

// SourceEntry enables one data source by name.
type SourceEntry struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"` // nil means enabled
}

func (s SourceEntry) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Config represents the contents of ~/.readsync/config.yaml.
type Config struct {
	DB        string        `yaml:"db,omitempty"`
	PageDelay string        `yaml:"page_delay,omitempty"` // e.g. "1s"
	Sources   []SourceEntry `yaml:"sources,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		Sources: []SourceEntry{{Name: "readwise"}},
	}
}

// Dir returns the path to the config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "determine home directory")
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

func defaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// Load reads the config from path, or from the default location when
// path is empty. A missing file yields the default config.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}
	return &cfg, nil
}

// Save writes the config, creating the config directory when missing.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write config %s", path)
}

// DBPath resolves the configured database path, defaulting to
// ~/.readsync/readsync.db.
func (c *Config) DBPath() (string, error) {
	if c.DB != "" {
		return c.DB, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDBFile), nil
}

// Delay parses page_delay, returning zero when unset so the caller can
// apply its own default.
func (c *Config) Delay() (time.Duration, error) {
	if c.PageDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.PageDelay)
	if err != nil {
		return 0, errors.Wrapf(err, "parse page_delay %q", c.PageDelay)
	}
	return d, nil
}
