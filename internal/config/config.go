// Package config loads companionctl settings from a YAML file with
// COMPANIONCTL_* environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	yamlv3 "gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is stripped from environment overrides, e.g. COMPANIONCTL_SERVER -> server.
	EnvPrefix = "COMPANIONCTL_"

	// DefaultServer is the companion proxy address used when nothing else is configured.
	DefaultServer = "http://localhost:8080"

	// DefaultRefreshInterval matches the dashboard polling period.
	DefaultRefreshInterval = 2 * time.Second

	configFile = "config.yaml"
)

// Config holds client settings
type Config struct {
	// Server is a base URL or the name of a saved server.
	Server          string        `koanf:"server" yaml:"server"`
	RefreshInterval time.Duration `koanf:"refresh_interval" yaml:"refresh_interval"`
	DataDir         string        `koanf:"data_dir" yaml:"data_dir"`
	LogLevel        string        `koanf:"log_level" yaml:"log_level"`
}

// DefaultConfig returns a Config with every field populated
func DefaultConfig() *Config {
	return &Config{
		Server:          DefaultServer,
		RefreshInterval: DefaultRefreshInterval,
		DataDir:         DefaultDataDir(),
		LogLevel:        "info",
	}
}

// DefaultDataDir returns ~/.companionctl, or a relative directory when the
// home directory is unknown
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".companionctl"
	}
	return filepath.Join(home, ".companionctl")
}

// DefaultPath returns the config file location inside the default data dir
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), configFile)
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// MarshalYAML writes the refresh interval in duration notation ("2s") so the
// file stays readable and koanf parses it back
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		Server          string `yaml:"server"`
		RefreshInterval string `yaml:"refresh_interval"`
		DataDir         string `yaml:"data_dir"`
		LogLevel        string `yaml:"log_level"`
	}{
		Server:          c.Server,
		RefreshInterval: c.RefreshInterval.String(),
		DataDir:         c.DataDir,
		LogLevel:        c.LogLevel,
	}, nil
}

// Save writes the configuration to the given YAML file path
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if strings.Contains(c.Server, "://") {
		u, err := url.Parse(c.Server)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
			return fmt.Errorf("invalid server %q: must be an http(s) URL or a saved server name", c.Server)
		}
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	return nil
}
