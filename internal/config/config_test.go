package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.RefreshInterval != 2*time.Second {
		t.Errorf("expected 2s refresh interval, got %v", cfg.RefreshInterval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("expected default server, got %q", cfg.Server)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server = "https://companion.example.com"
	cfg.RefreshInterval = 5 * time.Second
	cfg.LogLevel = "debug"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600, got %o", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "refresh_interval: 5s") {
		t.Errorf("expected readable duration in file:\n%s", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server != cfg.Server || got.RefreshInterval != cfg.RefreshInterval || got.LogLevel != "debug" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: http://file:8080\nrefresh_interval: 3s\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COMPANIONCTL_SERVER", "http://env:9090")
	t.Setenv("COMPANIONCTL_DATA_DIR", "/tmp/companion-data")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://env:9090" {
		t.Errorf("expected env server, got %q", cfg.Server)
	}
	if cfg.DataDir != "/tmp/companion-data" {
		t.Errorf("expected env data dir, got %q", cfg.DataDir)
	}
	if cfg.RefreshInterval != 3*time.Second {
		t.Errorf("expected file refresh interval, got %v", cfg.RefreshInterval)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"saved server name", func(c *Config) { c.Server = "prod" }, false},
		{"empty server", func(c *Config) { c.Server = "" }, true},
		{"ftp server", func(c *Config) { c.Server = "ftp://host" }, true},
		{"zero interval", func(c *Config) { c.RefreshInterval = 0 }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
