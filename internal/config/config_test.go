package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown similarity", func(c *Config) { c.Dedupe.Similarity = "soundex" }},
		{"negative prefix", func(c *Config) { c.Dedupe.SharedPrefix = -1 }},
		{"threshold above one", func(c *Config) { c.Dedupe.Threshold = 1.5 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"zero rate limit", func(c *Config) { c.Resolve.RateLimit = 0 }},
		{"zero timeout", func(c *Config) { c.Resolve.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidate_DistanceThreshold(t *testing.T) {
	cfg := Default()
	cfg.Dedupe.Similarity = "levenshtein"
	cfg.Dedupe.Threshold = 3
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v; distances are not bounded by 1", err)
	}
}

func TestDedupeOptions(t *testing.T) {
	cfg := Default()
	cfg.Workers = 3
	opts, err := cfg.DedupeOptions()
	if err != nil {
		t.Fatalf("DedupeOptions() error = %v", err)
	}
	if opts.Inverted || opts.Workers != 3 || opts.SharedPrefix != 2 || opts.Threshold != 0.96 {
		t.Errorf("DedupeOptions() = %+v", opts)
	}
	if opts.Similarity("abc", "abc") != 1 {
		t.Error("default similarity should score identical labels 1")
	}

	cfg.Dedupe.Similarity = "levenshtein"
	opts, err = cfg.DedupeOptions()
	if err != nil {
		t.Fatalf("DedupeOptions() error = %v", err)
	}
	if !opts.Inverted {
		t.Error("distance similarity should be inverted")
	}
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "from-env")
	if got := GetConfigValue("TEST_CONFIG_KEY", "from-config"); got != "from-env" {
		t.Errorf("GetConfigValue() = %q, want from-env", got)
	}

	t.Setenv("TEST_CONFIG_KEY", "")
	if got := GetConfigValue("TEST_CONFIG_KEY", "from-config"); got != "from-config" {
		t.Errorf("GetConfigValue() = %q, want from-config", got)
	}
}

func TestDefaultStorePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got, want := DefaultStorePath(), "/data/tos/snapshots.db"; got != want {
		t.Errorf("DefaultStorePath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_DATA_HOME", "")
	if got, want := DefaultStorePath(), filepath.Join("~", ".local", "share", "tos", "snapshots.db"); got != want {
		t.Errorf("DefaultStorePath() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/data/tos.db", filepath.Join(home, "data/tos.db")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveTimeoutFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("resolve:\n  timeout: 2500ms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Resolve.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.Resolve.Timeout)
	}
	if cfg.Resolve.BaseURL != DefaultResolveBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.Resolve.BaseURL)
	}
}
