// Package config handles the tos configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/treeofscience/internal/dedupe"
	"github.com/matsen/treeofscience/internal/logging"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the configuration stored in config.yml.
type Config struct {
	Dedupe  DedupeConfig   `yaml:"dedupe"`
	Workers int            `yaml:"workers"`
	Log     logging.Config `yaml:"log"`
	Open    OpenConfig     `yaml:"open"`
	Resolve ResolveConfig  `yaml:"resolve"`
	Store   StoreConfig    `yaml:"store"`
}

// DedupeConfig selects how near-duplicate labels are detected.
type DedupeConfig struct {
	Similarity   string  `yaml:"similarity"`
	SharedPrefix int     `yaml:"shared_prefix"`
	Threshold    float64 `yaml:"threshold"`
	Inverted     bool    `yaml:"inverted"`
}

// OpenConfig holds the program used by `tos open`. Empty means the system
// opener.
type OpenConfig struct {
	Program string `yaml:"program"`
}

// ResolveConfig configures DOI lookups.
type ResolveConfig struct {
	BaseURL   string        `yaml:"base_url"`
	RateLimit float64       `yaml:"rate_limit"` // Requests per second
	Timeout   time.Duration `yaml:"timeout"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

const (
	DefaultResolveBaseURL = "https://doi.org"
	DefaultRateLimit      = 5
	DefaultTimeout        = 10 * time.Second
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Dedupe: DedupeConfig{
			Similarity:   "jaro_winkler",
			SharedPrefix: dedupe.DefaultSharedPrefix,
			Threshold:    dedupe.DefaultThreshold,
		},
		Log: logging.DefaultConfig(),
		Resolve: ResolveConfig{
			BaseURL:   DefaultResolveBaseURL,
			RateLimit: DefaultRateLimit,
			Timeout:   DefaultTimeout,
		},
		Store: StoreConfig{Path: DefaultStorePath()},
	}
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	_, distance, err := dedupe.SimilarityByName(c.Dedupe.Similarity)
	if err != nil {
		return fmt.Errorf("%w: dedupe.similarity: %v", ErrInvalidConfig, err)
	}
	if c.Dedupe.SharedPrefix < 0 {
		return fmt.Errorf("%w: dedupe.shared_prefix must be non-negative, got %d", ErrInvalidConfig, c.Dedupe.SharedPrefix)
	}
	if !distance && (c.Dedupe.Threshold < 0 || c.Dedupe.Threshold > 1) {
		return fmt.Errorf("%w: dedupe.threshold must be in [0, 1], got %v", ErrInvalidConfig, c.Dedupe.Threshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: log: %v", ErrInvalidConfig, err)
	}
	if c.Resolve.RateLimit <= 0 {
		return fmt.Errorf("%w: resolve.rate_limit must be positive, got %v", ErrInvalidConfig, c.Resolve.RateLimit)
	}
	if c.Resolve.Timeout <= 0 {
		return fmt.Errorf("%w: resolve.timeout must be positive, got %v", ErrInvalidConfig, c.Resolve.Timeout)
	}
	return nil
}

// DedupeOptions converts the dedupe section. Distance metrics are always
// compared inverted.
func (c *Config) DedupeOptions() (dedupe.Options, error) {
	sim, distance, err := dedupe.SimilarityByName(c.Dedupe.Similarity)
	if err != nil {
		return dedupe.Options{}, err
	}
	return dedupe.Options{
		Similarity:   sim,
		SharedPrefix: c.Dedupe.SharedPrefix,
		Threshold:    c.Dedupe.Threshold,
		Inverted:     c.Dedupe.Inverted || distance,
		Workers:      c.Workers,
	}, nil
}

// DefaultStorePath returns the snapshot database location under
// XDG_DATA_HOME, defaulting to ~/.local/share/tos/snapshots.db.
func DefaultStorePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join("~", ".local", "share")
	}
	return filepath.Join(dataHome, AppDir, StoreFile)
}

// GetConfigValue returns the environment variable if set, otherwise the
// config value.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
