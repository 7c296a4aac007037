package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	AppDir = "tos"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// StoreFile is the snapshot database file name.
	StoreFile = "snapshots.db"

	// EnvConfig overrides the config file location.
	EnvConfig = "TOS_CONFIG"
	// EnvStorePath overrides store.path.
	EnvStorePath = "TOS_STORE_PATH"
	// EnvOpenProgram overrides open.program.
	EnvOpenProgram = "TOS_OPEN_PROGRAM"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/tos/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, ConfigFile)
}

// Path picks the config file: explicit, then $TOS_CONFIG, then the global
// config path.
func Path(explicit string) string {
	if explicit != "" {
		return ExpandPath(explicit)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return ExpandPath(env)
	}
	return GlobalConfigPath()
}

// Load reads the config file at path over the defaults. A missing file yields
// the defaults; an explicitly named file must exist.
func Load(explicit string) (*Config, error) {
	cfg := Default()
	path := Path(explicit)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && explicit == "":
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.Store.Path = ExpandPath(GetConfigValue(EnvStorePath, cfg.Store.Path))
	cfg.Open.Program = GetConfigValue(EnvOpenProgram, cfg.Open.Program)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
