package config

import (
	"os"
	"path/filepath"
)

// ConfigPathEnv overrides the default config file location.
const ConfigPathEnv = "COGAUTH_CONFIG"

const (
	defaultConfigDirName = "cogauth"
	defaultConfigFile    = "config.yaml"
)

func DefaultConfigPath() string {
	if env := os.Getenv(ConfigPathEnv); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cogauth", defaultConfigFile)
}
