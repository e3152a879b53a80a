// Package paths resolves the configuration file and database locations.
package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Default file names, looked up relative to the working directory.
const (
	DefaultConfigFile   = "gardener.yaml"
	DefaultDatabaseFile = "gardener.db"
)

// Environment variable names for location overrides.
const (
	EnvConfig   = "GARDENER_CONFIG"
	EnvDatabase = "GARDENER_DB"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// UserConfigDir returns the platform-specific per-user configuration
// directory for gardener.
//
// Linux:   $XDG_CONFIG_HOME/gardener (fallback ~/.config/gardener)
// macOS:   ~/Library/Application Support/gardener
// Windows: %APPDATA%/gardener
func UserConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "gardener"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "gardener"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "gardener"), nil
	}
}

// ResolveConfigFile returns the configuration file following the precedence
// chain: flag > GARDENER_CONFIG env > ./gardener.yaml > UserConfigDir()/gardener.yaml.
//
// The working-directory file is used when it exists or when there is no user
// config file either, so a fresh project gets a local config from init.
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return filepath.Abs(env)
	}
	local, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return "", err
	}
	if exists(local) {
		return local, nil
	}
	dir, err := UserConfigDir()
	if err != nil {
		return local, nil
	}
	if user := filepath.Join(dir, DefaultConfigFile); exists(user) {
		return user, nil
	}
	return local, nil
}

// ResolveDatabase returns the database file following the precedence chain:
// flag > configValue > GARDENER_DB env > ./gardener.db.
//
// A relative configValue is taken relative to configDir, the directory of
// the configuration file it came from.
func ResolveDatabase(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		if !filepath.IsAbs(configValue) && configDir != "" {
			configValue = filepath.Join(configDir, configValue)
		}
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Abs(DefaultDatabaseFile)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
