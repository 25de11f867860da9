// Package paths resolves where ogsm keeps its config.yaml and its store.
//
// The config directory resolves flag > OGSM_CONFIG_DIR > platform default.
// The data directory resolves flag > config.yaml store.data_dir >
// OGSM_DATA_DIR > ./.ogsm-db in the working directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "ogsm"

// Working-directory-relative names.
const (
	DefaultConfigDirName = ".ogsm"
	DefaultDataDirName   = ".ogsm-db"
	ConfigFileName       = "config.yaml"
)

// Environment overrides.
const (
	EnvConfigDir = "OGSM_CONFIG_DIR"
	EnvDataDir   = "OGSM_DATA_DIR"
)

// platformDir is swapped in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/ogsm (or ~/.config/ogsm) on
// Linux and os.UserConfigDir()/ogsm elsewhere.
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns $XDG_DATA_HOME/ogsm (or ~/.local/share/ogsm) on
// Linux and os.UserConfigDir()/ogsm elsewhere.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDir), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appDir), nil
}

// ResolveConfigDir returns an absolute config directory.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns an absolute data directory. configValue is the
// store.data_dir value read from config.yaml, if any.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile is the config.yaml path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
