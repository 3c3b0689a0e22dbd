//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

func appSupportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Library", "Application Support", "folio")
	}
	return "folio-data"
}

func defaultDataDir() string {
	return appSupportDir()
}

// XDG_CONFIG_HOME still wins on macOS so tests and dotfile setups behave
// the same as on Linux.
func configFilePath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "folio", "config.json")
	}
	return filepath.Join(appSupportDir(), "config.json")
}
