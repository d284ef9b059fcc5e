// Package xdg resolves XDG Base Directory paths for sqlagent.
// Config holds the non-secret settings file; state holds the encrypted key file
// used when no OS keychain is available.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "sqlagent"

// ConfigDir returns the XDG config directory for sqlagent.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/sqlagent when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for sqlagent.
// It falls back to ~/.local/state/sqlagent when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
