package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns ~/.config/chatui, the home for settings and chatbot
// definitions. os.UserHomeDir covers the platform differences; an empty
// result falls back to the current directory so Load still works in
// stripped-down environments.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".config", "chatui")
}

func SettingsPath() string { return filepath.Join(ConfigDir(), "settings.toml") }
func ChatbotsPath() string { return filepath.Join(ConfigDir(), "chatbots.toml") }

// ExpandPath resolves a leading ~/ and any environment variables, then
// cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			path = filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
