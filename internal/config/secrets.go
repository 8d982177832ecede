package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetSecret resolves a secret by name through three sources in order:
// the environment variable itself, a file named by <NAME>_FILE, and the
// conventional container secret path /run/secrets/<name lowercased>.
// Returns "" when no source yields a value.
func GetSecret(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if path := os.Getenv(name + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	secretPath := filepath.Join("/run/secrets", strings.ToLower(name))
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
