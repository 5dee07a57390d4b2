package config

import (
	"os"
	"strings"
)

// ResolveSecret expands the env: and file: indirections used by token
// and credential values so real secrets stay out of the YAML. Anything
// else is returned trimmed, and a missing source resolves to "" which
// callers treat as unset.
func ResolveSecret(value string) string {
	value = strings.TrimSpace(value)
	if name, ok := strings.CutPrefix(value, "env:"); ok {
		return os.Getenv(name)
	}
	if path, ok := strings.CutPrefix(value, "file:"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	return value
}
