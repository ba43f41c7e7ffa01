// Package filex resolves filesystem locations for locally persisted
// client data (the message mirror, cached session token).
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir returns the directory that holds the client's local data,
// creating it if needed. The directory lives under the user config dir
// (e.g. ~/.config/<appName>); if that cannot be resolved, a subdirectory
// of the current working directory is used instead.
func EnsureDataDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
	}

	dir := filepath.Join(base, appName)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
