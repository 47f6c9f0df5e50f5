// Package security validates user-supplied artwork URLs and plugin paths
// before posterhue fetches or executes them.
package security

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ValidateImageURL checks that an artwork URL uses HTTP(S), names a host
// and carries no credentials.
func ValidateImageURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("invalid URL protocol (only http:// and https:// allowed): %s", scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if parsed.User != nil {
		return fmt.Errorf("URL must not embed credentials")
	}

	return nil
}

// ValidatePluginPath checks that a plugin path names an executable regular
// file. Relative paths are resolved against the working directory.
func ValidatePluginPath(pluginPath string) error {
	if pluginPath == "" {
		return fmt.Errorf("empty plugin path")
	}

	absPath, err := filepath.Abs(filepath.Clean(pluginPath))
	if err != nil {
		return fmt.Errorf("invalid plugin path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("plugin not found: %s", pluginPath)
		}
		return fmt.Errorf("failed to stat plugin: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("plugin is not a regular file: %s", pluginPath)
	}

	// Windows has no executable bit.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("plugin is not executable: %s", pluginPath)
	}

	return nil
}
