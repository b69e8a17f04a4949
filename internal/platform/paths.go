package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath cleans a command-line path for the current platform,
// keeping the leading double separator of UNC paths
func NormalizePath(path string) string {
	if path == "" {
		return path
	}

	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if IsUNCPath(path) && !strings.HasPrefix(normalized, `\\`) {
		normalized = `\\` + strings.TrimLeft(normalized, `\`)
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
}
