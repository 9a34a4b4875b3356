package model

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}
	return path
}

// HasScheme reports whether path looks like a URL (sftp://, s3://, ...)
// rather than a local filesystem path.
func HasScheme(path string) bool {
	idx := strings.Index(path, "://")
	if idx <= 0 {
		return false
	}
	// A Windows drive letter ("C:\...") never contains "://".
	for _, r := range path[:idx] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}
