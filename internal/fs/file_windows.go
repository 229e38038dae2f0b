package fs

import (
	"os"
	"path/filepath"
	"strings"
)

// fixpath returns an absolute path with the extended-length prefix, so long
// file names can be opened.
func fixpath(name string) string {
	abspath, err := filepath.Abs(name)
	if err != nil {
		return name
	}

	switch {
	case strings.HasPrefix(abspath, `\\?\`):
		return abspath
	case strings.HasPrefix(abspath, `\\`):
		// UNC path
		return `\\?\UNC\` + abspath[2:]
	default:
		return `\\?\` + abspath
	}
}

// Chmod changes the mode of the named file to mode.
func Chmod(name string, mode os.FileMode) error {
	return os.Chmod(fixpath(name), mode)
}
