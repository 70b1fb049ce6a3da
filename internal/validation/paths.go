// Package validation checks names received from the drive before they touch
// the local filesystem.
package validation

import (
	"fmt"
	"strings"
)

// ValidateFilename rejects drive item names that are unsafe to use as a local
// file name: empty, "." or "..", containing a path separator or a null byte.
// Names like "data..v2.csv" are allowed.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return fmt.Errorf("filename cannot be empty")
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename contains null byte: %q", filename)
	case strings.ContainsAny(filename, `/\`):
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	case filename == "." || filename == "..":
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}
