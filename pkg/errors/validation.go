package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds layout names used as file names and store keys.
const maxNameLength = 128

// ValidateLayoutName validates the name a position map is stored under.
// Names become file names in the file store, so anything that could escape
// the store directory is rejected.
func ValidateLayoutName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "layout name cannot be empty")
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "layout name too long (max %d characters)", maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "layout name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "layout name contains invalid characters: %q", pattern)
		}
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "layout name cannot start with a dot")
	}
	return nil
}
