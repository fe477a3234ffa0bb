package errors

import (
	"strings"
	"unicode"
)

// maxPathLength bounds virtual paths handed to the scanner.
const maxPathLength = 4096

// ValidatePath validates a virtual file path as used in a scan file map.
//
// Virtual paths are slash-separated and relative to the project root:
//   - Non-empty and at most 4096 bytes
//   - No null bytes or control characters
//   - No absolute paths
//   - No ".." path elements
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d bytes)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	for _, elem := range strings.Split(path, "/") {
		if elem == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain traversal elements (..)")
		}
	}
	return nil
}

// ValidateURL validates a probe or registry URL.
// Only http and https schemes are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
