package errors

import (
	"strings"
	"unicode"
)

const maxReferenceLength = 2048

// ValidateReference validates a nested-package reference or locator before it
// is resolved. It only rejects input that can never name a package:
//   - No empty references
//   - No control characters or null bytes
//   - Maximum length of 2048 characters
func ValidateReference(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return New(ErrCodeInvalidInput, "reference cannot be empty")
	}

	if len(ref) > maxReferenceLength {
		return New(ErrCodeInvalidInput, "reference too long (max %d characters)", maxReferenceLength)
	}

	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "reference contains invalid control characters")
		}
	}

	return nil
}

// ValidateMetadataFilename validates a metadata document filename.
// It ensures the filename is a simple basename without path components.
func ValidateMetadataFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "metadata filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidInput, "metadata filename cannot contain path separators")
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidInput, "metadata filename cannot be a directory reference")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
