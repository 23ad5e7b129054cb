package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxComponentLength bounds any value that ends up inside a cache file name.
const maxComponentLength = 128

// validateComponent checks that s can be embedded in a single path segment.
// Every cache path is built by string concatenation, so a separator or a
// parent reference here would let one run write outside its cache entry.
func validateComponent(code Code, what, s string) error {
	if s == "" {
		return New(code, "%s cannot be empty", what)
	}

	if len(s) > maxComponentLength {
		return New(code, "%s too long (max %d characters)", what, maxComponentLength)
	}

	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(code, "%s contains invalid characters", what)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(s, pattern) {
			return New(code, "%s contains invalid characters: %q", what, pattern)
		}
	}

	return nil
}

// versionRegex matches release identifiers such as "7.0", "146", "v7-rc1".
var versionRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// ValidateVersion validates a release identifier before it is used to
// namespace cache paths.
func ValidateVersion(version string) error {
	if err := validateComponent(ErrCodeInvalidVersion, "version", version); err != nil {
		return err
	}

	if !versionRegex.MatchString(version) {
		return New(ErrCodeInvalidVersion, "invalid version: %q", version)
	}

	return nil
}

// ValidateName validates an artifact or mapping-set name (or mapping version).
// what is used in the error message, e.g. "mapping name".
func ValidateName(what, name string) error {
	return validateComponent(ErrCodeInvalidName, what, name)
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
