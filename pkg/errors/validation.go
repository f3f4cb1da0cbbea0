package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// typeNameRegex matches widget namespace and type names.
var typeNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateTypeName validates a widget namespace or type name. Names end up
// in markup attributes and info arrays, so they are restricted to
// identifiers.
func ValidateTypeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "type name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "type name too long (max 128 characters)")
	}
	if !typeNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid type name: %q", name)
	}
	return nil
}

// ValidateKey validates a widget key.
//
// Keys are free-form but must not contain control characters or the
// separators used by packed strings (';' and '|').
func ValidateKey(key string) error {
	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "key too long (max 256 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "key contains invalid control characters")
		}
	}
	if strings.ContainsAny(key, ";|") {
		return New(ErrCodeInvalidInput, "key contains reserved separator: %q", key)
	}
	return nil
}

// ValidateURL validates an asset URL.
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
