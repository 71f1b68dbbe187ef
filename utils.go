package fragments

import (
	"fmt"
	"mime"
	"strings"
)

// BaseType parses a Content-Type header value and returns the lowercase media type
// with parameters stripped. Malformed values return an ErrInvalidInput error.
func BaseType(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("parse content type: %w: empty", ErrInvalidInput)
	}

	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", fmt.Errorf("parse content type %q: %w: %w", raw, ErrInvalidInput, err)
	}

	if !strings.Contains(mediaType, "/") {
		return "", fmt.Errorf("parse content type %q: %w: missing subtype", raw, ErrInvalidInput)
	}

	return strings.ToLower(mediaType), nil
}

// normalizeExtension lowercases ext, strips a leading dot and folds aliases.
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "yml" {
		return "yaml"
	}
	return ext
}
