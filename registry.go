package fragments

import (
	"fmt"
	"slices"
	"strings"
)

// Media types the service knows how to store.
const (
	TypeTextPlain    = "text/plain"
	TypeTextMarkdown = "text/markdown"
	TypeTextHTML     = "text/html"
	TypeTextCSV      = "text/csv"
	TypeJSON         = "application/json"
	TypeYAML         = "application/yaml"
)

// conversionMatrix maps a base type to the extensions it can be rendered as.
// The identity extension comes first.
var conversionMatrix = map[string][]string{
	TypeTextPlain:    {"txt"},
	TypeTextMarkdown: {"md", "html", "txt"},
	TypeTextHTML:     {"html", "txt"},
	TypeTextCSV:      {"csv", "txt"},
	TypeJSON:         {"json", "yaml", "txt"},
	TypeYAML:         {"yaml", "txt"},
}

var extensionTypes = map[string]string{
	"txt":  TypeTextPlain,
	"md":   TypeTextMarkdown,
	"html": TypeTextHTML,
	"csv":  TypeTextCSV,
	"json": TypeJSON,
	"yaml": TypeYAML,
	"yml":  TypeYAML,
}

// DefaultTypes is the default allow-list, in display order.
var DefaultTypes = []string{
	TypeTextPlain,
	TypeTextMarkdown,
	TypeTextHTML,
	TypeTextCSV,
	TypeJSON,
	TypeYAML,
}

// Registry is the content-type allow-list together with the conversion matrix restricted
// to it. It is immutable after construction and safe for concurrent use.
type Registry struct {
	types  []string
	matrix map[string][]string
}

// DefaultRegistry returns a Registry allowing every known type. It panics if
// DefaultTypes holds a type the conversion matrix does not know.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultTypes)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry returns a Registry that only accepts the given types. An empty list means
// every known type. Unknown or malformed entries are rejected with ErrInvalidInput.
func NewRegistry(allowed []string) (*Registry, error) {
	if len(allowed) == 0 {
		allowed = DefaultTypes
	}

	r := &Registry{matrix: make(map[string][]string, len(allowed))}
	for _, raw := range allowed {
		base, err := BaseType(raw)
		if err != nil {
			return nil, fmt.Errorf("new registry: %w", err)
		}

		exts, ok := conversionMatrix[base]
		if !ok {
			return nil, fmt.Errorf("new registry: %w: unknown type %q", ErrInvalidInput, raw)
		}

		if _, dup := r.matrix[base]; dup {
			continue
		}
		r.types = append(r.types, base)
		r.matrix[base] = exts
	}

	return r, nil
}

// Types returns the allowed base types.
func (r *Registry) Types() []string {
	return slices.Clone(r.types)
}

// IsSupportedType reports whether the base type of raw is allowed. Malformed values are
// simply unsupported.
func (r *Registry) IsSupportedType(raw string) bool {
	base, err := BaseType(raw)
	if err != nil {
		return false
	}
	_, ok := r.matrix[base]
	return ok
}

// AvailableFormats returns the base type of raw followed by every extension it can be
// rendered as. It returns nil for malformed or unsupported types.
func (r *Registry) AvailableFormats(raw string) []string {
	base, err := BaseType(raw)
	if err != nil {
		return nil
	}

	exts, ok := r.matrix[base]
	if !ok {
		return nil
	}

	return append([]string{base}, exts...)
}

// TargetType resolves the media type a fragment of type raw would be rendered as for ext.
// ext is any entry of AvailableFormats: an extension, or the base type itself. The
// boolean is false when the conversion is not in the matrix.
func (r *Registry) TargetType(raw, ext string) (string, bool) {
	base, err := BaseType(raw)
	if err != nil {
		return "", false
	}

	if _, ok := r.matrix[base]; ok && strings.EqualFold(strings.TrimSpace(ext), base) {
		return base, true
	}

	ext = normalizeExtension(ext)
	if !slices.Contains(r.matrix[base], ext) {
		return "", false
	}
	return extensionTypes[ext], true
}

// TypeForExtension maps a file extension to its media type.
func TypeForExtension(ext string) (string, bool) {
	t, ok := extensionTypes[normalizeExtension(ext)]
	return t, ok
}
