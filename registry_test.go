package fragments_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments"
)

func TestRegistry_IsSupportedType(t *testing.T) {
	r := fragments.DefaultRegistry()

	tests := []struct {
		raw  string
		want bool
	}{
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"TEXT/Markdown", true},
		{"text/html", true},
		{"text/csv", true},
		{"application/json", true},
		{"application/yaml", true},
		{"application/msword", false},
		{"image/png", false},
		{"", false},
		{"not a type", false},
		{"text/plain; charset", false},
		{";;;", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsSupportedType(tt.raw))
		})
	}
}

func TestRegistry_AvailableFormats(t *testing.T) {
	r := fragments.DefaultRegistry()

	tests := []struct {
		raw  string
		want []string
	}{
		{"text/plain", []string{"text/plain", "txt"}},
		{"text/markdown; charset=utf-8", []string{"text/markdown", "md", "html", "txt"}},
		{"text/html", []string{"text/html", "html", "txt"}},
		{"text/csv", []string{"text/csv", "csv", "txt"}},
		{"application/json", []string{"application/json", "json", "yaml", "txt"}},
		{"application/yaml", []string{"application/yaml", "yaml", "txt"}},
		{"application/msword", nil},
		{"garbage", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, r.AvailableFormats(tt.raw))
		})
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("restricts the allow-list", func(t *testing.T) {
		r, err := fragments.NewRegistry([]string{"text/plain", "text/markdown"})
		require.NoError(t, err)

		assert.True(t, r.IsSupportedType("text/plain"))
		assert.True(t, r.IsSupportedType("text/markdown"))
		assert.False(t, r.IsSupportedType("application/json"))
		assert.Equal(t, []string{"text/plain", "text/markdown"}, r.Types())
	})

	t.Run("empty list allows every known type", func(t *testing.T) {
		r, err := fragments.NewRegistry(nil)
		require.NoError(t, err)
		assert.Equal(t, fragments.DefaultTypes, r.Types())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		r, err := fragments.NewRegistry([]string{"text/plain", "TEXT/PLAIN; charset=utf-8"})
		require.NoError(t, err)
		assert.Equal(t, []string{"text/plain"}, r.Types())
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := fragments.NewRegistry([]string{"text/plain", "image/png"})
		assert.ErrorIs(t, err, fragments.ErrInvalidInput)
	})

	t.Run("malformed type is rejected", func(t *testing.T) {
		_, err := fragments.NewRegistry([]string{"///"})
		assert.ErrorIs(t, err, fragments.ErrInvalidInput)
	})
}

func TestRegistry_TargetType(t *testing.T) {
	r := fragments.DefaultRegistry()

	tests := []struct {
		raw    string
		ext    string
		want   string
		wantOK bool
	}{
		{"text/markdown", "html", "text/html", true},
		{"text/markdown", ".MD", "text/markdown", true},
		{"text/markdown", "text/markdown", "text/markdown", true},
		{"text/markdown; charset=utf-8", "TEXT/MARKDOWN", "text/markdown", true},
		{"application/json", "yml", "application/yaml", true},
		{"text/markdown", "text/html", "", false},
		{"text/plain", "html", "", false},
		{"application/msword", "application/msword", "", false},
		{"garbage", "txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw+">"+tt.ext, func(t *testing.T) {
			got, ok := r.TargetType(tt.raw, tt.ext)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultRegistry_AllowsEveryDefaultType(t *testing.T) {
	assert.NotPanics(t, func() { fragments.DefaultRegistry() })
	assert.Equal(t, fragments.DefaultTypes, fragments.DefaultRegistry().Types())
}

func TestTypeForExtension(t *testing.T) {
	tests := []struct {
		ext    string
		want   string
		wantOK bool
	}{
		{"txt", "text/plain", true},
		{".md", "text/markdown", true},
		{"HTML", "text/html", true},
		{"yml", "application/yaml", true},
		{"yaml", "application/yaml", true},
		{"pdf", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := fragments.TypeForExtension(tt.ext)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
