package kv_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments/kv"
)

func TestValidateKeys(t *testing.T) {
	assert.NoError(t, kv.ValidateKeys("owner", "id"))
	assert.NoError(t, kv.ValidateKeys("owner"))

	err := kv.ValidateKeys("", "id")
	assert.ErrorIs(t, err, kv.ErrInvalidKey)
	assert.ErrorContains(t, err, "primary key")

	err = kv.ValidateKeys("owner", "")
	assert.ErrorIs(t, err, kv.ErrInvalidKey)
	assert.ErrorContains(t, err, "secondary key")
}

func TestEncodeKey(t *testing.T) {
	assert.Equal(t, "6f776e6572", kv.EncodeKey("owner"))
	assert.Equal(t, strings.Repeat("61", 64), kv.EncodeKey(strings.Repeat("a", 64)))

	long := kv.EncodeKey(strings.Repeat("a", 65))
	assert.Len(t, long, 65)
	assert.True(t, strings.HasPrefix(long, "h"))
	assert.NotEqual(t, long, kv.EncodeKey(strings.Repeat("a", 66)))
	assert.Equal(t, long, kv.EncodeKey(strings.Repeat("a", 65)))
}

func TestIsValidTableName(t *testing.T) {
	tt := []struct {
		Name  string
		Table string
		Want  bool
	}{
		{Name: "simple", Table: "fragments_metadata", Want: true},
		{Name: "leading underscore", Table: "_kv", Want: true},
		{Name: "digits", Table: "kv2", Want: true},
		{Name: "empty", Table: "", Want: false},
		{Name: "uppercase", Table: "Fragments", Want: false},
		{Name: "leading digit", Table: "2kv", Want: false},
		{Name: "dash", Table: "kv-data", Want: false},
		{Name: "injection", Table: "kv; DROP TABLE x", Want: false},
		{Name: "max length", Table: strings.Repeat("a", 63), Want: true},
		{Name: "too long", Table: strings.Repeat("a", 64), Want: false},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, kv.IsValidTableName(tc.Table))
		})
	}

	assert.ErrorContains(t, kv.ValidateTableName(""), "cannot be empty")
	assert.ErrorContains(t, kv.ValidateTableName("Bad"), "invalid table name")
}

func TestCheckColumns(t *testing.T) {
	want := []kv.Column{
		{Name: "primary_key", Type: "text"},
		{Name: "value", Type: "blob"},
	}

	t.Run("match", func(t *testing.T) {
		got := map[string]kv.Column{
			"primary_key": {Name: "primary_key", Type: "text"},
			"value":       {Name: "value", Type: "blob"},
			"extra":       {Name: "extra", Type: "text", Nullable: true},
		}
		assert.NoError(t, kv.CheckColumns("kv", want, got))
	})

	t.Run("missing table", func(t *testing.T) {
		err := kv.CheckColumns("kv", want, nil)
		assert.ErrorIs(t, err, kv.ErrSchemaMismatch)
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("every problem reported", func(t *testing.T) {
		got := map[string]kv.Column{
			"primary_key": {Name: "primary_key", Type: "text", Nullable: true},
		}
		err := kv.CheckColumns("kv", want, got)
		require.ErrorIs(t, err, kv.ErrSchemaMismatch)
		assert.ErrorContains(t, err, "column primary_key: nullable=true, want false")
		assert.ErrorContains(t, err, "column value missing")
	})

	t.Run("type drift", func(t *testing.T) {
		got := map[string]kv.Column{
			"primary_key": {Name: "primary_key", Type: "varchar"},
			"value":       {Name: "value", Type: "blob"},
		}
		assert.ErrorContains(t, kv.CheckColumns("kv", want, got), "type varchar, want text")
	})
}
