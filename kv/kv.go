package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Del when the key pair does not exist.
	ErrNotFound = errors.New("kv: not found")
	// ErrInvalidKey is returned when a primary or secondary key is empty.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Store is a two-level associative store keyed by (primaryKey, secondaryKey).
//
// Implementations must be safe for concurrent use. Concurrent Put and Del calls on the
// same pair serialize (last writer wins); calls on different pairs must not observe
// each other's partial writes.
type Store interface {
	// Put stores value under the pair, overwriting any previous value. Overwriting keeps
	// the entry's original position in Query results.
	//
	// Returns ErrInvalidKey if either key is empty.
	Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error

	// Get returns the value stored under the pair. The boolean is false when the pair is
	// absent; absence is not an error. An unknown primary key and an unknown secondary key
	// are indistinguishable.
	//
	// Returns ErrInvalidKey if either key is empty.
	Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error)

	// Query returns every value stored under primaryKey, in the order the secondary keys
	// were first put. An unused primary key yields an empty slice and no error.
	//
	// Returns ErrInvalidKey if primaryKey is empty.
	Query(ctx context.Context, primaryKey string) ([][]byte, error)

	// Del removes the pair.
	//
	// Returns ErrNotFound if the pair does not exist and ErrInvalidKey if either key is
	// empty.
	Del(ctx context.Context, primaryKey, secondaryKey string) error
}

// ValidateKeys checks that every key is non-empty.
func ValidateKeys(keys ...string) error {
	for i, k := range keys {
		if k == "" {
			if i == 0 {
				return fmt.Errorf("%w: primary key cannot be empty", ErrInvalidKey)
			}
			return fmt.Errorf("%w: secondary key cannot be empty", ErrInvalidKey)
		}
	}
	return nil
}

// maxHexKeyLen is the longest key EncodeKey spells out in hex. Its hex form stays
// well under the 255-byte file name limit of common file systems.
const maxHexKeyLen = 64

// EncodeKey maps key to a name safe for a single path segment or object key element.
// Keys up to 64 bytes are hex encoded; longer keys become "h" followed by the hex
// SHA-256 of the key. The two forms never collide because hex output has no 'h'.
func EncodeKey(key string) string {
	if len(key) <= maxHexKeyLen {
		return hex.EncodeToString([]byte(key))
	}
	sum := sha256.Sum256([]byte(key))
	return "h" + hex.EncodeToString(sum[:])
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// ValidateTableName returns an error if name is not a valid table name.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.New("validate table: table name cannot be empty")
	}

	if !IsValidTableName(name) {
		return fmt.Errorf("validate table: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
	}

	return nil
}
