package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Basic verifies HTTP Basic credentials against bcrypt hashes.
type Basic struct {
	users map[string][]byte
}

// NewBasic returns a Basic resolver for the given user to bcrypt hash mapping.
func NewBasic(users map[string][]byte) *Basic {
	return &Basic{users: users}
}

// LoadHtpasswd reads an htpasswd file. Only bcrypt entries ($2a$, $2b$, $2y$) are
// accepted; other hash formats are rejected so they cannot silently lock users out.
func LoadHtpasswd(path string) (map[string][]byte, error) {
	f, err := os.Open(path) //nolint:gosec // Path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("read htpasswd: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseHtpasswd(f)
}

// ParseHtpasswd parses htpasswd lines of the form user:hash. Blank lines and lines
// starting with # are skipped.
func ParseHtpasswd(r io.Reader) (map[string][]byte, error) {
	users := make(map[string][]byte)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		user, hash, ok := strings.Cut(line, ":")
		if !ok || user == "" || hash == "" {
			return nil, fmt.Errorf("parse htpasswd: line %d: expected user:hash", lineNo)
		}

		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("parse htpasswd: line %d: user %s: not a bcrypt hash: %w", lineNo, user, err)
		}

		users[user] = []byte(hash)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse htpasswd: %w", err)
	}

	return users, nil
}

func (b *Basic) Resolve(r *http.Request) (string, error) {
	user, password, ok := r.BasicAuth()
	if !ok {
		return "", fmt.Errorf("missing basic credentials: %w", ErrUnauthorized)
	}

	hash, found := b.users[user]
	if !found {
		return "", fmt.Errorf("unknown user: %w", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", fmt.Errorf("password mismatch: %w", ErrUnauthorized)
		}
		return "", fmt.Errorf("verify password: %w: %w", ErrUnauthorized, err)
	}

	return user, nil
}
