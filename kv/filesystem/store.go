// Package filesystem provides a kv.Store that keeps every value in its own file.
// Writes are atomic (temp file plus rename) and each primary key directory carries
// an index file recording first-insert order.
package filesystem

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sagarc03/fragments/kv"
)

const orderFile = ".order"

// Store provides file system storage operations.
type Store struct {
	mu   sync.RWMutex
	root *os.Root
}

// New creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func New(root *os.Root) *Store {
	return &Store{root: root}
}

// Open opens dir (creating it if needed) and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open filesystem store: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open filesystem store: %w", err)
	}
	return New(root), nil
}

// Close releases the root directory handle.
func (s *Store) Close() error {
	return s.root.Close()
}

func partitionDir(primaryKey string) string {
	return kv.EncodeKey(primaryKey)
}

func valuePath(primaryKey, secondaryKey string) string {
	return path.Join(partitionDir(primaryKey), kv.EncodeKey(secondaryKey))
}

func (s *Store) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := partitionDir(primaryKey)
	if err := s.root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("put: could not create partition directory: %w", err)
	}

	target := valuePath(primaryKey, secondaryKey)
	_, statErr := s.root.Stat(target)
	isNew := errors.Is(statErr, os.ErrNotExist)
	if statErr != nil && !isNew {
		return fmt.Errorf("put: %w", statErr)
	}

	if err := s.writeAtomic(ctx, target, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	if !isNew {
		return nil
	}

	order, err := s.readOrder(dir)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	order = append(order, path.Base(target))
	if err := s.writeOrder(ctx, dir, order); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.readFile(valuePath(primaryKey, secondaryKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get: %w", err)
	}
	return value, true, nil
}

func (s *Store) Query(ctx context.Context, primaryKey string) ([][]byte, error) {
	if err := kv.ValidateKeys(primaryKey); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := partitionDir(primaryKey)
	order, err := s.readOrder(dir)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	values := make([][]byte, 0, len(order))
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, readErr := s.readFile(path.Join(dir, name))
		if readErr != nil {
			if errors.Is(readErr, os.ErrNotExist) {
				slog.Warn("index entry without value file", "partition", dir, "entry", name)
				continue
			}
			return nil, fmt.Errorf("query: %w", readErr)
		}
		values = append(values, value)
	}

	return values, nil
}

func (s *Store) Del(ctx context.Context, primaryKey, secondaryKey string) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := valuePath(primaryKey, secondaryKey)
	if err := s.root.Remove(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("del %s/%s: %w", primaryKey, secondaryKey, kv.ErrNotFound)
		}
		return fmt.Errorf("could not delete file: %w", err)
	}

	dir := partitionDir(primaryKey)
	order, err := s.readOrder(dir)
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}

	name := path.Base(target)
	order = slices.DeleteFunc(order, func(n string) bool { return n == name })
	if err := s.writeOrder(ctx, dir, order); err != nil {
		return fmt.Errorf("del: %w", err)
	}

	return nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	f, err := s.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", name, "err", closeErr)
		}
	}()

	value, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	return value, nil
}

func (s *Store) readOrder(dir string) ([]string, error) {
	f, err := s.root.Open(path.Join(dir, orderFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not open index: %w", err)
	}
	defer func() { _ = f.Close() }()

	var order []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			order = append(order, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read index: %w", err)
	}
	return order, nil
}

func (s *Store) writeOrder(ctx context.Context, dir string, order []string) error {
	var buf bytes.Buffer
	for _, name := range order {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return s.writeAtomic(ctx, path.Join(dir, orderFile), &buf)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// writeAtomic writes content to a temp file next to target and renames it into place.
func (s *Store) writeAtomic(ctx context.Context, target string, content io.Reader) error {
	tmpFile := path.Join(path.Dir(target), tmpFileName())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if err := t.Close(); err != nil {
		return fmt.Errorf("could not close written file: %w", err)
	}

	if err := s.root.Rename(tmpFile, target); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
