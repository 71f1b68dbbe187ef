// Package memory provides an in-process kv.Store backed by maps.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sagarc03/fragments/kv"
)

type partition struct {
	values map[string][]byte
	order  []string
}

// Store is an in-memory kv.Store. The zero value is not usable; use New.
type Store struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{partitions: make(map[string]*partition)}
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

	p, ok := s.partitions[primaryKey]
	if !ok {
		p = &partition{values: make(map[string][]byte)}
		s.partitions[primaryKey] = p
	}

	if _, exists := p.values[secondaryKey]; !exists {
		p.order = append(p.order, secondaryKey)
	}
	p.values[secondaryKey] = bytes.Clone(value)
	if p.values[secondaryKey] == nil {
		p.values[secondaryKey] = []byte{}
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

	p, ok := s.partitions[primaryKey]
	if !ok {
		return nil, false, nil
	}

	value, ok := p.values[secondaryKey]
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(value), true, nil
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

	p, ok := s.partitions[primaryKey]
	if !ok {
		return [][]byte{}, nil
	}

	values := make([][]byte, 0, len(p.order))
	for _, key := range p.order {
		values = append(values, bytes.Clone(p.values[key]))
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

	p, ok := s.partitions[primaryKey]
	if !ok {
		return fmt.Errorf("del %s/%s: %w", primaryKey, secondaryKey, kv.ErrNotFound)
	}

	if _, exists := p.values[secondaryKey]; !exists {
		return fmt.Errorf("del %s/%s: %w", primaryKey, secondaryKey, kv.ErrNotFound)
	}

	delete(p.values, secondaryKey)
	p.order = slices.DeleteFunc(p.order, func(k string) bool { return k == secondaryKey })

	if len(p.values) == 0 {
		delete(s.partitions, primaryKey)
	}

	return nil
}
