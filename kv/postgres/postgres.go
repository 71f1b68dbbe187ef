// Package postgres implements kv.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/fragments/kv"
)

// Store is a kv.Store persisted in a single PostgreSQL table.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// Connect establishes a connection pool to PostgreSQL and returns a Store using table.
func Connect(ctx context.Context, dsn, table string) (*Store, error) {
	if err := kv.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Store{pool: pool, table: table}, nil
}

// New wraps an existing pool. The caller keeps ownership of the pool.
func New(pool *pgxpool.Pool, table string) (*Store, error) {
	if err := kv.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate runs database migrations to create the store table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := createStoreTable(ctx, s.pool, s.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the table matches the expected schema.
func (s *Store) Validate(ctx context.Context) error {
	return validateSchema(ctx, s.pool, s.table)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
