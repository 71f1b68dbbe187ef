// Package sqlite implements kv.Store on SQLite using modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/fragments/kv"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a kv.Store persisted in a single SQLite table.
type Store struct {
	db    *sql.DB
	table string
}

// Connect opens the SQLite database at dsn and returns a Store using table.
// The pool is limited to one connection: SQLite serializes writers anyway and an
// in-memory DSN would otherwise give every connection its own database.
func Connect(ctx context.Context, dsn, table string) (*Store, error) {
	if err := kv.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db, table: table}, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the store table and its indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, s.db, s.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the table matches the expected schema.
func (s *Store) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, s.db, s.table)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
