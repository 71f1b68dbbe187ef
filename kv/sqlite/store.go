package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/fragments/kv"
)

func (s *Store) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (primary_key, secondary_key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (primary_key, secondary_key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at`, quoteIdentifier(s.table))

	if _, err := s.db.ExecContext(ctx, query, primaryKey, secondaryKey, value, now, now); err != nil {
		return fmt.Errorf("put: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT value FROM %s WHERE primary_key = ? AND secondary_key = ?`, quoteIdentifier(s.table))

	var value []byte
	err := s.db.QueryRowContext(ctx, query, primaryKey, secondaryKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get: %w", err)
	}

	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (s *Store) Query(ctx context.Context, primaryKey string) ([][]byte, error) {
	if err := kv.ValidateKeys(primaryKey); err != nil {
		return nil, err
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT value FROM %s WHERE primary_key = ? ORDER BY seq`, quoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make([][]byte, 0)
	for rows.Next() {
		var value []byte
		if scanErr := rows.Scan(&value); scanErr != nil {
			return nil, fmt.Errorf("query: scan: %w", scanErr)
		}
		if value == nil {
			value = []byte{}
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: rows: %w", err)
	}

	return values, nil
}

func (s *Store) Del(ctx context.Context, primaryKey, secondaryKey string) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE primary_key = ? AND secondary_key = ?`, quoteIdentifier(s.table))

	result, err := s.db.ExecContext(ctx, query, primaryKey, secondaryKey)
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("del: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("del: %w", kv.ErrNotFound)
	}

	return nil
}
