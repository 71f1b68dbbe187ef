package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sagarc03/fragments/kv"
)

func (s *Store) Put(ctx context.Context, primaryKey, secondaryKey string, value []byte) error {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (primary_key, secondary_key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (primary_key, secondary_key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = NOW()
	`, pgx.Identifier{s.table}.Sanitize())

	if _, err := s.pool.Exec(ctx, query, primaryKey, secondaryKey, value); err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, primaryKey, secondaryKey string) ([]byte, bool, error) {
	if err := kv.ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE primary_key = $1 AND secondary_key = $2
	`, pgx.Identifier{s.table}.Sanitize())

	var value []byte
	err := s.pool.QueryRow(ctx, query, primaryKey, secondaryKey).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE primary_key = $1
		ORDER BY seq
	`, pgx.Identifier{s.table}.Sanitize())

	rows, err := s.pool.Query(ctx, query, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

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

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE primary_key = $1 AND secondary_key = $2
	`, pgx.Identifier{s.table}.Sanitize())

	result, err := s.pool.Exec(ctx, query, primaryKey, secondaryKey)
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("del: %w", kv.ErrNotFound)
	}

	return nil
}
