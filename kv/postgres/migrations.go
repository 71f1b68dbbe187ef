package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createStoreTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	uniquePair := pgx.Identifier{fmt.Sprintf("uq_%s_pair", tableName)}.Sanitize()
	indexPartition := pgx.Identifier{fmt.Sprintf("idx_%s_partition", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			primary_key TEXT NOT NULL,
			secondary_key TEXT NOT NULL,
			value BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT %s UNIQUE (primary_key, secondary_key)
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (primary_key, seq);
	`,
		quotedTable, uniquePair,
		indexPartition, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create store table: %w", err)
	}
	return nil
}

// DropTable removes the store table for tableName.
func DropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop store table: %w", err)
	}
	return nil
}
