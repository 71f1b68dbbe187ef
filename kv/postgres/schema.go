package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/fragments/kv"
)

var storeColumns = []kv.Column{
	{Name: "seq", Type: "bigint"},
	{Name: "primary_key", Type: "text"},
	{Name: "secondary_key", Type: "text"},
	{Name: "value", Type: "bytea"},
	{Name: "created_at", Type: "timestamp with time zone"},
	{Name: "updated_at", Type: "timestamp with time zone"},
}

func validateSchema(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if err := kv.ValidateTableName(table); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := tableColumns(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := kv.CheckColumns(table, storeColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads the columns of table in the current schema from
// information_schema. A missing table yields no rows.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]kv.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]kv.Column)
	for rows.Next() {
		var (
			c        kv.Column
			nullable string
		)
		if err := rows.Scan(&c.Name, &c.Type, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Type = strings.ToLower(c.Type)
		c.Nullable = nullable == "YES"
		columns[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
