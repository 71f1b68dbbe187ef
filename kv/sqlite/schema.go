package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/fragments/kv"
)

var storeColumns = []kv.Column{
	{Name: "seq", Type: "integer"},
	{Name: "primary_key", Type: "text"},
	{Name: "secondary_key", Type: "text"},
	{Name: "value", Type: "blob"},
	{Name: "created_at", Type: "text"},
	{Name: "updated_at", Type: "text"},
}

// ValidateSchema checks that table exists and has the columns Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, table string) error {
	if err := kv.ValidateTableName(table); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	got, err := tableColumns(ctx, db, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := kv.CheckColumns(table, storeColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads the column list from pragma_table_info. A missing table yields
// no rows.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]kv.Column, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]kv.Column)
	for rows.Next() {
		var (
			c       kv.Column
			notNull int
		)
		if err := rows.Scan(&c.Name, &c.Type, &notNull); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Type = strings.ToLower(c.Type)
		c.Nullable = notNull == 0
		columns[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
