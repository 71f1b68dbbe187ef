package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Migrate creates the key/value table for tableName.
func Migrate(ctx context.Context, db *sql.DB, tableName string) error {
	if err := createTable(ctx, db, tableName); err != nil {
		return fmt.Errorf("migrate up %s: %w", tableName, err)
	}
	return nil
}

// DropTable removes the key/value table for tableName.
func DropTable(ctx context.Context, db *sql.DB, tableName string) error {
	dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("migrate down %s: %w", tableName, err)
	}
	return nil
}

func createTable(ctx context.Context, db *sql.DB, tableName string) error {
	quotedTable := quoteIdentifier(tableName)
	indexPartition := quoteIdentifier(fmt.Sprintf("idx_%s_partition", tableName))

	// seq records first-insert order; upserts leave it untouched.
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			primary_key TEXT NOT NULL,
			secondary_key TEXT NOT NULL,
			value BLOB NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (primary_key, secondary_key)
		)
	`, quotedTable)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	indexSQL := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s ON %s (primary_key, seq)
	`, indexPartition, quotedTable)

	if _, err := db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("create index partition: %w", err)
	}

	return nil
}
