package kv

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a backing table does not have the columns a
// SQL backend expects.
var ErrSchemaMismatch = errors.New("kv: schema mismatch")

// Column describes one column of a backing table as reported by the database catalog.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// CheckColumns compares the columns found in table against want. An empty got means
// the table does not exist. Every problem is reported, joined, and wraps
// ErrSchemaMismatch.
func CheckColumns(table string, want []Column, got map[string]Column) error {
	if len(got) == 0 {
		return fmt.Errorf("%w: table %s does not exist", ErrSchemaMismatch, table)
	}

	var problems []error
	for _, w := range want {
		g, ok := got[w.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Errorf("column %s missing", w.Name))
		case g.Type != w.Type:
			problems = append(problems, fmt.Errorf("column %s: type %s, want %s", w.Name, g.Type, w.Type))
		case g.Nullable != w.Nullable:
			problems = append(problems, fmt.Errorf("column %s: nullable=%t, want %t", w.Name, g.Nullable, w.Nullable))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: table %s: %w", ErrSchemaMismatch, table, errors.Join(problems...))
}
