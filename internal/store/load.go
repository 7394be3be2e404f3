package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/table"
)

// Load creates a SQL table from an in-memory table and inserts its rows.
// Column affinity is sniffed from the first non-null value of each column;
// columns that never carry a value default to TEXT. Used by tests, the
// harness, and the CLI to seed fixture data.
func (s *Store) Load(ctx context.Context, name string, t *table.Table) error {
	cols := t.ColumnNames()
	if len(cols) == 0 {
		return fmt.Errorf("load %s: table has no columns", name)
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%q %s", c, affinity(t, i))
	}
	ddl := fmt.Sprintf("CREATE TABLE %q (%s)", name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", name, placeholders)
	for i := 0; i < t.NumRows(); i++ {
		args := make([]any, len(cols))
		for j, v := range t.Row(i) {
			args[j] = expr.Native(v)
		}
		if _, err := s.db.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return nil
}

func affinity(t *table.Table, col int) string {
	for i := 0; i < t.NumRows(); i++ {
		switch t.Row(i)[col].(type) {
		case expr.Null:
			continue
		case expr.Int, expr.Bool:
			return "INTEGER"
		case expr.Float:
			return "REAL"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}
