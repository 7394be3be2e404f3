package rendersql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/table"
)

// Render compiles and executes a pipeline against db, scanning the result
// into an in-memory table. Backend errors (connectivity, malformed SQL the
// database rejects) propagate wrapped but otherwise unchanged.
func Render(ctx context.Context, db *sql.DB, src *query.Source) (*table.Table, error) {
	stmt, params, err := Compile(src)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	out := table.New(cols...)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		vals := make([]expr.Value, len(cols))
		for i, r := range raw {
			v, err := expr.FromNative(r)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", cols[i], err)
			}
			vals[i] = v
		}
		if err := out.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
