// Package table provides the in-memory tabular base source used by the
// row-wise backend, the scenario harness, and the CLI.
package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sift/internal/expr"
)

// Table is a column-ordered, row-major table of scalar values. It satisfies
// the query algebra's Base contract (ColumnNames) and is the concrete result
// type both backends produce.
type Table struct {
	cols []string
	rows [][]expr.Value
}

// New creates a table with the given column names and no rows.
func New(cols ...string) *Table {
	return &Table{cols: slices.Clone(cols)}
}

// ColumnNames returns the ordered column-name list.
func (t *Table) ColumnNames() []string { return slices.Clone(t.cols) }

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the i-th row. The returned slice is shared; callers must not
// modify it.
func (t *Table) Row(i int) []expr.Value { return t.rows[i] }

// Rows returns all rows. Shared, read-only by convention.
func (t *Table) Rows() [][]expr.Value { return t.rows }

// AppendRow adds a row. The value count must match the column count.
func (t *Table) AppendRow(vals ...expr.Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, slices.Clone(vals))
	return nil
}

// MustAppendRow is AppendRow for fixtures with known-good input.
// Panics on arity mismatch.
func (t *Table) MustAppendRow(vals ...expr.Value) {
	if err := t.AppendRow(vals...); err != nil {
		panic(err)
	}
}

// ColumnIndex returns the position of a column name, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.cols, name)
}

// Column returns all values of a named column in row order.
func (t *Table) Column(name string) ([]expr.Value, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]expr.Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Lookup returns a row-value lookup function for the i-th row, keyed by
// column name.
func (t *Table) Lookup(i int) func(string) (expr.Value, bool) {
	row := t.rows[i]
	return func(name string) (expr.Value, bool) {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, false
		}
		return row[idx], true
	}
}

// String renders the table as aligned text, one line per row, for
// diagnostics and test failure output.
func (t *Table) String() string {
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = len(c)
	}
	formatted := make([][]string, len(t.rows))
	for r, row := range t.rows {
		formatted[r] = make([]string, len(row))
		for i, v := range row {
			s := expr.Format(v)
			formatted[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	var b strings.Builder
	for i, c := range t.cols {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%-*s", widths[i], c)
	}
	b.WriteByte('\n')
	for _, row := range formatted {
		for i, s := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], s)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Equal reports whether two tables have identical columns and rows.
// Numeric values compare numerically, so Int(1) matches Float(1).
func Equal(a, b *Table) bool {
	if !slices.Equal(a.cols, b.cols) || len(a.rows) != len(b.rows) {
		return false
	}
	for i, row := range a.rows {
		for j, v := range row {
			if !expr.Equal(v, b.rows[i][j]) {
				return false
			}
		}
	}
	return true
}
