package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	pretty "github.com/jedib0t/go-pretty/v6/table"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/table"
)

// WriteTable renders a result table in the requested format.
func WriteTable(w io.Writer, tbl *table.Table, format string) error {
	switch format {
	case "json":
		return writeJSON(w, tbl)
	case "csv":
		return writeCSV(w, tbl)
	default:
		return writePretty(w, tbl)
	}
}

func writePretty(w io.Writer, tbl *table.Table) error {
	if tbl.NumRows() == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := pretty.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(pretty.StyleLight)

	cols := tbl.ColumnNames()
	header := make(pretty.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range tbl.Rows() {
		out := make(pretty.Row, len(row))
		for i, v := range row {
			out[i] = expr.Format(v)
		}
		t.AppendRow(out)
	}

	t.Render()
	return nil
}

// TableRows converts a result table to an ordered list of column-keyed
// maps, the payload shape for JSON output.
func TableRows(tbl *table.Table) []map[string]any {
	cols := tbl.ColumnNames()
	out := make([]map[string]any, 0, tbl.NumRows())
	for _, row := range tbl.Rows() {
		m := make(map[string]any, len(cols))
		for i, v := range row {
			m[cols[i]] = expr.Native(v)
		}
		out = append(out, m)
	}
	return out
}

func writeJSON(w io.Writer, tbl *table.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(TableRows(tbl))
}

func writeCSV(w io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.ColumnNames()); err != nil {
		return err
	}
	for _, row := range tbl.Rows() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = expr.Format(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
