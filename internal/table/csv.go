package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/roach88/sift/internal/expr"
)

// FromCSV reads a table from CSV with a header row. Cell values are sniffed
// per cell: integers, then floats, then booleans, with everything else kept
// as text. Empty cells become Null.
func FromCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	t := New(header...)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make([]expr.Value, len(record))
		for i, cell := range record {
			row[i] = sniff(cell)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadCSV reads a table from a CSV file on disk.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return FromCSV(f)
}

func sniff(cell string) expr.Value {
	if cell == "" {
		return expr.Null{}
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return expr.Int(n)
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return expr.Float(f)
	}
	if cell == "true" || cell == "false" {
		return expr.Bool(cell == "true")
	}
	return expr.String(cell)
}
