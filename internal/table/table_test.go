package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/expr"
)

func TestTable_Basics(t *testing.T) {
	tbl := New("id", "year")
	tbl.MustAppendRow(expr.String("a"), expr.Int(1980))
	tbl.MustAppendRow(expr.String("b"), expr.Int(1990))

	assert.Equal(t, []string{"id", "year"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 1, tbl.ColumnIndex("year"))
	assert.Equal(t, -1, tbl.ColumnIndex("nope"))

	col, err := tbl.Column("year")
	require.NoError(t, err)
	assert.Equal(t, []expr.Value{expr.Int(1980), expr.Int(1990)}, col)

	_, err = tbl.Column("nope")
	assert.Error(t, err)

	err = tbl.AppendRow(expr.Int(1))
	assert.Error(t, err, "arity mismatch must be rejected")
}

func TestTable_Lookup(t *testing.T) {
	tbl := New("id", "year")
	tbl.MustAppendRow(expr.String("a"), expr.Int(1980))

	lookup := tbl.Lookup(0)
	v, ok := lookup("year")
	require.True(t, ok)
	assert.Equal(t, expr.Int(1980), v)

	_, ok = lookup("nope")
	assert.False(t, ok)
}

func TestEqual_NumericTolerance(t *testing.T) {
	a := New("x")
	a.MustAppendRow(expr.Int(1))
	b := New("x")
	b.MustAppendRow(expr.Float(1))

	assert.True(t, Equal(a, b))

	c := New("x")
	c.MustAppendRow(expr.Int(2))
	assert.False(t, Equal(a, c))
}

func TestFromCSV(t *testing.T) {
	src := "id,year,avg,active\naaron,1954,0.305,true\nruth,1914,0.342,false\nnobody,,,\n"
	tbl, err := FromCSV(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "year", "avg", "active"}, tbl.ColumnNames())
	require.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []expr.Value{
		expr.String("aaron"), expr.Int(1954), expr.Float(0.305), expr.Bool(true),
	}, tbl.Row(0))
	assert.Equal(t, []expr.Value{
		expr.String("nobody"), expr.Null{}, expr.Null{}, expr.Null{},
	}, tbl.Row(2))
}

func TestFromCSV_BadInput(t *testing.T) {
	_, err := FromCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestString_AlignsColumns(t *testing.T) {
	tbl := New("id", "year")
	tbl.MustAppendRow(expr.String("aaron"), expr.Int(1954))

	out := tbl.String()
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "aaron")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}
