package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/table"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixture() *table.Table {
	tbl := table.New("id", "year", "avg")
	tbl.MustAppendRow(expr.String("aaron"), expr.Int(1954), expr.Float(0.280))
	tbl.MustAppendRow(expr.String("ruth"), expr.Int(1914), expr.Float(0.315))
	return tbl
}

func TestLoadAndIntrospect(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, "players", fixture()))

	base, err := s.Table(ctx, "players")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "year", "avg"}, base.ColumnNames())
	assert.Equal(t, "players", base.TableName())

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM players").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestTable_Missing(t *testing.T) {
	s := openTest(t)
	_, err := s.Table(context.Background(), "nope")
	assert.ErrorContains(t, err, "no such table")
}

func TestLoad_EmptyColumns(t *testing.T) {
	s := openTest(t)
	err := s.Load(context.Background(), "empty", table.New())
	assert.Error(t, err)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open("/nonexistent-dir/db.sqlite")
	assert.Error(t, err)
}
