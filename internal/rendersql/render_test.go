package rendersql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/table"
)

// loadPlayers opens an in-memory database, loads the fixture, and returns
// the pipeline base plus the connection.
func loadPlayers(t *testing.T) (*store.Store, *store.SQLTable) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tbl := table.New("id", "year", "g", "rbi")
	tbl.MustAppendRow(expr.String("aaron"), expr.Int(1954), expr.Int(122), expr.Int(69))
	tbl.MustAppendRow(expr.String("bonds"), expr.Int(1986), expr.Int(113), expr.Int(48))
	tbl.MustAppendRow(expr.String("ruth"), expr.Int(1914), expr.Int(5), expr.Int(2))
	require.NoError(t, s.Load(ctx, "players", tbl))

	base, err := s.Table(ctx, "players")
	require.NoError(t, err)
	return s, base
}

func TestRender_FilterSummarise(t *testing.T) {
	s, base := loadPlayers(t)

	src, err := query.New(base).Filter(nil, expr.MustParse("year > 1950"))
	require.NoError(t, err)
	src, err = src.GroupBy(nil, expr.MustParse("id"))
	require.NoError(t, err)
	src, err = src.Summarise(nil, query.NamedExpr{Name: "g", Expr: expr.MustParse("mean(g)")})
	require.NoError(t, err)
	src, err = src.Arrange(nil, query.Asc(expr.MustParse("id")))
	require.NoError(t, err)

	got, err := Render(context.Background(), s.DB(), src)
	require.NoError(t, err)

	want := table.New("id", "g")
	want.MustAppendRow(expr.String("aaron"), expr.Float(122))
	want.MustAppendRow(expr.String("bonds"), expr.Float(113))
	assert.True(t, table.Equal(want, got), "got:\n%s", got)
}

func TestRender_MutateSelectArrange(t *testing.T) {
	s, base := loadPlayers(t)

	src, err := query.New(base).Mutate(nil, query.NamedExpr{Name: "g2", Expr: expr.MustParse("g * 2")})
	require.NoError(t, err)
	src, err = src.Select(nil, expr.MustParse("id"), expr.MustParse("g2"))
	require.NoError(t, err)
	src, err = src.Arrange(nil, query.Desc(expr.MustParse("g2")))
	require.NoError(t, err)

	got, err := Render(context.Background(), s.DB(), src)
	require.NoError(t, err)

	want := table.New("id", "g2")
	want.MustAppendRow(expr.String("aaron"), expr.Int(244))
	want.MustAppendRow(expr.String("bonds"), expr.Int(226))
	want.MustAppendRow(expr.String("ruth"), expr.Int(10))
	assert.True(t, table.Equal(want, got), "got:\n%s", got)
}

func TestRender_CountAll(t *testing.T) {
	s, base := loadPlayers(t)

	src, err := query.New(base).Summarise(nil, query.NamedExpr{Name: "n", Expr: expr.MustParse("n()")})
	require.NoError(t, err)

	got, err := Render(context.Background(), s.DB(), src)
	require.NoError(t, err)

	require.Equal(t, 1, got.NumRows())
	assert.Equal(t, []expr.Value{expr.Int(3)}, got.Row(0))
}

func TestRender_CompileErrorPropagates(t *testing.T) {
	s, _ := loadPlayers(t)

	src := query.New(bareBase{"id", "year"})
	_, err := Render(context.Background(), s.DB(), src)
	assert.ErrorContains(t, err, "no SQL table name")
}
