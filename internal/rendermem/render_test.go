package rendermem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/table"
)

func players() *table.Table {
	t := table.New("id", "year", "g", "rbi")
	t.MustAppendRow(expr.String("aaron"), expr.Int(1975), expr.Int(137), expr.Int(60))
	t.MustAppendRow(expr.String("aaron"), expr.Int(1976), expr.Int(85), expr.Int(35))
	t.MustAppendRow(expr.String("bonds"), expr.Int(1990), expr.Int(151), expr.Int(114))
	t.MustAppendRow(expr.String("bonds"), expr.Int(2001), expr.Int(153), expr.Int(137))
	t.MustAppendRow(expr.String("ruth"), expr.Int(1927), expr.Int(151), expr.Int(165))
	return t
}

func TestRender_PassThrough(t *testing.T) {
	src := query.New(players())

	res, err := Render(src)
	require.NoError(t, err)
	assert.True(t, table.Equal(players(), res.Table))
	assert.NotEmpty(t, res.Token)
}

func TestRender_Filter(t *testing.T) {
	src, err := query.New(players()).Filter(nil, expr.MustParse("year > 1980"))
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)

	require.Equal(t, 2, res.Table.NumRows())
	years, err := res.Table.Column("year")
	require.NoError(t, err)
	assert.Equal(t, []expr.Value{expr.Int(1990), expr.Int(2001)}, years)
}

func TestRender_FilterConjunction(t *testing.T) {
	// Two predicates from separate calls AND together.
	s1, err := query.New(players()).Filter(nil, expr.MustParse("g > 100"))
	require.NoError(t, err)
	s2, err := s1.Filter(nil, expr.MustParse("rbi > 120"))
	require.NoError(t, err)

	res, err := Render(s2)
	require.NoError(t, err)

	require.Equal(t, 2, res.Table.NumRows())
	ids, err := res.Table.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []expr.Value{expr.String("bonds"), expr.String("ruth")}, ids)
}

func TestRender_Mutate(t *testing.T) {
	src, err := query.New(players()).Mutate(nil,
		query.NamedExpr{Name: "gpr", Expr: expr.MustParse("g / rbi")},
		query.NamedExpr{Name: "gpr2", Expr: expr.MustParse("gpr * 2")},
	)
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "year", "g", "rbi", "gpr", "gpr2"}, res.Table.ColumnNames())
	v, ok := res.Table.Lookup(4)("gpr")
	require.True(t, ok)
	f, _ := expr.AsFloat(v)
	assert.InDelta(t, 151.0/165.0, f, 1e-9)
}

func TestRender_MutateOverwritesExistingColumn(t *testing.T) {
	src, err := query.New(players()).Mutate(nil,
		query.NamedExpr{Name: "g", Expr: expr.MustParse("g * 2")},
	)
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "year", "g", "rbi"}, res.Table.ColumnNames())
	g, err := res.Table.Column("g")
	require.NoError(t, err)
	assert.Equal(t, expr.Int(274), g[0])
}

func TestRender_GroupSummarise(t *testing.T) {
	s1, err := query.New(players()).GroupBy(nil, expr.MustParse("id"))
	require.NoError(t, err)
	s2, err := s1.Summarise(nil,
		query.NamedExpr{Name: "games", Expr: expr.MustParse("sum(g)")},
		query.NamedExpr{Name: "seasons", Expr: expr.MustParse("n()")},
	)
	require.NoError(t, err)

	res, err := Render(s2)
	require.NoError(t, err)

	want := table.New("id", "games", "seasons")
	want.MustAppendRow(expr.String("aaron"), expr.Int(222), expr.Int(2))
	want.MustAppendRow(expr.String("bonds"), expr.Int(304), expr.Int(2))
	want.MustAppendRow(expr.String("ruth"), expr.Int(151), expr.Int(1))
	assert.True(t, table.Equal(want, res.Table), "got:\n%s", res.Table)
}

func TestRender_UngroupedSummarise(t *testing.T) {
	src, err := query.New(players()).Summarise(nil,
		query.NamedExpr{Name: "g", Expr: expr.MustParse("mean(g)")},
	)
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)

	require.Equal(t, 1, res.Table.NumRows())
	v, ok := res.Table.Lookup(0)("g")
	require.True(t, ok)
	f, _ := expr.AsFloat(v)
	assert.InDelta(t, (137+85+151+153+151)/5.0, f, 1e-9)
}

func TestRender_SummariseWithScalarStructure(t *testing.T) {
	// Arithmetic around an aggregate folds after the aggregate computes.
	src, err := query.New(players()).Summarise(nil,
		query.NamedExpr{Name: "spread", Expr: expr.MustParse("max(g) - min(g)")},
	)
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)
	v, ok := res.Table.Lookup(0)("spread")
	require.True(t, ok)
	assert.Equal(t, expr.Int(153-85), v)
}

func TestRender_Arrange(t *testing.T) {
	src, err := query.New(players()).Arrange(nil,
		query.Asc(expr.MustParse("id")),
		query.Desc(expr.MustParse("year")),
	)
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)

	years, err := res.Table.Column("year")
	require.NoError(t, err)
	assert.Equal(t, []expr.Value{
		expr.Int(1976), expr.Int(1975), // aaron, newest first
		expr.Int(2001), expr.Int(1990), // bonds
		expr.Int(1927), // ruth
	}, years)
}

func TestRender_Select(t *testing.T) {
	src, err := query.New(players()).Select(nil, expr.MustParse("year:g"))
	require.NoError(t, err)

	res, err := Render(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "g"}, res.Table.ColumnNames())
}

func TestRender_EndToEnd(t *testing.T) {
	// filter → group → summarise → arrange → select, built out of order to
	// show stage order is fixed at render time.
	s, err := query.New(players()).Filter(nil, expr.MustParse("year > 1950"))
	require.NoError(t, err)
	s, err = s.GroupBy(nil, expr.MustParse("id"))
	require.NoError(t, err)
	s, err = s.Summarise(nil, query.NamedExpr{Name: "total", Expr: expr.MustParse("sum(rbi)")})
	require.NoError(t, err)
	s, err = s.Arrange(nil, query.Desc(expr.MustParse("total")))
	require.NoError(t, err)

	res, err := Render(s)
	require.NoError(t, err)

	want := table.New("id", "total")
	want.MustAppendRow(expr.String("bonds"), expr.Int(251))
	want.MustAppendRow(expr.String("aaron"), expr.Int(95))
	assert.True(t, table.Equal(want, res.Table), "got:\n%s", res.Table)
	assert.Len(t, res.Trace, 3)
}

func TestRender_Errors(t *testing.T) {
	t.Run("non-boolean filter", func(t *testing.T) {
		src, err := query.New(players()).Filter(nil, expr.MustParse("g + 1"))
		require.NoError(t, err)
		_, err = Render(src)
		assert.Error(t, err)
	})

	t.Run("select of column dropped by summarise", func(t *testing.T) {
		s, err := query.New(players()).Select(nil, expr.MustParse("rbi"))
		require.NoError(t, err)
		s, err = s.Summarise(nil, query.NamedExpr{Name: "g", Expr: expr.MustParse("mean(g)")})
		require.NoError(t, err)
		_, err = Render(s)
		assert.Error(t, err)
	})

	t.Run("base without rows", func(t *testing.T) {
		_, err := Render(query.New(bareBase{}))
		assert.Error(t, err)
	})
}

type bareBase struct{}

func (bareBase) ColumnNames() []string { return []string{"x"} }

func TestRender_DoesNotMutateDescriptorOrBase(t *testing.T) {
	base := players()
	src, err := query.New(base).Filter(nil, expr.MustParse("g > 100"))
	require.NoError(t, err)
	src, err = src.Mutate(nil, query.NamedExpr{Name: "double", Expr: expr.MustParse("g * 2")})
	require.NoError(t, err)

	first, err := Render(src)
	require.NoError(t, err)
	second, err := Render(src)
	require.NoError(t, err)

	assert.True(t, table.Equal(first.Table, second.Table), "rendering must be repeatable")
	assert.True(t, table.Equal(players(), base), "base rows must be untouched")
	assert.NotEqual(t, first.Token, second.Token)
}
