package rendersql

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
)

// sqlBase is a minimal NamedBase for compile tests.
type sqlBase struct {
	name string
	cols []string
}

func (b sqlBase) ColumnNames() []string { return b.cols }
func (b sqlBase) TableName() string     { return b.name }

// bareBase has columns but no table name.
type bareBase []string

func (b bareBase) ColumnNames() []string { return b }

func players() *query.Source {
	return query.New(sqlBase{name: "players", cols: []string{"id", "year", "g", "rbi"}})
}

// assertGolden compiles the pipeline and compares statement plus parameter
// list against the named golden file.
func assertGolden(t *testing.T, name string, src *query.Source) {
	t.Helper()

	stmt, params, err := Compile(src)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(stmt+"\n-- params: "+fmt.Sprintf("%v", params)+"\n"))
}

func TestCompile_PassThrough(t *testing.T) {
	stmt, params, err := Compile(players())
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "players"`, stmt)
	assert.Empty(t, params)
}

func TestCompile_FilterGroupSummarise(t *testing.T) {
	s, err := players().Filter(nil, expr.MustParse("year > 1980"))
	require.NoError(t, err)
	s, err = s.GroupBy(nil, expr.MustParse("id"))
	require.NoError(t, err)
	s, err = s.Summarise(nil, query.NamedExpr{Name: "g", Expr: expr.MustParse("mean(g)")})
	require.NoError(t, err)

	assertGolden(t, "filter_group_summarise", s)
}

func TestCompile_MutateSelectArrange(t *testing.T) {
	s, err := players().Mutate(nil, query.NamedExpr{Name: "gpr", Expr: expr.MustParse("g / rbi")})
	require.NoError(t, err)
	s, err = s.Select(nil, expr.MustParse("id"), expr.MustParse("gpr"))
	require.NoError(t, err)
	s, err = s.Arrange(nil, query.Desc(expr.MustParse("gpr")))
	require.NoError(t, err)

	assertGolden(t, "mutate_select_arrange", s)
}

func TestCompile_CompoundFilters(t *testing.T) {
	s, err := players().Filter(nil, expr.MustParse("year > 1980"))
	require.NoError(t, err)
	s, err = s.Filter(nil, expr.MustParse("is_null(rbi) || rbi >= 50"))
	require.NoError(t, err)

	assertGolden(t, "compound_filters", s)
}

func TestCompile_CountStar(t *testing.T) {
	s, err := players().GroupBy(nil, expr.MustParse("year"))
	require.NoError(t, err)
	s, err = s.Summarise(nil, query.NamedExpr{Name: "n", Expr: expr.MustParse("n()")})
	require.NoError(t, err)

	assertGolden(t, "count_star", s)
}

func TestCompile_ParamOrder(t *testing.T) {
	s, err := players().Filter(nil, expr.MustParse("year > 1980"))
	require.NoError(t, err)
	s, err = s.Filter(nil, expr.MustParse("rbi >= 50"))
	require.NoError(t, err)

	_, params, err := Compile(s)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1980), int64(50)}, params)
}

func TestCompile_BaseWithoutTableName(t *testing.T) {
	s := query.New(bareBase{"id", "year"})
	_, _, err := Compile(s)
	assert.ErrorContains(t, err, "no SQL table name")
}
