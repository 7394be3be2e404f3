// Package rendersql is the SQL backend: it translates a query.Source into a
// single parameterized SELECT statement and executes it over database/sql.
//
// The translation is mechanical - no optimization, no dialect abstraction
// beyond what the sqlite driver needs. Literal values are always emitted as
// ? placeholders, never interpolated.
package rendersql

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/resolve"
)

// NamedBase is the base-source contract this backend needs: the algebra's
// column-name list plus the SQL table name to select from.
type NamedBase interface {
	query.Base
	TableName() string
}

// Compile translates a pipeline into a parameterized SELECT.
// Returns (sql, params, error); params line up with ? placeholders in
// emission order.
//
// Shape: the stage (summarise or mutate) and the filters compile into an
// inner SELECT; a non-empty selection wraps it in an outer projection;
// arrange becomes ORDER BY on the outermost statement. Duplicate output
// names (shadowed summaries, a mutate overwriting a base column) are
// emitted as-is - SQL permits them and the algebra deliberately does not
// resolve shadowing.
func Compile(src *query.Source) (string, []any, error) {
	base, ok := src.Base().(NamedBase)
	if !ok {
		return "", nil, fmt.Errorf("compile: base source %T has no SQL table name", src.Base())
	}

	c := &compiler{}

	selectList, err := c.stageList(src)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectList)
	b.WriteString(" FROM ")
	b.WriteString(quote(base.TableName()))

	if filters := src.Filters(); len(filters) > 0 {
		b.WriteString(" WHERE ")
		for i, f := range filters {
			if i > 0 {
				b.WriteString(" AND ")
			}
			// Parenthesize each predicate when several AND together, so an
			// OR inside one cannot rebind against the conjunction.
			sql, err := c.exprSQL(f, len(filters) > 1)
			if err != nil {
				return "", nil, fmt.Errorf("compile filter: %w", err)
			}
			b.WriteString(sql)
		}
	}

	if groups := src.Groups(); len(groups) > 0 && len(src.Summaries()) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range groups {
			if i > 0 {
				b.WriteString(", ")
			}
			sql, err := c.exprSQL(g, false)
			if err != nil {
				return "", nil, fmt.Errorf("compile group key: %w", err)
			}
			b.WriteString(sql)
		}
	}

	stmt := b.String()

	if sel := src.Selection(); len(sel) > 0 {
		cols := make([]string, len(sel))
		for i, name := range sel {
			cols[i] = quote(name)
		}
		stmt = fmt.Sprintf("SELECT %s FROM (%s)", strings.Join(cols, ", "), stmt)
	}

	if keys := src.SortKeys(); len(keys) > 0 {
		var ob strings.Builder
		ob.WriteString(" ORDER BY ")
		for i, k := range keys {
			if i > 0 {
				ob.WriteString(", ")
			}
			sql, err := c.exprSQL(k.Expr, false)
			if err != nil {
				return "", nil, fmt.Errorf("compile sort key: %w", err)
			}
			ob.WriteString(sql)
			if k.Desc {
				ob.WriteString(" DESC")
			}
		}
		stmt += ob.String()
	}

	return stmt, c.params, nil
}

type compiler struct {
	params []any
}

// stageList builds the inner SELECT list from the transformation stage.
func (c *compiler) stageList(src *query.Source) (string, error) {
	if sums := src.Summaries(); len(sums) > 0 {
		var parts []string
		for _, g := range src.Groups() {
			sql, err := c.keySQL(g)
			if err != nil {
				return "", err
			}
			parts = append(parts, sql)
		}
		for _, ne := range sums {
			sql, err := c.exprSQL(ne.Expr, false)
			if err != nil {
				return "", fmt.Errorf("compile summarise %s: %w", ne.Name, err)
			}
			parts = append(parts, sql+" AS "+quote(ne.Name))
		}
		return strings.Join(parts, ", "), nil
	}

	if muts := src.Mutations(); len(muts) > 0 {
		parts := []string{"*"}
		for _, ne := range muts {
			sql, err := c.exprSQL(ne.Expr, false)
			if err != nil {
				return "", fmt.Errorf("compile mutate %s: %w", ne.Name, err)
			}
			parts = append(parts, sql+" AS "+quote(ne.Name))
		}
		return strings.Join(parts, ", "), nil
	}

	return "*", nil
}

// keySQL compiles a grouping key for the SELECT list, aliasing non-trivial
// keys to their derived name.
func (c *compiler) keySQL(g expr.Expr) (string, error) {
	if col, ok := g.(expr.Col); ok {
		return quote(col.Name), nil
	}
	sql, err := c.exprSQL(g, false)
	if err != nil {
		return "", err
	}
	return sql + " AS " + quote(expr.Deparse(g)), nil
}

// exprSQL compiles an expression. nested controls parenthesization of
// compound subexpressions.
func (c *compiler) exprSQL(e expr.Expr, nested bool) (string, error) {
	switch node := e.(type) {
	case expr.Lit:
		if _, isNull := node.Value.(expr.Null); isNull {
			return "NULL", nil
		}
		c.params = append(c.params, expr.Native(node.Value))
		return "?", nil

	case expr.Col:
		return quote(node.Name), nil

	case expr.Ident:
		return "", fmt.Errorf("unresolved identifier %q reached the SQL backend", node.Name)

	case expr.Unary:
		x, err := c.exprSQL(node.X, true)
		if err != nil {
			return "", err
		}
		if node.Op == expr.OpNot {
			return "NOT " + x, nil
		}
		return "-" + x, nil

	case expr.Binary:
		left, err := c.exprSQL(node.Left, true)
		if err != nil {
			return "", err
		}
		right, err := c.exprSQL(node.Right, true)
		if err != nil {
			return "", err
		}
		sql := left + " " + sqlOp(node.Op) + " " + right
		if nested {
			sql = "(" + sql + ")"
		}
		return sql, nil

	case expr.Call:
		return c.callSQL(node)

	case expr.Range:
		return "", fmt.Errorf("range expression reached the SQL backend")

	default:
		return "", fmt.Errorf("unsupported expression type %T", e)
	}
}

func (c *compiler) callSQL(node expr.Call) (string, error) {
	if node.Func == resolve.AggCount && len(node.Args) == 0 {
		return "COUNT(*)", nil
	}
	if node.Func == "is_null" && len(node.Args) == 1 {
		arg, err := c.exprSQL(node.Args[0], true)
		if err != nil {
			return "", err
		}
		return arg + " IS NULL", nil
	}

	args := make([]string, len(node.Args))
	for i, a := range node.Args {
		sql, err := c.exprSQL(a, false)
		if err != nil {
			return "", err
		}
		args[i] = sql
	}
	return sqlFunc(node.Func) + "(" + strings.Join(args, ", ") + ")", nil
}

func sqlOp(op string) string {
	switch op {
	case expr.OpEq:
		return "="
	case expr.OpNe:
		return "<>"
	case expr.OpAnd:
		return "AND"
	case expr.OpOr:
		return "OR"
	default:
		return op
	}
}

func sqlFunc(name string) string {
	switch name {
	case resolve.AggMean:
		return "AVG"
	case resolve.AggSum:
		return "SUM"
	case resolve.AggMin:
		return "MIN"
	case resolve.AggMax:
		return "MAX"
	case resolve.AggCount:
		return "COUNT"
	default:
		return strings.ToUpper(name)
	}
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
