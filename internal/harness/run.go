package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/rendermem"
	"github.com/roach88/sift/internal/rendersql"
	"github.com/roach88/sift/internal/resolve"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/table"
)

// scenarioTable is the sqlite table name scenarios load into.
const scenarioTable = "scenario_data"

// Result holds everything a scenario run produced.
type Result struct {
	Scenario *Scenario

	// Memory is the in-memory render. Nil when the scenario expects an
	// error.
	Memory *rendermem.Result

	// SQL is the sqlite-backed render, set when the scenario lists the
	// sql backend.
	SQL *table.Table

	// Err is the matched pipeline or render error for error scenarios.
	Err error
}

// Run executes a scenario end to end and checks its expectations.
// A non-nil error means the scenario failed: the pipeline misbehaved, the
// result table differed from expect, or the backends disagreed.
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	base, err := BuildTable(sc.Table)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build table: %w", sc.Name, err)
	}
	env, err := BuildEnv(sc.Env)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build env: %w", sc.Name, err)
	}

	res := &Result{Scenario: sc}

	mem, runErr := renderMemory(sc.Steps, base, env)
	if sc.Error != "" {
		if runErr == nil {
			return nil, fmt.Errorf("scenario %s: expected error containing %q, pipeline succeeded", sc.Name, sc.Error)
		}
		if !strings.Contains(runErr.Error(), sc.Error) {
			return nil, fmt.Errorf("scenario %s: error %q does not contain %q", sc.Name, runErr, sc.Error)
		}
		res.Err = runErr
		return res, nil
	}
	if runErr != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, runErr)
	}
	res.Memory = mem

	want, err := buildExpect(sc.Expect)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build expect: %w", sc.Name, err)
	}
	if !table.Equal(want, mem.Table) {
		return nil, fmt.Errorf("scenario %s: result mismatch\nwant:\n%s\ngot:\n%s", sc.Name, want, mem.Table)
	}

	if hasBackend(sc, BackendSQL) {
		got, err := renderSQL(ctx, sc, base, env)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: sql backend: %w", sc.Name, err)
		}
		if !table.Equal(want, got) {
			return nil, fmt.Errorf("scenario %s: sql backend disagrees\nwant:\n%s\ngot:\n%s", sc.Name, want, got)
		}
		res.SQL = got
	}

	return res, nil
}

// renderMemory builds the pipeline over the inline table and renders it.
func renderMemory(steps []Step, base *table.Table, env resolve.Env) (*rendermem.Result, error) {
	src, err := BuildPipeline(steps, base, env)
	if err != nil {
		return nil, err
	}
	return rendermem.Render(src)
}

// renderSQL loads the inline table into a fresh in-memory database, builds
// the same pipeline over the sqlite base, and executes it.
func renderSQL(ctx context.Context, sc *Scenario, base *table.Table, env resolve.Env) (*table.Table, error) {
	s, err := store.Open(":memory:")
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.Load(ctx, scenarioTable, base); err != nil {
		return nil, err
	}
	sqlBase, err := s.Table(ctx, scenarioTable)
	if err != nil {
		return nil, err
	}

	src, err := BuildPipeline(sc.Steps, sqlBase, env)
	if err != nil {
		return nil, err
	}
	return rendersql.Render(ctx, s.DB(), src)
}

// BuildPipeline applies steps to a fresh descriptor over base. The CLI
// shares this with the scenario runner, its query files decode into the
// same step model.
func BuildPipeline(steps []Step, base query.Base, env resolve.Env) (*query.Source, error) {
	src := query.New(base)
	for i, step := range steps {
		next, err := applyStep(src, step, env)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Verb, err)
		}
		src = next
	}
	return src, nil
}

func applyStep(src *query.Source, step Step, env resolve.Env) (*query.Source, error) {
	switch step.Verb {
	case "filter":
		preds, err := parseExprs(step.Exprs)
		if err != nil {
			return nil, err
		}
		return src.Filter(env, preds...)
	case "group_by":
		keys, err := parseExprs(step.Exprs)
		if err != nil {
			return nil, err
		}
		return src.GroupBy(env, keys...)
	case "select":
		specs, err := parseExprs(step.Exprs)
		if err != nil {
			return nil, err
		}
		return src.Select(env, specs...)
	case "mutate":
		cols, err := parseCols(step.Cols)
		if err != nil {
			return nil, err
		}
		return src.Mutate(env, cols...)
	case "summarise":
		cols, err := parseCols(step.Cols)
		if err != nil {
			return nil, err
		}
		return src.Summarise(env, cols...)
	case "arrange":
		keys := make([]query.SortKey, len(step.Keys))
		for i, k := range step.Keys {
			e, err := expr.Parse(k.Expr)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", k.Expr, err)
			}
			keys[i] = query.SortKey{Expr: e, Desc: k.Desc}
		}
		return src.Arrange(env, keys...)
	default:
		return nil, fmt.Errorf("unknown verb %q", step.Verb)
	}
}

func parseExprs(raw []string) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(raw))
	for i, s := range raw {
		e, err := expr.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		out[i] = e
	}
	return out, nil
}

func parseCols(raw []NamedCol) ([]query.NamedExpr, error) {
	out := make([]query.NamedExpr, len(raw))
	for i, c := range raw {
		e, err := expr.Parse(c.Expr)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", c.Expr, err)
		}
		out[i] = query.NamedExpr{Name: c.Name, Expr: e}
	}
	return out, nil
}

// BuildTable materializes an inline table spec, converting native YAML or
// CUE values through the value model.
func BuildTable(spec TableSpec) (*table.Table, error) {
	tbl := table.New(spec.Columns...)
	for i, row := range spec.Rows {
		vals := make([]expr.Value, len(row))
		for j, cell := range row {
			v, err := expr.FromNative(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			vals[j] = v
		}
		if err := tbl.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func buildExpect(e *Expect) (*table.Table, error) {
	return BuildTable(TableSpec{Columns: e.Columns, Rows: e.Rows})
}

// BuildEnv converts native bindings into resolver values.
func BuildEnv(raw map[string]any) (resolve.Env, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	env := make(resolve.Env, len(raw))
	for name, val := range raw {
		v, err := expr.FromNative(val)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		env[name] = v
	}
	return env, nil
}

func hasBackend(sc *Scenario, name string) bool {
	for _, b := range sc.Backends {
		if b == name {
			return true
		}
	}
	return false
}
