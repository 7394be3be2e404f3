package rendermem

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/query"
	"github.com/roach88/sift/internal/resolve"
	"github.com/roach88/sift/internal/table"
)

// RowSource is the base-source contract this backend needs: the algebra's
// column-name list plus the actual rows. *table.Table satisfies it.
type RowSource interface {
	query.Base
	Rows() [][]expr.Value
}

// Result is a materialized pipeline.
type Result struct {
	// Token identifies this render for diagnostics and log correlation.
	// Tokens are UUIDv7, so they sort by render time.
	Token string

	// Table holds the materialized rows.
	Table *table.Table

	// Trace lists the applied steps in execution order.
	Trace []string
}

// Render materializes a pipeline whose base is a RowSource.
//
// Stages apply in a fixed order regardless of verb call order: filter, then
// mutate or group/summarise, then arrange, then select. The descriptor is
// read, never written.
func Render(src *query.Source) (*Result, error) {
	base, ok := src.Base().(RowSource)
	if !ok {
		return nil, fmt.Errorf("render: base source %T does not expose rows", src.Base())
	}

	r := &renderer{
		cols:     slices.Clone(base.ColumnNames()),
		collator: collate.New(language.Und),
	}
	for _, row := range base.Rows() {
		r.rows = append(r.rows, row)
	}

	if err := r.applyFilter(src.Filters()); err != nil {
		return nil, err
	}
	if err := r.applyMutate(src.Mutations()); err != nil {
		return nil, err
	}
	if err := r.applySummarise(src.Groups(), src.Summaries()); err != nil {
		return nil, err
	}
	if err := r.applyArrange(src.SortKeys()); err != nil {
		return nil, err
	}
	if err := r.applySelect(src.Selection()); err != nil {
		return nil, err
	}

	out := table.New(r.cols...)
	for _, row := range r.rows {
		if err := out.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return &Result{
		Token: uuid.Must(uuid.NewV7()).String(),
		Table: out,
		Trace: r.trace,
	}, nil
}

type renderer struct {
	cols     []string
	rows     [][]expr.Value
	collator *collate.Collator
	trace    []string
}

func (r *renderer) tracef(format string, args ...any) {
	r.trace = append(r.trace, fmt.Sprintf(format, args...))
}

func (r *renderer) lookup(row []expr.Value) resolve.Lookup {
	return func(name string) (expr.Value, bool) {
		idx := slices.Index(r.cols, name)
		if idx < 0 || idx >= len(row) {
			return nil, false
		}
		return row[idx], true
	}
}

// applyFilter keeps rows for which every predicate evaluates to true.
// A predicate result that is not a boolean is an error, not a skip.
func (r *renderer) applyFilter(preds []expr.Expr) error {
	for _, pred := range preds {
		kept := r.rows[:0:0]
		for _, row := range r.rows {
			v, err := resolve.Eval(pred, r.lookup(row))
			if err != nil {
				return fmt.Errorf("filter %s: %w", expr.Deparse(pred), err)
			}
			b, ok := v.(expr.Bool)
			if !ok {
				return fmt.Errorf("filter %s: predicate produced %s, want boolean",
					expr.Deparse(pred), expr.Format(v))
			}
			if b {
				kept = append(kept, row)
			}
		}
		r.rows = kept
		r.tracef("filter: %s", expr.Deparse(pred))
	}
	return nil
}

// applyMutate computes each definition in order. A definition whose name
// matches an existing column replaces that column; otherwise a new column is
// appended. Each definition sees the columns produced by earlier ones.
func (r *renderer) applyMutate(muts []query.NamedExpr) error {
	for _, ne := range muts {
		idx := slices.Index(r.cols, ne.Name)
		fresh := idx < 0
		if fresh {
			r.cols = append(slices.Clone(r.cols), ne.Name)
			idx = len(r.cols) - 1
		}
		next := make([][]expr.Value, len(r.rows))
		for i, row := range r.rows {
			v, err := resolve.Eval(ne.Expr, r.lookup(row))
			if err != nil {
				return fmt.Errorf("mutate %s: %w", ne.Name, err)
			}
			if fresh {
				next[i] = append(slices.Clone(row), v)
			} else {
				next[i] = slices.Clone(row)
				next[i][idx] = v
			}
		}
		r.rows = next
		r.tracef("mutate: %s = %s", ne.Name, expr.Deparse(ne.Expr))
	}
	return nil
}

// applySummarise groups rows by the grouping keys (one all-encompassing
// group when there are none) and computes one output row per group: the key
// values followed by the aggregate definitions. Groups keep first-appearance
// order. Duplicate summary names are emitted as-is; shadowing is the
// caller's problem to notice.
func (r *renderer) applySummarise(groups []expr.Expr, sums []query.NamedExpr) error {
	if len(sums) == 0 {
		if len(groups) > 0 {
			// Grouping without summarise has nothing to do row-wise.
			r.tracef("group: %d key(s), no summarise", len(groups))
		}
		return nil
	}

	type bucket struct {
		keys []expr.Value
		rows [][]expr.Value
	}
	var order []string
	buckets := make(map[string]*bucket)

	for _, row := range r.rows {
		keys := make([]expr.Value, len(groups))
		id := ""
		for i, g := range groups {
			v, err := resolve.Eval(g, r.lookup(row))
			if err != nil {
				return fmt.Errorf("group %s: %w", expr.Deparse(g), err)
			}
			keys[i] = v
			id += expr.Format(v) + "\x00"
		}
		b, ok := buckets[id]
		if !ok {
			b = &bucket{keys: keys}
			buckets[id] = b
			order = append(order, id)
		}
		b.rows = append(b.rows, row)
	}
	if len(groups) == 0 && len(buckets) == 0 {
		// Summarise over an empty ungrouped table still yields one row.
		buckets[""] = &bucket{}
		order = append(order, "")
	}

	cols := make([]string, 0, len(groups)+len(sums))
	for _, g := range groups {
		cols = append(cols, keyName(g))
	}
	for _, ne := range sums {
		cols = append(cols, ne.Name)
	}

	oldCols := r.cols
	var out [][]expr.Value
	for _, id := range order {
		b := buckets[id]
		row := slices.Clone(b.keys)
		for _, ne := range sums {
			v, err := r.aggregate(ne.Expr, b.rows, oldCols)
			if err != nil {
				return fmt.Errorf("summarise %s: %w", ne.Name, err)
			}
			row = append(row, v)
		}
		out = append(out, row)
	}

	r.cols = cols
	r.rows = out
	r.tracef("summarise: %d group(s), %d column(s)", len(order), len(sums))
	return nil
}

// keyName derives the output column name for a grouping key.
func keyName(g expr.Expr) string {
	if col, ok := g.(expr.Col); ok {
		return col.Name
	}
	return expr.Deparse(g)
}

// aggregate evaluates an expression with aggregate semantics over a group:
// aggregate calls fold their argument column, scalar structure above and
// around them folds through the ordinary evaluator, and a bare column
// reference takes the group's first row (group keys are constant within a
// group, which is the case this exists for).
func (r *renderer) aggregate(e expr.Expr, rows [][]expr.Value, cols []string) (expr.Value, error) {
	lookupIn := func(row []expr.Value) resolve.Lookup {
		return func(name string) (expr.Value, bool) {
			idx := slices.Index(cols, name)
			if idx < 0 || idx >= len(row) {
				return nil, false
			}
			return row[idx], true
		}
	}

	switch node := e.(type) {
	case expr.Lit:
		return node.Value, nil

	case expr.Col:
		if len(rows) == 0 {
			return expr.Null{}, nil
		}
		v, ok := lookupIn(rows[0])(node.Name)
		if !ok {
			return nil, fmt.Errorf("column %q not available", node.Name)
		}
		return v, nil

	case expr.Call:
		if resolve.IsAggregate(node.Func) {
			if node.Func == resolve.AggCount && len(node.Args) == 0 {
				return expr.Int(len(rows)), nil
			}
			if len(node.Args) != 1 {
				return nil, fmt.Errorf("%s: expected 1 argument, got %d", node.Func, len(node.Args))
			}
			vals := make([]expr.Value, len(rows))
			for i, row := range rows {
				v, err := resolve.Eval(node.Args[0], lookupIn(row))
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return resolve.Aggregate(node.Func, vals)
		}
		args := make([]expr.Expr, len(node.Args))
		for i, arg := range node.Args {
			v, err := r.aggregate(arg, rows, cols)
			if err != nil {
				return nil, err
			}
			args[i] = expr.Lit{Value: v}
		}
		return resolve.Eval(expr.Call{Func: node.Func, Args: args}, noLookup)

	case expr.Unary:
		v, err := r.aggregate(node.X, rows, cols)
		if err != nil {
			return nil, err
		}
		return resolve.Eval(expr.Unary{Op: node.Op, X: expr.Lit{Value: v}}, noLookup)

	case expr.Binary:
		left, err := r.aggregate(node.Left, rows, cols)
		if err != nil {
			return nil, err
		}
		right, err := r.aggregate(node.Right, rows, cols)
		if err != nil {
			return nil, err
		}
		return resolve.Eval(expr.Binary{
			Op:   node.Op,
			Left: expr.Lit{Value: left}, Right: expr.Lit{Value: right},
		}, noLookup)

	default:
		return nil, fmt.Errorf("cannot aggregate %s", expr.Deparse(e))
	}
}

func noLookup(string) (expr.Value, bool) { return nil, false }

// applyArrange stable-sorts rows by the keys in order: first key primary.
// String values order through the collator; everything else through the
// value model's deterministic ordering.
func (r *renderer) applyArrange(keys []query.SortKey) error {
	if len(keys) == 0 {
		return nil
	}

	type sortable struct {
		row  []expr.Value
		keys []expr.Value
	}
	decorated := make([]sortable, len(r.rows))
	for i, row := range r.rows {
		decorated[i] = sortable{row: row, keys: make([]expr.Value, len(keys))}
		for k, key := range keys {
			v, err := resolve.Eval(key.Expr, r.lookup(row))
			if err != nil {
				return fmt.Errorf("arrange %s: %w", expr.Deparse(key.Expr), err)
			}
			decorated[i].keys[k] = v
		}
	}

	slices.SortStableFunc(decorated, func(a, b sortable) int {
		for k, key := range keys {
			c := r.compare(a.keys[k], b.keys[k])
			if c == 0 {
				continue
			}
			if key.Desc {
				return -c
			}
			return c
		}
		return 0
	})

	for i, d := range decorated {
		r.rows[i] = d.row
	}
	r.tracef("arrange: %d key(s)", len(keys))
	return nil
}

func (r *renderer) compare(a, b expr.Value) int {
	as, aok := a.(expr.String)
	bs, bok := b.(expr.String)
	if aok && bok {
		return r.collator.CompareString(string(as), string(bs))
	}
	return expr.Compare(a, b)
}

// applySelect projects the selected names in order. Duplicate names project
// twice - the selection list is taken literally.
func (r *renderer) applySelect(sel []string) error {
	if len(sel) == 0 {
		return nil
	}

	idx := make([]int, len(sel))
	for i, name := range sel {
		idx[i] = slices.Index(r.cols, name)
		if idx[i] < 0 {
			return fmt.Errorf("select: column %q is not in the rendered output", name)
		}
	}

	next := make([][]expr.Value, len(r.rows))
	for i, row := range r.rows {
		projected := make([]expr.Value, len(idx))
		for j, p := range idx {
			projected[j] = row[p]
		}
		next[i] = projected
	}
	r.cols = slices.Clone(sel)
	r.rows = next
	r.tracef("select: %d column(s)", len(sel))
	return nil
}
