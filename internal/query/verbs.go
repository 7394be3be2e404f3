package query

import (
	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/resolve"
)

// Filter appends boolean predicates to the pipeline. Predicates are resolved
// against the current column scope and ANDed at render time.
//
// Returns a new Source; the receiver is unchanged, also on error.
func (s *Source) Filter(env resolve.Env, preds ...expr.Expr) (*Source, error) {
	cols := s.ColumnNames()
	resolved := make([]expr.Expr, len(preds))
	for i, p := range preds {
		r, err := resolve.Resolve(p, cols, env)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}
	out := s.clone()
	out.filter = appendCopy(s.filter, resolved...)
	return out, nil
}

// Mutate appends computed-column definitions to a row-wise pipeline.
//
// Fails with INCOMPATIBLE_OPERATION when the pipeline already summarises.
// Later definitions may reference columns defined by earlier ones: each
// entry's name joins the column scope before the next entry resolves.
//
// Unnamed entries keep their position and are named by their deparsed
// expression. Whether an aggregate call inside a mutate expression is
// meaningful is left to the backend; this layer does not reject it.
func (s *Source) Mutate(env resolve.Env, cols ...NamedExpr) (*Source, error) {
	if _, isSummarise := s.stage.(SummariseStage); isSummarise {
		return nil, newIncompatibleError("mutate")
	}

	existing, _ := s.stage.(MutateStage)
	resolved, err := s.resolveNamed(env, cols)
	if err != nil {
		return nil, err
	}

	out := s.clone()
	out.stage = MutateStage{Cols: appendCopy(existing.Cols, resolved...)}
	return out, nil
}

// Summarise appends aggregate-column definitions to an aggregation pipeline.
//
// Fails with INCOMPATIBLE_OPERATION when the pipeline already mutates.
// A name reused across calls is not deduplicated - both entries persist and
// the backend decides how shadowing renders.
func (s *Source) Summarise(env resolve.Env, cols ...NamedExpr) (*Source, error) {
	if _, isMutate := s.stage.(MutateStage); isMutate {
		return nil, newIncompatibleError("summarise")
	}

	existing, _ := s.stage.(SummariseStage)
	resolved, err := s.resolveNamed(env, cols)
	if err != nil {
		return nil, err
	}

	out := s.clone()
	out.stage = SummariseStage{Cols: appendCopy(existing.Cols, resolved...)}
	return out, nil
}

// resolveNamed resolves named-argument definitions in order, widening the
// column scope with each new name so later entries can reference earlier
// ones.
func (s *Source) resolveNamed(env resolve.Env, cols []NamedExpr) ([]NamedExpr, error) {
	scope := s.ColumnNames()
	resolved := make([]NamedExpr, len(cols))
	for i, ne := range cols {
		r, err := resolve.Resolve(ne.Expr, scope, env)
		if err != nil {
			return nil, err
		}
		name := ne.Name
		if name == "" {
			name = expr.Deparse(ne.Expr)
		}
		resolved[i] = NamedExpr{Name: name, Expr: r}
		scope = append(scope, name)
	}
	return resolved, nil
}

// Arrange appends sort keys in argument order. The first key overall is
// primary; keys added by later calls rank after earlier ones. Wrap keys with
// Desc for descending order.
func (s *Source) Arrange(env resolve.Env, keys ...SortKey) (*Source, error) {
	cols := s.ColumnNames()
	resolved := make([]SortKey, len(keys))
	for i, k := range keys {
		r, err := resolve.Resolve(k.Expr, cols, env)
		if err != nil {
			return nil, err
		}
		resolved[i] = SortKey{Expr: r, Desc: k.Desc}
	}
	out := s.clone()
	out.arrange = appendCopy(s.arrange, resolved...)
	return out, nil
}

// GroupBy appends grouping keys. Grouping is orthogonal to the other verbs;
// whether a grouping without a summarise is meaningful is the backend's
// concern.
func (s *Source) GroupBy(env resolve.Env, keys ...expr.Expr) (*Source, error) {
	cols := s.ColumnNames()
	resolved := make([]expr.Expr, len(keys))
	for i, k := range keys {
		r, err := resolve.Resolve(k, cols, env)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}
	out := s.clone()
	out.group = appendCopy(s.group, resolved...)
	return out, nil
}

// Select appends column names resolved from selection expressions.
//
// Selection does not go through the general resolver: arguments are
// evaluated against a synthetic environment mapping each current column name
// to its 0-based position, with env supplying any surrounding index
// arithmetic. The resulting positions are translated to literal names
// immediately.
//
// Select is cumulative like every other verb: a second call appends names,
// it does not narrow the first call's selection.
func (s *Source) Select(env resolve.Env, specs ...expr.Expr) (*Source, error) {
	names, err := resolveSelection(s.ColumnNames(), env, specs)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	out.sel = appendCopy(s.sel, names...)
	return out, nil
}
