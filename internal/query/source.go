package query

import (
	"slices"

	"github.com/roach88/sift/internal/expr"
)

// Base is the minimal contract a backing data source must satisfy. The
// algebra only ever consults the ordered column-name list; rows, storage,
// and connectivity are backend concerns.
//
// The column list is assumed stable for the lifetime of a pipeline-building
// session.
type Base interface {
	ColumnNames() []string
}

// NamedExpr pairs a new column name with its defining expression, as
// captured from a named argument of mutate or summarise. An empty Name means
// the argument was unnamed; verbs default it to the deparsed expression.
type NamedExpr struct {
	Name string
	Expr expr.Expr
}

// SortKey is one arrange key: an expression plus a descending tag.
type SortKey struct {
	Expr expr.Expr
	Desc bool
}

// Asc wraps an expression as an ascending sort key.
func Asc(e expr.Expr) SortKey { return SortKey{Expr: e} }

// Desc wraps an expression as a descending sort key.
func Desc(e expr.Expr) SortKey { return SortKey{Expr: e, Desc: true} }

// Stage is the pipeline's transformation stage.
//
// This is a sealed interface - only MutateStage and SummariseStage implement
// it. A nil Stage means neither verb has been used. Modelling the stage as a
// tagged variant rather than two independent lists makes the "only one of
// mutate and summarise" rule structural: a Source cannot hold both.
type Stage interface {
	stageNode() // Marker method - seals interface to this package
}

// MutateStage holds the ordered computed-column definitions of a row-wise
// pipeline. Insertion order is significant: later entries may reference
// columns defined by earlier ones.
type MutateStage struct {
	Cols []NamedExpr
}

func (MutateStage) stageNode() {}

// SummariseStage holds the ordered aggregate-column definitions of an
// aggregation pipeline. Insertion order is significant. A name reused across
// calls is kept twice; the backend decides how shadowing renders.
type SummariseStage struct {
	Cols []NamedExpr
}

func (SummariseStage) stageNode() {}

// Source is an immutable-by-convention description of a base data source
// plus its pending operations. Verbs return successor Sources and never
// modify the receiver; callers that retain an earlier Source observe it
// unchanged.
//
// Filter predicates are ANDed at render time; their order is kept for
// diagnostics only. The selection list stores literal column names, resolved
// at call time. Arrange keys apply in order: first key is primary.
type Source struct {
	base    Base
	filter  []expr.Expr
	sel     []string
	stage   Stage
	group   []expr.Expr
	arrange []SortKey
}

// New creates a Source over a base with no pending operations.
func New(base Base) *Source {
	return &Source{base: base}
}

// Base returns the backing data source.
func (s *Source) Base() Base { return s.base }

// Filters returns the resolved filter predicates in call order.
// The returned slice is a copy.
func (s *Source) Filters() []expr.Expr { return slices.Clone(s.filter) }

// Selection returns the selected column names in call order.
// Empty means "whatever the base/previous pipeline provides".
func (s *Source) Selection() []string { return slices.Clone(s.sel) }

// Stage returns the transformation stage: nil, MutateStage, or
// SummariseStage.
func (s *Source) Stage() Stage { return s.stage }

// Mutations returns the mutate definitions, or nil when the pipeline is not
// a mutate pipeline.
func (s *Source) Mutations() []NamedExpr {
	if m, ok := s.stage.(MutateStage); ok {
		return slices.Clone(m.Cols)
	}
	return nil
}

// Summaries returns the summarise definitions, or nil when the pipeline is
// not a summarise pipeline.
func (s *Source) Summaries() []NamedExpr {
	if m, ok := s.stage.(SummariseStage); ok {
		return slices.Clone(m.Cols)
	}
	return nil
}

// Groups returns the resolved grouping keys in call order.
func (s *Source) Groups() []expr.Expr { return slices.Clone(s.group) }

// SortKeys returns the resolved arrange keys in call order.
func (s *Source) SortKeys() []SortKey { return slices.Clone(s.arrange) }

// ColumnNames returns the column names currently in scope for resolution:
// the base columns followed by any names the transformation stage defines,
// deduplicated keeping first occurrence.
func (s *Source) ColumnNames() []string {
	names := slices.Clone(s.base.ColumnNames())
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, ne := range stageCols(s.stage) {
		if !seen[ne.Name] {
			seen[ne.Name] = true
			names = append(names, ne.Name)
		}
	}
	return names
}

func stageCols(st Stage) []NamedExpr {
	switch v := st.(type) {
	case MutateStage:
		return v.Cols
	case SummariseStage:
		return v.Cols
	default:
		return nil
	}
}

// clone returns a shallow copy. Slices are shared until a verb replaces one
// with a freshly allocated append; sharing is never observable as mutation
// because no code path writes into an existing slice.
func (s *Source) clone() *Source {
	c := *s
	return &c
}

// appendCopy appends onto a fresh slice so the input's backing array is
// never written through.
func appendCopy[T any](xs []T, ys ...T) []T {
	out := make([]T, 0, len(xs)+len(ys))
	out = append(out, xs...)
	return append(out, ys...)
}
