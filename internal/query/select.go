package query

import (
	"github.com/roach88/sift/internal/expr"
	"github.com/roach88/sift/internal/resolve"
)

// Selection arguments are evaluated by a deliberately small interpreter over
// a closed grammar - name, inclusive range, numeric index, exclusion, and
// integer arithmetic - rather than through the general resolver. This keeps
// the selection path auditable and makes the "resolve to literal names at
// call time" rule trivial to enforce.

type selection struct {
	cols  []string
	index map[string]int
	env   resolve.Env
}

// resolveSelection translates selection expressions to literal column names
// against the given column list. Positions are 0-based. Exclusions (-x)
// remove names; a call consisting only of exclusions selects the complement.
func resolveSelection(cols []string, env resolve.Env, specs []expr.Expr) ([]string, error) {
	sel := &selection{
		cols:  cols,
		index: make(map[string]int, len(cols)),
		env:   env,
	}
	for i, name := range cols {
		// First occurrence wins when the scope carries duplicates.
		if _, ok := sel.index[name]; !ok {
			sel.index[name] = i
		}
	}

	var include []int
	exclude := make(map[int]bool)
	hasInclude := false

	for _, spec := range specs {
		positions, negated, err := sel.resolveSpec(spec)
		if err != nil {
			return nil, err
		}
		if negated {
			for _, p := range positions {
				exclude[p] = true
			}
			continue
		}
		hasInclude = true
		include = append(include, positions...)
	}

	if !hasInclude && len(exclude) > 0 {
		include = make([]int, len(cols))
		for i := range cols {
			include[i] = i
		}
	}

	names := make([]string, 0, len(include))
	for _, p := range include {
		if !exclude[p] {
			names = append(names, sel.cols[p])
		}
	}
	return names, nil
}

// resolveSpec classifies one selection argument. A top-level unary minus
// marks an exclusion; everything else is an inclusion.
func (s *selection) resolveSpec(spec expr.Expr) ([]int, bool, error) {
	if neg, ok := spec.(expr.Unary); ok && neg.Op == expr.OpNeg {
		positions, err := s.span(neg.X)
		if err != nil {
			return nil, false, err
		}
		return positions, true, nil
	}
	positions, err := s.span(spec)
	return positions, false, err
}

// span expands an argument to column positions: a range yields the inclusive
// contiguous run between its endpoints (in either direction), anything else
// yields a single position.
func (s *selection) span(e expr.Expr) ([]int, error) {
	if r, ok := e.(expr.Range); ok {
		lo, err := s.position(r.Low)
		if err != nil {
			return nil, err
		}
		hi, err := s.position(r.High)
		if err != nil {
			return nil, err
		}
		step := 1
		if lo > hi {
			step = -1
		}
		var out []int
		for p := lo; ; p += step {
			out = append(out, p)
			if p == hi {
				break
			}
		}
		return out, nil
	}
	p, err := s.position(e)
	if err != nil {
		return nil, err
	}
	return []int{p}, nil
}

// position evaluates an argument to a single, bounds-checked column
// position. Column names map to their 0-based index; other identifiers fall
// back to the calling environment; integer arithmetic is allowed on top.
func (s *selection) position(e expr.Expr) (int, error) {
	n, err := s.eval(e)
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= int64(len(s.cols)) {
		return 0, newSelectionError("position %d out of range [0,%d)", n, len(s.cols))
	}
	return int(n), nil
}

func (s *selection) eval(e expr.Expr) (int64, error) {
	switch node := e.(type) {
	case expr.Ident:
		if p, ok := s.index[node.Name]; ok {
			return int64(p), nil
		}
		if v, ok := s.env[node.Name]; ok {
			if n, isInt := expr.AsInt(v); isInt {
				return n, nil
			}
			return 0, newSelectionError("%q is bound to non-numeric value %s", node.Name, expr.Format(v))
		}
		return 0, newSelectionError("%q is not a column or numeric binding", node.Name)

	case expr.Col:
		if p, ok := s.index[node.Name]; ok {
			return int64(p), nil
		}
		return 0, newSelectionError("%q is not a current column", node.Name)

	case expr.Lit:
		n, ok := expr.AsInt(node.Value)
		if !ok {
			return 0, newSelectionError("selection argument %s is not numeric", expr.Format(node.Value))
		}
		return n, nil

	case expr.Unary:
		if node.Op != expr.OpNeg {
			return 0, newSelectionError("operator %s not allowed in selection", node.Op)
		}
		n, err := s.eval(node.X)
		if err != nil {
			return 0, err
		}
		return -n, nil

	case expr.Binary:
		left, err := s.eval(node.Left)
		if err != nil {
			return 0, err
		}
		right, err := s.eval(node.Right)
		if err != nil {
			return 0, err
		}
		switch node.Op {
		case expr.OpAdd:
			return left + right, nil
		case expr.OpSub:
			return left - right, nil
		case expr.OpMul:
			return left * right, nil
		default:
			return 0, newSelectionError("operator %s not allowed in selection", node.Op)
		}

	default:
		return 0, newSelectionError("expression %s is not a valid selection argument", expr.Deparse(e))
	}
}
