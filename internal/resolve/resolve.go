package resolve

import (
	"errors"
	"fmt"

	"github.com/roach88/sift/internal/expr"
)

// Env is the lexical environment an expression is resolved against.
// Bindings shadow nothing: column names always win, matching the rule that
// a source column reference stays symbolic even when an equally named
// environment binding exists.
type Env map[string]expr.Value

// ResolutionError reports an identifier that is neither a known column of
// the source nor bound in the environment.
//
// The query algebra propagates ResolutionError unchanged; callers classify
// it with errors.As or IsResolutionError.
type ResolutionError struct {
	// Name is the identifier that failed to resolve.
	Name string

	// Columns lists the column names that were in scope, for diagnostics.
	Columns []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("UNKNOWN_NAME: %q is not a column or environment binding", e.Name)
}

// IsResolutionError returns true if the error is a ResolutionError.
// Uses errors.As to handle wrapped errors.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// Resolve partially evaluates e against a column scope and an environment.
//
// The result is a tree containing only Lit, Col, Unary, Binary, Call, and
// Range nodes. Identifiers are rewritten: column names become Col, bound
// names become Lit. Subtrees that depend only on the environment are fully
// evaluated (constant folding); subtrees that touch a column stay symbolic.
//
// Resolve never evaluates anything that depends on backend-side data and has
// no side effects on its inputs.
func Resolve(e expr.Expr, columns []string, env Env) (expr.Expr, error) {
	colSet := make(map[string]bool, len(columns))
	for _, c := range columns {
		colSet[c] = true
	}
	r := &resolver{columns: columns, colSet: colSet, env: env}
	return r.resolve(e)
}

type resolver struct {
	columns []string
	colSet  map[string]bool
	env     Env
}

func (r *resolver) resolve(e expr.Expr) (expr.Expr, error) {
	switch node := e.(type) {
	case nil:
		return nil, fmt.Errorf("cannot resolve nil expression")

	case expr.Lit, expr.Col:
		return node, nil

	case expr.Ident:
		if r.colSet[node.Name] {
			return expr.Col{Name: node.Name}, nil
		}
		if val, ok := r.env[node.Name]; ok {
			return expr.Lit{Value: val}, nil
		}
		return nil, &ResolutionError{Name: node.Name, Columns: r.columns}

	case expr.Unary:
		x, err := r.resolve(node.X)
		if err != nil {
			return nil, err
		}
		out := expr.Unary{Op: node.Op, X: x}
		return r.fold(out)

	case expr.Binary:
		left, err := r.resolve(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.resolve(node.Right)
		if err != nil {
			return nil, err
		}
		out := expr.Binary{Op: node.Op, Left: left, Right: right}
		return r.fold(out)

	case expr.Call:
		args := make([]expr.Expr, len(node.Args))
		for i, arg := range node.Args {
			resolved, err := r.resolve(arg)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
		}
		out := expr.Call{Func: node.Func, Args: args}
		if IsAggregate(node.Func) || !isScalarFunc(node.Func) {
			// Aggregates fold per group at render time; unknown functions
			// are left for the backend to interpret.
			return out, nil
		}
		return r.fold(out)

	case expr.Range:
		low, err := r.resolve(node.Low)
		if err != nil {
			return nil, err
		}
		high, err := r.resolve(node.High)
		if err != nil {
			return nil, err
		}
		return expr.Range{Low: low, High: high}, nil

	default:
		return nil, fmt.Errorf("unknown expression type %T", e)
	}
}

// fold constant-folds e when every leaf is literal. Symbolic trees come back
// unchanged.
func (r *resolver) fold(e expr.Expr) (expr.Expr, error) {
	if !isConstant(e) {
		return e, nil
	}
	v, err := Eval(e, noColumns)
	if err != nil {
		return nil, err
	}
	return expr.Lit{Value: v}, nil
}

// isConstant reports whether e contains no Col (or stray Ident) nodes.
func isConstant(e expr.Expr) bool {
	constant := true
	expr.Walk(e, func(n expr.Expr) bool {
		switch n.(type) {
		case expr.Col, expr.Ident:
			constant = false
			return false
		}
		return true
	})
	return constant
}

func noColumns(name string) (expr.Value, bool) { return nil, false }
