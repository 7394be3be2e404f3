package resolve

import (
	"fmt"
	"math"

	"github.com/roach88/sift/internal/expr"
)

// Lookup supplies column values during scalar evaluation. Returning false
// means the column is not available in this context.
type Lookup func(name string) (expr.Value, bool)

// Eval evaluates a resolved expression to a scalar value.
//
// Col nodes are read through the lookup; Ident nodes are an error (they mean
// the expression was never resolved). Aggregate calls are an error here -
// they are evaluated per group by the backend, not row-wise.
func Eval(e expr.Expr, lookup Lookup) (expr.Value, error) {
	switch node := e.(type) {
	case expr.Lit:
		return node.Value, nil

	case expr.Col:
		v, ok := lookup(node.Name)
		if !ok {
			return nil, fmt.Errorf("column %q not available in this context", node.Name)
		}
		return v, nil

	case expr.Ident:
		return nil, fmt.Errorf("unresolved identifier %q", node.Name)

	case expr.Unary:
		return evalUnary(node, lookup)

	case expr.Binary:
		return evalBinary(node, lookup)

	case expr.Call:
		if IsAggregate(node.Func) {
			return nil, fmt.Errorf("aggregate %s() cannot be evaluated row-wise", node.Func)
		}
		return evalCall(node, lookup)

	case expr.Range:
		return nil, fmt.Errorf("range expression outside column selection")

	default:
		return nil, fmt.Errorf("unknown expression type %T", e)
	}
}

func evalUnary(node expr.Unary, lookup Lookup) (expr.Value, error) {
	x, err := Eval(node.X, lookup)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case expr.OpNot:
		b, ok := x.(expr.Bool)
		if !ok {
			return nil, fmt.Errorf("operand of ! must be boolean, got %s", expr.Format(x))
		}
		return expr.Bool(!b), nil
	case expr.OpNeg:
		switch v := x.(type) {
		case expr.Int:
			return expr.Int(-v), nil
		case expr.Float:
			return expr.Float(-v), nil
		default:
			return nil, fmt.Errorf("operand of unary - must be numeric, got %s", expr.Format(x))
		}
	default:
		return nil, fmt.Errorf("unknown unary operator %q", node.Op)
	}
}

func evalBinary(node expr.Binary, lookup Lookup) (expr.Value, error) {
	left, err := Eval(node.Left, lookup)
	if err != nil {
		return nil, err
	}

	// Short-circuit boolean operators.
	switch node.Op {
	case expr.OpAnd, expr.OpOr:
		lb, ok := left.(expr.Bool)
		if !ok {
			return nil, fmt.Errorf("operand of %s must be boolean, got %s", node.Op, expr.Format(left))
		}
		if node.Op == expr.OpAnd && !bool(lb) {
			return expr.Bool(false), nil
		}
		if node.Op == expr.OpOr && bool(lb) {
			return expr.Bool(true), nil
		}
		right, err := Eval(node.Right, lookup)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(expr.Bool)
		if !ok {
			return nil, fmt.Errorf("operand of %s must be boolean, got %s", node.Op, expr.Format(right))
		}
		return rb, nil
	}

	right, err := Eval(node.Right, lookup)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case expr.OpEq:
		return expr.Bool(expr.Equal(left, right)), nil
	case expr.OpNe:
		return expr.Bool(!expr.Equal(left, right)), nil
	case expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		return evalOrdered(node.Op, left, right)
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv, expr.OpMod:
		return evalArith(node.Op, left, right)
	default:
		return nil, fmt.Errorf("unknown binary operator %q", node.Op)
	}
}

func evalOrdered(op string, left, right expr.Value) (expr.Value, error) {
	if !comparable2(left, right) {
		return nil, fmt.Errorf("cannot order %s against %s", expr.Format(left), expr.Format(right))
	}
	c := expr.Compare(left, right)
	switch op {
	case expr.OpLt:
		return expr.Bool(c < 0), nil
	case expr.OpLe:
		return expr.Bool(c <= 0), nil
	case expr.OpGt:
		return expr.Bool(c > 0), nil
	default:
		return expr.Bool(c >= 0), nil
	}
}

// comparable2 restricts ordering to same-kind operands (numbers count as one
// kind). Equality is defined for everything, ordering is not.
func comparable2(a, b expr.Value) bool {
	if expr.IsNumeric(a) && expr.IsNumeric(b) {
		return true
	}
	switch a.(type) {
	case expr.String:
		_, ok := b.(expr.String)
		return ok
	case expr.Bool:
		_, ok := b.(expr.Bool)
		return ok
	default:
		return false
	}
}

func evalArith(op string, left, right expr.Value) (expr.Value, error) {
	li, lok := left.(expr.Int)
	ri, rok := right.(expr.Int)
	if lok && rok && op != expr.OpDiv {
		switch op {
		case expr.OpAdd:
			return expr.Int(li + ri), nil
		case expr.OpSub:
			return expr.Int(li - ri), nil
		case expr.OpMul:
			return expr.Int(li * ri), nil
		case expr.OpMod:
			if ri == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return expr.Int(li % ri), nil
		}
	}

	lf, lok2 := expr.AsFloat(left)
	rf, rok2 := expr.AsFloat(right)
	if !lok2 || !rok2 {
		return nil, fmt.Errorf("operands of %s must be numeric, got %s and %s",
			op, expr.Format(left), expr.Format(right))
	}
	switch op {
	case expr.OpAdd:
		return expr.Float(lf + rf), nil
	case expr.OpSub:
		return expr.Float(lf - rf), nil
	case expr.OpMul:
		return expr.Float(lf * rf), nil
	case expr.OpDiv:
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return expr.Float(lf / rf), nil
	case expr.OpMod:
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return expr.Float(math.Mod(lf, rf)), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}

func evalCall(node expr.Call, lookup Lookup) (expr.Value, error) {
	args := make([]expr.Value, len(node.Args))
	for i, arg := range node.Args {
		v, err := Eval(arg, lookup)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch node.Func {
	case "abs":
		if err := arity(node, args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case expr.Int:
			if v < 0 {
				return expr.Int(-v), nil
			}
			return v, nil
		case expr.Float:
			return expr.Float(math.Abs(float64(v))), nil
		default:
			return nil, fmt.Errorf("abs: numeric argument required, got %s", expr.Format(args[0]))
		}
	case "round":
		if err := arity(node, args, 1); err != nil {
			return nil, err
		}
		f, ok := expr.AsFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("round: numeric argument required, got %s", expr.Format(args[0]))
		}
		return expr.Float(math.Round(f)), nil
	case "is_null":
		if err := arity(node, args, 1); err != nil {
			return nil, err
		}
		_, isNull := args[0].(expr.Null)
		return expr.Bool(isNull), nil
	default:
		return nil, fmt.Errorf("unknown function %s()", node.Func)
	}
}

func arity(node expr.Call, args []expr.Value, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s: expected %d argument(s), got %d", node.Func, want, len(args))
	}
	return nil
}

// scalarFuncs are the row-wise functions the evaluator knows how to fold.
var scalarFuncs = map[string]bool{
	"abs":     true,
	"round":   true,
	"is_null": true,
}

func isScalarFunc(name string) bool { return scalarFuncs[name] }
