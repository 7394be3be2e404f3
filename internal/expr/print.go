package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Deparse renders an expression back to source form. The output re-parses to
// an equal tree and is used for diagnostics, default column names, and golden
// output.
func Deparse(e Expr) string {
	var b strings.Builder
	deparse(&b, e, 0)
	return b.String()
}

// Operator precedence levels, lowest binds loosest. Mirrors the parser.
func precedence(op string) int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv, OpMod:
		return 5
	default:
		return 6
	}
}

func deparse(b *strings.Builder, e Expr, parent int) {
	switch node := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case Lit:
		b.WriteString(deparseLit(node.Value))
	case Ident:
		b.WriteString(node.Name)
	case Col:
		b.WriteString(node.Name)
	case Unary:
		b.WriteString(node.Op)
		deparse(b, node.X, 7)
	case Binary:
		prec := precedence(node.Op)
		if prec < parent {
			b.WriteByte('(')
		}
		deparse(b, node.Left, prec)
		b.WriteByte(' ')
		b.WriteString(node.Op)
		b.WriteByte(' ')
		deparse(b, node.Right, prec+1)
		if prec < parent {
			b.WriteByte(')')
		}
	case Call:
		b.WriteString(node.Func)
		b.WriteByte('(')
		for i, arg := range node.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			deparse(b, arg, 0)
		}
		b.WriteByte(')')
	case Range:
		deparse(b, node.Low, 7)
		b.WriteByte(':')
		deparse(b, node.High, 7)
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func deparseLit(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return Format(v)
}
