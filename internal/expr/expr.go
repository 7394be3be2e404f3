package expr

// Expr represents an unevaluated (or partially evaluated) expression node.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the resolver and the backends.
//
// Expression types:
//   - Lit: a constant value, fully evaluated
//   - Ident: an unresolved name (column or environment binding, not yet known)
//   - Col: a resolved reference to a source column
//   - Unary: prefix operator applied to one operand
//   - Binary: infix operator applied to two operands
//   - Call: named function applied to zero or more arguments
//   - Range: contiguous reference a:b, used by column selection
//
// A freshly captured expression contains Ident nodes; the resolver rewrites
// those to Col or Lit. Backends only ever see resolved trees.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Lit is a constant value. The resolver produces Lit nodes when an
// identifier is bound in the calling environment, and when it constant-folds
// a subtree whose operands are all literal.
type Lit struct {
	Value Value
}

func (Lit) exprNode() {}

// Ident is a bare name as captured from the caller. It is either a column
// reference or an environment binding; which one is not known until the
// expression is resolved against a concrete source.
type Ident struct {
	Name string
}

func (Ident) exprNode() {}

// Col is a resolved reference to a column of the source the expression was
// resolved against. Col nodes stay symbolic: their value is only known to a
// backend at render time.
type Col struct {
	Name string
}

func (Col) exprNode() {}

// Unary is a prefix operator application: !x or -x.
type Unary struct {
	Op string
	X  Expr
}

func (Unary) exprNode() {}

// Binary is an infix operator application.
//
// Comparison operators produce Bool; arithmetic operators produce Int or
// Float with the usual promotion; "&&" and "||" require Bool operands.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (Binary) exprNode() {}

// Call is a named function application, e.g. mean(g) or abs(x - y).
// Aggregate functions (mean, sum, min, max, n) are never constant-folded;
// they are interpreted per group by the backend.
type Call struct {
	Func string
	Args []Expr
}

func (Call) exprNode() {}

// Range is a contiguous reference low:high. Both sides must evaluate to a
// column position during selection resolution; the range is inclusive on
// both ends. Range nodes are only meaningful to the select verb.
type Range struct {
	Low  Expr
	High Expr
}

func (Range) exprNode() {}

// Operator tokens used in Unary and Binary nodes.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"

	OpEq = "=="
	OpNe = "!="
	OpLt = "<"
	OpLe = "<="
	OpGt = ">"
	OpGe = ">="

	OpAnd = "&&"
	OpOr  = "||"
	OpNot = "!"
	OpNeg = "-"
)

// Walk calls fn for e and every node beneath it, parents first.
// Traversal stops early when fn returns false.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch node := e.(type) {
	case Unary:
		Walk(node.X, fn)
	case Binary:
		Walk(node.Left, fn)
		Walk(node.Right, fn)
	case Call:
		for _, arg := range node.Args {
			Walk(arg, fn)
		}
	case Range:
		Walk(node.Low, fn)
		Walk(node.High, fn)
	}
}

// Columns returns the distinct column names referenced by e, in first-use
// order.
func Columns(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Walk(e, func(n Expr) bool {
		if col, ok := n.(Col); ok && !seen[col.Name] {
			seen[col.Name] = true
			names = append(names, col.Name)
		}
		return true
	})
	return names
}
