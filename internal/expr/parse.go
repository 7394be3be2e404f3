package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse parses an expression from source text.
//
// The grammar covers what pipelines need and nothing more: literals
// (integers, floats, single- or double-quoted strings, true/false/null),
// identifiers, function calls, ranges (a:b), unary !/-, arithmetic,
// comparisons, and boolean conjunction/disjunction. The word forms "and",
// "or", and "not" are accepted alongside &&, ||, and !.
//
// Parse produces an unresolved tree: names come back as Ident nodes.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("parse %q: unexpected %q", src, p.peek().text)
	}
	return e, nil
}

// MustParse is Parse for tests and fixtures with known-good input.
// Panics on parse errors.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokColon
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == ':':
			toks = append(toks, token{tokColon, ":"})
			i++
		case c == '\'' || c == '"':
			lit, rest, err := lexString(src[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, lit})
			i += rest
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				((src[j] == '+' || src[j] == '-') && j > i && (src[j-1] == 'e' || src[j-1] == 'E'))) {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case isIdentStart(rune(c)):
			j := i
			for j < len(src) && isIdentPart(rune(src[j])) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		default:
			op, n := lexOp(src[i:])
			if n == 0 {
				return nil, fmt.Errorf("lex %q: unexpected character %q", src, c)
			}
			toks = append(toks, token{tokOp, op})
			i += n
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func lexString(src string) (string, int, error) {
	quote := src[0]
	var b strings.Builder
	for i := 1; i < len(src); i++ {
		c := src[i]
		if c == '\\' && i+1 < len(src) {
			i++
			b.WriteByte(src[i])
			continue
		}
		if c == quote {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

func lexOp(src string) (string, int) {
	two := []string{"==", "!=", "<=", ">=", "&&", "||"}
	for _, op := range two {
		if strings.HasPrefix(src, op) {
			return op, 2
		}
	}
	switch src[0] {
	case '<', '>', '+', '-', '*', '/', '%', '!':
		return string(src[0]), 1
	case '=':
		// Lone = is accepted as equality for scenario convenience.
		return OpEq, 1
	}
	return "", 0
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

// acceptOp consumes the next token if it is the given operator, or the given
// word form (case-insensitive) when word is non-empty.
func (p *parser) acceptOp(op, word string) bool {
	t := p.peek()
	if t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	if word != "" && t.kind == tokIdent && strings.EqualFold(t.text, word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptOp(OpOr, "or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.acceptOp(OpAnd, "and") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{OpEq, OpNe, OpLe, OpGe, OpLt, OpGt} {
		if p.acceptOp(op, "") {
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return Binary{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.acceptOp(OpAdd, ""):
			op = OpAdd
		case p.acceptOp(OpSub, ""):
			op = OpSub
		default:
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.acceptOp(OpMul, ""):
			op = OpMul
		case p.acceptOp(OpDiv, ""):
			op = OpDiv
		case p.acceptOp(OpMod, ""):
			op = OpMod
		default:
			return left, nil
		}
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseRange() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokColon {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Range{Low: left, High: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.acceptOp(OpNot, "not") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNot, X: x}, nil
	}
	if p.acceptOp(OpSub, "") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNeg, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if strings.ContainsAny(t.text, ".eE") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", t.text, err)
			}
			return Lit{Value: Float(f)}, nil
		}
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", t.text, err)
		}
		return Lit{Value: Int(n)}, nil
	case tokString:
		return Lit{Value: String(t.text)}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return Lit{Value: Bool(true)}, nil
		case "false":
			return Lit{Value: Bool(false)}, nil
		case "null":
			return Lit{Value: Null{}}, nil
		}
		if p.peek().kind == tokLParen {
			p.pos++
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return Call{Func: t.text, Args: args}, nil
		}
		return Ident{Name: t.text}, nil
	case tokLParen:
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}

func (p *parser) parseArgs() ([]Expr, error) {
	var args []Expr
	if p.peek().kind == tokRParen {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.next().kind {
		case tokComma:
			continue
		case tokRParen:
			return args, nil
		default:
			return nil, fmt.Errorf("expected , or ) in argument list")
		}
	}
}
