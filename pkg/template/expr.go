package template

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/weft-dev/weft/internal/errors"
)

// Expr is a parsed template expression. Eval interprets it against a
// scope; a failed evaluation (missing name, bad operand, out-of-range
// index) yields nil rather than an error, per the grammar's recovery
// rule.
type Expr interface {
	Eval(s *Scope) any
	String() string
}

// ParseExpr parses a single expression from source text.
func ParseExpr(src string) (Expr, error) {
	p := &exprParser{src: src}
	p.next()
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, errors.New(errors.CategoryExpr, "E201",
			fmt.Sprintf("unexpected %q in expression %q", p.tok.text, src))
	}
	return e, nil
}

// MustParseExpr is ParseExpr for statically known expressions; it panics
// on a parse error.
func MustParseExpr(src string) Expr {
	e, err := ParseExpr(src)
	if err != nil {
		panic(err)
	}
	return e
}

// ----------------------------------------------------------------------------
// AST
// ----------------------------------------------------------------------------

type litExpr struct {
	value any
	text  string
}

func (e *litExpr) Eval(*Scope) any { return e.value }
func (e *litExpr) String() string  { return e.text }

type identExpr struct {
	name string
}

func (e *identExpr) Eval(s *Scope) any {
	v, _ := s.Lookup(e.name)
	return v
}
func (e *identExpr) String() string { return e.name }

type memberExpr struct {
	obj  Expr
	name string
}

func (e *memberExpr) Eval(s *Scope) any {
	return member(deref(e.obj.Eval(s)), e.name)
}
func (e *memberExpr) String() string { return e.obj.String() + "." + e.name }

type indexExpr struct {
	obj   Expr
	index Expr
}

func (e *indexExpr) Eval(s *Scope) any {
	return index(deref(e.obj.Eval(s)), deref(e.index.Eval(s)))
}
func (e *indexExpr) String() string {
	return e.obj.String() + "[" + e.index.String() + "]"
}

type unaryExpr struct {
	op   string
	expr Expr
}

func (e *unaryExpr) Eval(s *Scope) any {
	v := deref(e.expr.Eval(s))
	switch e.op {
	case "!":
		return !Truthy(v)
	case "-":
		if f, ok := toFloat(v); ok {
			return normalizeNumber(-f)
		}
		return nil
	}
	return nil
}
func (e *unaryExpr) String() string { return e.op + e.expr.String() }

type binaryExpr struct {
	op          string
	left, right Expr
}

func (e *binaryExpr) Eval(s *Scope) any {
	// Boolean operators short-circuit and return the deciding operand,
	// so `name || "anonymous"` works as a default.
	switch e.op {
	case "&&":
		l := deref(e.left.Eval(s))
		if !Truthy(l) {
			return l
		}
		return deref(e.right.Eval(s))
	case "||":
		l := deref(e.left.Eval(s))
		if Truthy(l) {
			return l
		}
		return deref(e.right.Eval(s))
	}

	l := deref(e.left.Eval(s))
	r := deref(e.right.Eval(s))

	switch e.op {
	case "==":
		return looseEquals(l, r)
	case "!=":
		return !looseEquals(l, r)
	}

	if e.op == "+" {
		// String concatenation when either side is a string.
		if ls, ok := l.(string); ok {
			return ls + Stringify(r)
		}
		if rs, ok := r.(string); ok {
			return Stringify(l) + rs
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil
	}

	switch e.op {
	case "+":
		return normalizeNumber(lf + rf)
	case "-":
		return normalizeNumber(lf - rf)
	case "*":
		return normalizeNumber(lf * rf)
	case "/":
		if rf == 0 {
			return nil
		}
		return normalizeNumber(lf / rf)
	case "%":
		if int64(rf) == 0 {
			return nil
		}
		return int(int64(lf) % int64(rf))
	case "<":
		return lf < rf
	case "<=":
		return lf <= rf
	case ">":
		return lf > rf
	case ">=":
		return lf >= rf
	}
	return nil
}
func (e *binaryExpr) String() string {
	return e.left.String() + " " + e.op + " " + e.right.String()
}

type condExpr struct {
	cond, then, els Expr
}

func (e *condExpr) Eval(s *Scope) any {
	if Truthy(deref(e.cond.Eval(s))) {
		return e.then.Eval(s)
	}
	return e.els.Eval(s)
}
func (e *condExpr) String() string {
	return e.cond.String() + " ? " + e.then.String() + " : " + e.els.String()
}

type callExpr struct {
	fn   Expr
	args []Expr
}

func (e *callExpr) Eval(s *Scope) any {
	fn := deref(e.fn.Eval(s))
	args := make([]any, len(e.args))
	for i, a := range e.args {
		args[i] = deref(a.Eval(s))
	}
	return call(fn, args)
}
func (e *callExpr) String() string {
	parts := make([]string, len(e.args))
	for i, a := range e.args {
		parts[i] = a.String()
	}
	return e.fn.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp // punctuation and operators
)

type token struct {
	kind tokKind
	text string
}

type exprParser struct {
	src string
	pos int
	tok token
}

func (p *exprParser) next() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF}
		return
	}

	c := p.src[p.pos]
	switch {
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos]}

	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos]}

	case c == '\'' || c == '"':
		quote := c
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != quote {
			p.pos++
		}
		text := p.src[start:p.pos]
		if p.pos < len(p.src) {
			p.pos++ // closing quote
		}
		p.tok = token{kind: tokString, text: text}

	default:
		// Two-character operators first.
		if p.pos+1 < len(p.src) {
			two := p.src[p.pos : p.pos+2]
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				p.pos += 2
				p.tok = token{kind: tokOp, text: two}
				return
			}
		}
		p.pos++
		p.tok = token{kind: tokOp, text: string(c)}
	}
}

func (p *exprParser) accept(text string) bool {
	if p.tok.kind == tokOp && p.tok.text == text {
		p.next()
		return true
	}
	return false
}

func (p *exprParser) expect(text string) error {
	if !p.accept(text) {
		return errors.New(errors.CategoryExpr, "E202",
			fmt.Sprintf("expected %q, found %q in expression %q", text, p.tok.text, p.src))
	}
	return nil
}

// ----------------------------------------------------------------------------
// Parser (precedence climbing)
// ----------------------------------------------------------------------------

func (p *exprParser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &condExpr{cond: cond, then: then, els: els}, nil
}

func (p *exprParser) parseOr() (Expr, error) {
	return p.parseBinary([]string{"||"}, func() (Expr, error) {
		return p.parseBinary([]string{"&&"}, func() (Expr, error) {
			return p.parseBinary([]string{"==", "!="}, func() (Expr, error) {
				return p.parseBinary([]string{"<", "<=", ">", ">="}, func() (Expr, error) {
					return p.parseBinary([]string{"+", "-"}, func() (Expr, error) {
						return p.parseBinary([]string{"*", "/", "%"}, p.parseUnary)
					})
				})
			})
		})
	})
}

func (p *exprParser) parseBinary(ops []string, operand func() (Expr, error)) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if p.tok.kind == tokOp && p.tok.text == op {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: matched, left: left, right: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	if p.tok.kind == tokOp && (p.tok.text == "!" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: op, expr: operand}, nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			if p.tok.kind != tokIdent {
				return nil, errors.New(errors.CategoryExpr, "E203",
					fmt.Sprintf("expected property name after '.' in %q", p.src))
			}
			e = &memberExpr{obj: e, name: p.tok.text}
			p.next()

		case p.accept("["):
			idx, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			e = &indexExpr{obj: e, index: idx}

		case p.accept("("):
			var args []Expr
			if !(p.tok.kind == tokOp && p.tok.text == ")") {
				for {
					arg, err := p.parseTernary()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.accept(",") {
						break
					}
				}
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			e = &callExpr{fn: e, args: args}

		default:
			return e, nil
		}
	}
}

func (p *exprParser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		text := p.tok.text
		p.next()
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.New(errors.CategoryExpr, "E204",
					fmt.Sprintf("bad number %q in %q", text, p.src))
			}
			return &litExpr{value: f, text: text}, nil
		}
		i, err := strconv.Atoi(text)
		if err != nil {
			return nil, errors.New(errors.CategoryExpr, "E204",
				fmt.Sprintf("bad number %q in %q", text, p.src))
		}
		return &litExpr{value: i, text: text}, nil

	case tokString:
		text := p.tok.text
		p.next()
		return &litExpr{value: text, text: strconv.Quote(text)}, nil

	case tokIdent:
		name := p.tok.text
		p.next()
		switch name {
		case "true":
			return &litExpr{value: true, text: "true"}, nil
		case "false":
			return &litExpr{value: false, text: "false"}, nil
		case "nil", "null":
			return &litExpr{value: nil, text: "nil"}, nil
		}
		return &identExpr{name: name}, nil

	case tokOp:
		if p.accept("(") {
			e, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, errors.New(errors.CategoryExpr, "E205",
		fmt.Sprintf("unexpected %q in expression %q", p.tok.text, p.src))
}

func isSpace(c byte) bool      { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isIdentStart(c byte) bool { return c == '_' || c == '$' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
