package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Expr is a parsed expression. It is immutable and safe to share.
type Expr struct {
	src  string
	root node
	vars []string
}

// Parse compiles src into an expression tree.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, fmt.Errorf("expression %q: unexpected %q at %d", src, tok.text, tok.pos)
	}
	e := &Expr{src: strings.TrimSpace(src), root: root}
	seen := make(map[string]bool)
	collectVars(root, func(name string) {
		if !seen[name] {
			seen[name] = true
			e.vars = append(e.vars, name)
		}
	})
	return e, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// Literal wraps a constant value as an expression.
func Literal(v domain.Value) *Expr {
	return &Expr{src: v.String(), root: literal{v}}
}

func (e *Expr) String() string { return e.src }

// MarshalText renders the expression source, for graph dumps.
func (e *Expr) MarshalText() ([]byte, error) { return []byte(e.src), nil }

// VariableNames lists every variable the expression reads, in order of first appearance.
func (e *Expr) VariableNames() []string {
	return append([]string(nil), e.vars...)
}

// IsLiteral reports whether the expression is a constant.
func (e *Expr) IsLiteral() bool {
	_, ok := e.root.(literal)
	return ok
}

// Evaluate computes the expression against vars. Missing variables read as Empty.
func (e *Expr) Evaluate(vars domain.Variables) (domain.Value, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return domain.Value{}, fmt.Errorf("evaluating %q: %w", e.src, err)
	}
	return v, nil
}

// EvaluateBool evaluates and reads the result as a condition.
func (e *Expr) EvaluateBool(vars domain.Variables) (bool, error) {
	v, err := e.Evaluate(vars)
	if err != nil {
		return false, err
	}
	switch v.Type() {
	case domain.TypeBool, domain.TypeEmpty:
		return v.Truthy(), nil
	}
	return false, fmt.Errorf("evaluating %q: %s is not a condition", e.src, v.Type())
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// acceptOp consumes the next token if it is one of the given operators or keywords.
func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp && t.kind != tokIdent {
		return "", false
	}
	for _, op := range ops {
		if strings.EqualFold(t.text, op) {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("or", "||"); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binary{op: "or", left: left, right: right}
	}
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.acceptOp("and", "&&"); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binary{op: "and", left: left, right: right}
	}
}

func (p *parser) parseNot() (node, error) {
	if _, ok := p.acceptOp("not", "!"); ok {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unary{op: "not", operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("==", "!=", "<>", "<=", ">=", "<", ">", "=")
	if !ok {
		return left, nil
	}
	switch op {
	case "=":
		op = "=="
	case "<>":
		op = "!="
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return binary{op: op, left: left, right: right}, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if _, ok := p.acceptOp("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(literal); ok && lit.v.IsNumeric() {
			return literal{negate(lit.v)}, nil
		}
		return unary{op: "-", operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", t.text)
			}
			return literal{domain.FloatValue(f)}, nil
		}
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return literal{domain.IntValue(i)}, nil
	case tokString:
		return literal{domain.TextValue(t.text)}, nil
	case tokVariable:
		return variable{name: t.text}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return literal{domain.BoolValue(true)}, nil
		case "false":
			return literal{domain.BoolValue(false)}, nil
		}
		if g, ok := domain.ParseGender(t.text); ok {
			return literal{domain.GenderValue(g)}, nil
		}
		return nil, fmt.Errorf("unknown identifier %q at %d (variables are written {Name})", t.text, t.pos)
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing ')' for '(' at %d", t.pos)
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %q at %d", t.text, t.pos)
}

func collectVars(n node, visit func(string)) {
	switch n := n.(type) {
	case variable:
		visit(n.name)
	case unary:
		collectVars(n.operand, visit)
	case binary:
		collectVars(n.left, visit)
		collectVars(n.right, visit)
	}
}
