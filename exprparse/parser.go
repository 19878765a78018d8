package exprparse

import (
	"fmt"
	"strconv"

	"github.com/oplc-lang/oplc/expr"
)

// Scope tracks the iterator variable names currently in lexical scope
// (from an enclosing forall/sum/comprehension iterator list), so the
// parser can tell `S[i].field` (i a bound iterator ->
// IteratorIndexedTupleFieldAccess) apart from `S[3].field` (a plain
// indexed lookup -> DynamicTupleFieldAccess over an IndexedParameter).
type Scope struct {
	iterators map[string]bool
	parent    *Scope
}

// NewScope returns an empty root scope.
func NewScope() *Scope { return &Scope{iterators: map[string]bool{}} }

// Child returns a new scope nested under s with the given iterator names
// additionally bound.
func (s *Scope) Child(names ...string) *Scope {
	child := &Scope{iterators: map[string]bool{}, parent: s}
	for _, n := range names {
		child.iterators[n] = true
	}
	return child
}

func (s *Scope) isIterator(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.iterators[name] {
			return true
		}
	}
	return false
}

type parser struct {
	toks  []token
	pos   int
	scope *Scope

	allowJuxtaposition bool
}

// Parse parses a single expression from src under scope (pass NewScope()
// at the top level). Returns an error if trailing tokens remain after a
// complete expression, or if the implicit-multiplication whitelist is
// violated (spec.md §4.5). The `2x` coefficient whitelist is enabled;
// use ParseStrict to disable it.
func Parse(src string, scope *Scope) (*expr.Expression, error) {
	return parse(src, scope, true)
}

// ParseStrict parses like Parse but rejects the coefficient
// juxtaposition whitelist too, for the strict language profile.
func ParseStrict(src string, scope *Scope) (*expr.Expression, error) {
	return parse(src, scope, false)
}

func parse(src string, scope *Scope, allowJuxtaposition bool) (*expr.Expression, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		scope = NewScope()
	}
	p := &parser{toks: toks, scope: scope, allowJuxtaposition: allowJuxtaposition}
	e, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tkEOF {
		return nil, fmt.Errorf("%w: trailing input at %q", ErrUnexpectedToken, p.cur().text)
	}
	return e, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	if p.cur().kind != k {
		return token{}, fmt.Errorf("%w: expected %s", ErrUnexpectedToken, what)
	}
	return p.advance(), nil
}

// parseTernary: lowest precedence, `cond ? then : else`.
func (p *parser) parseTernary() (*expr.Expression, error) {
	cond, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tkQuestion {
		return cond, nil
	}
	p.advance()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkColon, "':' in ternary expression"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &expr.Expression{Kind: expr.NConditional, Cond: cond, Then: then, Else: els}, nil
}

// parseRelational: == != < <= > >=, left-associative (chaining is
// unusual in this grammar but tolerated left-to-right).
func (p *parser) parseRelational() (*expr.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for isRelop(p.cur().kind) {
		op := relOpFor(p.advance().kind)
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = expr.Binary(op, left, right)
	}
	return left, nil
}

func relOpFor(k tokKind) expr.BinaryOp {
	switch k {
	case tkEq:
		return expr.OpEq
	case tkNeq:
		return expr.OpNeq
	case tkLt:
		return expr.OpLt
	case tkLte:
		return expr.OpLte
	case tkGt:
		return expr.OpGt
	case tkGte:
		return expr.OpGte
	default:
		return expr.OpEq
	}
}

func (p *parser) parseAdditive() (*expr.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tkPlus || p.cur().kind == tkMinus {
		op := expr.OpAdd
		if p.cur().kind == tkMinus {
			op = expr.OpSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.Binary(op, left, right)
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*expr.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().kind {
		case tkStar:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = expr.Binary(expr.OpMul, left, right)
		case tkSlash:
			p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = expr.Binary(expr.OpDiv, left, right)
		default:
			return p.checkImplicitMultiply(left)
		}
	}
}

// checkImplicitMultiply handles spec.md §4.5's whitelisted implicit
// multiplication (a numeric literal immediately followed by an
// identifier, e.g. `2x`) and rejects the general case of two consecutive
// identifier-shaped operands with no operator between them.
func (p *parser) checkImplicitMultiply(left *expr.Expression) (*expr.Expression, error) {
	if p.cur().kind != tkIdent && p.cur().kind != tkNumber {
		return left, nil
	}
	if p.cur().kind == tkIdent && isReservedWord(p.cur().text) {
		// `10 else ...`, `x in ...`: a keyword ends the operand, it is
		// never an implicit multiplicand.
		return left, nil
	}
	if p.allowJuxtaposition && left.Kind == expr.NConstant && p.cur().kind == tkIdent {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		combined := expr.Binary(expr.OpMul, left, right)
		return p.checkImplicitMultiply(combined)
	}
	a := operandName(left)
	b := p.cur().text
	return nil, fmt.Errorf("%w: consecutive identifiers '%s' and '%s' without operator; did you mean '%s * %s'?",
		ErrImplicitMultiply, a, b, a, b)
}

// isReservedWord reports the keyword bigram tails that terminate an
// operand rather than starting a new one.
func isReservedWord(s string) bool {
	switch s {
	case "else", "in":
		return true
	default:
		return false
	}
}

// operandName renders a left operand for the implicit-multiplication
// diagnostic: the identifier itself when the operand is a simple name,
// otherwise a generic placeholder.
func operandName(e *expr.Expression) string {
	switch e.Kind {
	case expr.NVariable, expr.NParameter, expr.NIndexedVariable, expr.NIndexedParameter, expr.NDecisionExpressionRef:
		return e.Name
	case expr.NConstant:
		return strconv.FormatFloat(e.Number, 'g', -1, 64)
	default:
		return "<expression>"
	}
}

func (p *parser) parseUnary() (*expr.Expression, error) {
	switch p.cur().kind {
	case tkMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary(expr.OpNeg, operand), nil
	case tkBang:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Unary(expr.OpNot, operand), nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix handles function calls and `.field` access layered on a
// primary, per the precedence table's highest two levels.
func (p *parser) parsePostfix() (*expr.Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tkDot {
		p.advance()
		field, err := p.expect(tkIdent, "field name after '.'")
		if err != nil {
			return nil, err
		}
		e = fieldAccessFor(e, field.text)
	}
	return e, nil
}

// fieldAccessFor builds the right Expression variant for `base.field`:
// a bare iterator name gets TupleFieldAccess (resolved against the bound
// tuple value at evaluation time), anything else gets
// DynamicTupleFieldAccess over the already-parsed operand.
func fieldAccessFor(base *expr.Expression, field string) *expr.Expression {
	if base.Kind == expr.NVariable && len(base.Indices) == 0 {
		return &expr.Expression{Kind: expr.NTupleFieldAccess, Name: base.Name, Field: field}
	}
	if base.Kind == expr.NItemFunction {
		return &expr.Expression{Kind: expr.NItemFieldAccess, Operand: base, Field: field}
	}
	return &expr.Expression{Kind: expr.NDynamicTupleFieldAccess, Operand: base, Field: field}
}
