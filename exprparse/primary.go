package exprparse

import (
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// parsePrimary handles literals, parenthesized expressions, identifiers
// (with optional index brackets), and the two named function forms
// `sum(...)` and `item(...)`.
func (p *parser) parsePrimary() (*expr.Expression, error) {
	t := p.cur()
	switch t.kind {
	case tkNumber:
		p.advance()
		return expr.Const(t.num), nil

	case tkString:
		p.advance()
		return expr.StringConst(t.text), nil

	case tkLParen:
		p.advance()
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case tkIdent:
		return p.parseIdentLed()

	default:
		return nil, fmt.Errorf("%w: expected a value, got %q", ErrUnexpectedToken, t.text)
	}
}

// parseIdentLed parses everything that can start with a bare identifier:
// the keyword forms `sum`/`item`/`if`, or a (possibly indexed) name
// reference. Returned NVariable/NIndexedVariable nodes are placeholders —
// Resolve (identifiers.go) later reclassifies them against the
// repository's declarations (parameter, dexpr, or true decision
// variable), per spec.md §4.5's resolution order.
func (p *parser) parseIdentLed() (*expr.Expression, error) {
	name := p.advance().text

	switch name {
	case "sum":
		return p.parseSum()
	case "item":
		return p.parseItem()
	case "if":
		return p.parseIfElse()
	}

	if p.cur().kind != tkLBracket {
		// A bare iterator reference is represented the same way as any
		// other bare identifier (NVariable): expr.Evaluate already
		// consults the EvaluationContext before treating an NVariable as
		// a decision-variable marker, so no special-casing is needed here.
		return &expr.Expression{Kind: expr.NVariable, Name: name}, nil
	}

	indices, err := p.parseIndexList()
	if err != nil {
		return nil, err
	}

	// `S[i].field` where i is a single bound iterator: produce
	// IteratorIndexedTupleFieldAccess directly so `.field` access can
	// attach to it without re-deriving the iterator name. Any other
	// shape becomes a plain indexed reference, reclassified later.
	if len(indices) == 1 && indices[0].Kind == expr.NVariable && p.scope.isIterator(indices[0].Name) {
		iterVar := indices[0].Name
		if p.cur().kind == tkDot {
			p.advance()
			field, err := p.expect(tkIdent, "field name after '.'")
			if err != nil {
				return nil, err
			}
			return &expr.Expression{Kind: expr.NIteratorIndexedTupleFieldAccess, SetName: name, IterVar: iterVar, Field: field.text}, nil
		}
	}

	return &expr.Expression{Kind: expr.NIndexedVariable, Name: name, Indices: indices}, nil
}

func (p *parser) parseIndexList() ([]*expr.Expression, error) {
	if _, err := p.expect(tkLBracket, "'['"); err != nil {
		return nil, err
	}
	var out []*expr.Expression
	for {
		e, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.cur().kind == tkComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tkRBracket, "']'"); err != nil {
		return nil, err
	}
	return out, nil
}

// parseSum parses `sum(iter in Set[: filter][, iter2 in Set2 ...]) BODY`
// into a Summation (single iterator, no filter) or FilteredSummation
// (multi-iterator or filtered) node, per spec.md §4.2's table. The
// iterator names come into scope for BODY only.
func (p *parser) parseSum() (*expr.Expression, error) {
	if _, err := p.expect(tkLParen, "'(' after sum"); err != nil {
		return nil, err
	}

	var iters []expr.Iterator
	for {
		varTok, err := p.expect(tkIdent, "iterator variable")
		if err != nil {
			return nil, err
		}
		inTok, err := p.expect(tkIdent, "'in'")
		if err != nil || inTok.text != "in" {
			return nil, fmt.Errorf("%w: expected 'in' in sum iterator", ErrUnexpectedToken)
		}
		setTok, err := p.expect(tkIdent, "set name")
		if err != nil {
			return nil, err
		}
		it := expr.Iterator{Var: varTok.text, SetName: setTok.text}

		if p.cur().kind == tkColon {
			p.advance()
			// Filter expressions may reference earlier iterators in this
			// same sum, but not BODY's own scope (BODY hasn't opened yet).
			innerScope := p.scope.Child(iteratorNames(iters)...).Child(it.Var)
			saved := p.scope
			p.scope = innerScope
			filter, err := p.parseRelational()
			p.scope = saved
			if err != nil {
				return nil, err
			}
			it.Filter = filter
		}

		iters = append(iters, it)
		if p.cur().kind == tkComma {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expect(tkRParen, "')'"); err != nil {
		return nil, err
	}

	// The body extends over one operand only: `sum(i in I) x[i] + 5`
	// is (Σ x[i]) + 5, matching the textual expander's operand-extent
	// rule. Parenthesize for a wider body.
	bodyScope := p.scope.Child(iteratorNames(iters)...)
	saved := p.scope
	p.scope = bodyScope
	body, err := p.parseMultiplicative()
	p.scope = saved
	if err != nil {
		return nil, err
	}

	if len(iters) == 1 && iters[0].Filter == nil {
		return &expr.Expression{Kind: expr.NSummation, IterVar: iters[0].Var, SetName: iters[0].SetName, Body: body}, nil
	}
	return &expr.Expression{Kind: expr.NFilteredSummation, Iterators: iters, Body: body}, nil
}

func iteratorNames(iters []expr.Iterator) []string {
	out := make([]string, len(iters))
	for i, it := range iters {
		out[i] = it.Var
	}
	return out
}

// parseItem parses `item(SetName, <key-expr>)`.
func (p *parser) parseItem() (*expr.Expression, error) {
	if _, err := p.expect(tkLParen, "'(' after item"); err != nil {
		return nil, err
	}
	setTok, err := p.expect(tkIdent, "set name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkComma, "','"); err != nil {
		return nil, err
	}
	key, err := p.parseTupleKeyOrExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkRParen, "')'"); err != nil {
		return nil, err
	}
	return &expr.Expression{Kind: expr.NItemFunction, Name: setTok.text, Key: key}, nil
}

// parseTupleKeyOrExpr parses either a tuple key `<e1,e2,...>` (opened and
// closed by the ordinary '<' and '>' tokens; each field is parsed at
// additive precedence so the closing '>' is not read as a comparison) or a
// single scalar expression.
func (p *parser) parseTupleKeyOrExpr() (*expr.Expression, error) {
	if p.cur().kind == tkLt {
		p.advance()
		var fields []*expr.Expression
		for {
			e, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			fields = append(fields, e)
			if p.cur().kind == tkComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tkGt, "'>' closing tuple key"); err != nil {
			return nil, err
		}
		return &expr.Expression{Kind: expr.NTupleKey, Fields: fields}, nil
	}
	return p.parseTernary()
}

// parseIfElse parses the alternate ternary spelling `if (cond) then else`.
func (p *parser) parseIfElse() (*expr.Expression, error) {
	if _, err := p.expect(tkLParen, "'(' after if"); err != nil {
		return nil, err
	}
	cond, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tkRParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	elseTok, err := p.expect(tkIdent, "'else'")
	if err != nil || elseTok.text != "else" {
		return nil, fmt.Errorf("%w: expected 'else' after if-then", ErrUnexpectedToken)
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &expr.Expression{Kind: expr.NConditional, Cond: cond, Then: then, Else: els}, nil
}
