package exprparse

import "github.com/oplc-lang/oplc/expr"

// Declarations is the minimal "what's been declared so far" surface
// Resolve needs to reclassify a parsed tree's bare-identifier
// placeholders. model.Repository satisfies this directly.
type Declarations interface {
	IsParameter(name string) bool
	IsDexpr(name string) bool
	IsVariable(name string) bool
}

// Resolve walks e, reclassifying NVariable/NIndexedVariable placeholder
// nodes the parser emitted for every bare identifier it couldn't
// otherwise categorize, per spec.md §4.5's resolution order:
//
//  1. iterator variable bound in context       -> left as NVariable (see eval.go)
//  2. constant                                  -> already NConstant/NStringConstant from the lexer
//  3. parameter by name                         -> NParameter / NIndexedParameter
//  4. decision expression                       -> NDecisionExpressionRef
//  5. indexed variable                          -> NIndexedVariable (unchanged)
//  6. otherwise                                  -> NVariable placeholder (validated later)
//
// Resolve does not touch true decision-variable references (step 5/6):
// they are already correctly shaped by the parser, and evaluation
// resolves their canonical index-normalized name lazily via
// repo.VariableName.
func Resolve(e *expr.Expression, decl Declarations) *expr.Expression {
	if e == nil {
		return nil
	}

	switch e.Kind {
	case expr.NVariable:
		if decl.IsParameter(e.Name) {
			return &expr.Expression{Kind: expr.NParameter, Name: e.Name, Line: e.Line}
		}
		if decl.IsDexpr(e.Name) {
			return &expr.Expression{Kind: expr.NDecisionExpressionRef, Name: e.Name, Line: e.Line}
		}
		return e

	case expr.NIndexedVariable:
		indices := resolveAll(e.Indices, decl)
		if decl.IsParameter(e.Name) {
			return &expr.Expression{Kind: expr.NIndexedParameter, Name: e.Name, Indices: indices, Line: e.Line}
		}
		if decl.IsDexpr(e.Name) {
			return &expr.Expression{Kind: expr.NDecisionExpressionRef, Name: e.Name, Indices: indices, Line: e.Line}
		}
		cp := *e
		cp.Indices = indices
		return &cp

	case expr.NBinary:
		cp := *e
		cp.Left = Resolve(e.Left, decl)
		cp.Right = Resolve(e.Right, decl)
		return &cp

	case expr.NUnary:
		cp := *e
		cp.Operand = Resolve(e.Operand, decl)
		return &cp

	case expr.NSummation:
		cp := *e
		cp.Body = Resolve(e.Body, decl)
		return &cp

	case expr.NFilteredSummation:
		cp := *e
		cp.Body = Resolve(e.Body, decl)
		if e.Filter != nil {
			cp.Filter = Resolve(e.Filter, decl)
		}
		iters := make([]expr.Iterator, len(e.Iterators))
		for i, it := range e.Iterators {
			iters[i] = it
			if it.Filter != nil {
				iters[i].Filter = Resolve(it.Filter, decl)
			}
		}
		cp.Iterators = iters
		return &cp

	case expr.NDynamicTupleFieldAccess, expr.NItemFieldAccess:
		cp := *e
		cp.Operand = Resolve(e.Operand, decl)
		return &cp

	case expr.NConditional:
		cp := *e
		cp.Cond = Resolve(e.Cond, decl)
		cp.Then = Resolve(e.Then, decl)
		cp.Else = Resolve(e.Else, decl)
		return &cp

	case expr.NItemFunction:
		cp := *e
		cp.Key = Resolve(e.Key, decl)
		return &cp

	case expr.NTupleKey:
		cp := *e
		cp.Fields = resolveAll(e.Fields, decl)
		return &cp

	default:
		return e
	}
}

func resolveAll(es []*expr.Expression, decl Declarations) []*expr.Expression {
	if es == nil {
		return nil
	}
	out := make([]*expr.Expression, len(es))
	for i, e := range es {
		out[i] = Resolve(e, decl)
	}
	return out
}
