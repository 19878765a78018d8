package expr

// BindIterator returns a copy of e with every bare leaf reference to name
// (an NVariable or NParameter with no indices — the two kinds a bare
// identifier can parse into before declaration lookup) replaced by a
// literal constant node carrying value. Used by model.Dexpr to specialize
// a decision expression's body for a concrete index tuple ahead of
// evaluation, since a DecisionExpressionRef is evaluated in a fresh
// EvaluationContext (spec.md §4.2's table: "resolves to the stored dexpr
// tree and evaluates it in a fresh ctx with iterators erased").
func BindIterator(e *Expression, name string, value float64) *Expression {
	if e == nil {
		return nil
	}

	switch e.Kind {
	case NConstant:
		return e

	case NVariable, NParameter:
		if e.Name == name && len(e.Indices) == 0 {
			return Const(value)
		}
		return e

	case NIndexedParameter, NIndexedVariable, NDecisionExpressionRef:
		cp := *e
		cp.Indices = bindIteratorAll(e.Indices, name, value)
		return &cp

	case NBinary:
		return &Expression{Kind: NBinary, BinOp: e.BinOp, Line: e.Line,
			Left:  BindIterator(e.Left, name, value),
			Right: BindIterator(e.Right, name, value)}

	case NUnary:
		return &Expression{Kind: NUnary, UnOp: e.UnOp, Line: e.Line,
			Operand: BindIterator(e.Operand, name, value)}

	case NSummation:
		cp := *e
		if e.IterVar != name {
			cp.Body = BindIterator(e.Body, name, value)
		}
		return &cp

	case NFilteredSummation:
		cp := *e
		shadowed := false
		for _, it := range e.Iterators {
			if it.Var == name {
				shadowed = true
			}
		}
		if !shadowed {
			cp.Body = BindIterator(e.Body, name, value)
			if e.Filter != nil {
				cp.Filter = BindIterator(e.Filter, name, value)
			}
		}
		return &cp

	case NTupleFieldAccess, NIteratorIndexedTupleFieldAccess:
		return e

	case NDynamicTupleFieldAccess, NItemFieldAccess:
		cp := *e
		cp.Operand = BindIterator(e.Operand, name, value)
		return &cp

	case NConditional:
		return &Expression{Kind: NConditional, Line: e.Line,
			Cond: BindIterator(e.Cond, name, value),
			Then: BindIterator(e.Then, name, value),
			Else: BindIterator(e.Else, name, value)}

	case NItemFunction:
		cp := *e
		cp.Key = BindIterator(e.Key, name, value)
		return &cp

	case NTupleKey:
		cp := *e
		cp.Fields = bindIteratorAll(e.Fields, name, value)
		return &cp

	default:
		return e
	}
}

func bindIteratorAll(es []*Expression, name string, value float64) []*Expression {
	if es == nil {
		return nil
	}
	out := make([]*Expression, len(es))
	for i, e := range es {
		out[i] = BindIterator(e, name, value)
	}
	return out
}
