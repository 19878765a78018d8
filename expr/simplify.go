package expr

// Simplify constant-folds e, returning a new tree. Sub-expressions that
// cannot be folded (they reference a parameter, variable, or anything
// needing repo/ctx) are left unchanged rather than erroring — per spec.md
// §4.2, simplify "fails silently on sub-expressions that cannot be
// folded." Calling Simplify twice is idempotent: Simplify(Simplify(e))
// deep-equals Simplify(e).
func Simplify(e *Expression) *Expression {
	if e == nil {
		return nil
	}

	switch e.Kind {
	case NConstant, NStringConstant, NParameter, NVariable:
		return e

	case NIndexedParameter, NIndexedVariable, NDecisionExpressionRef:
		cp := *e
		cp.Indices = simplifyAll(e.Indices)
		return &cp

	case NBinary:
		left := Simplify(e.Left)
		right := Simplify(e.Right)
		if left.Kind == NConstant && right.Kind == NConstant && !e.BinOp.IsRelational() {
			if folded, ok := foldConstBinary(e.BinOp, left.Number, right.Number); ok {
				return Const(folded)
			}
		}
		return &Expression{Kind: NBinary, BinOp: e.BinOp, Left: left, Right: right, Line: e.Line}

	case NUnary:
		operand := Simplify(e.Operand)
		if operand.Kind == NConstant {
			switch e.UnOp {
			case OpNeg:
				return Const(-operand.Number)
			case OpNot:
				if operand.Number == 0 {
					return Const(1)
				}
				return Const(0)
			}
		}
		return &Expression{Kind: NUnary, UnOp: e.UnOp, Operand: operand, Line: e.Line}

	case NSummation:
		cp := *e
		cp.Body = Simplify(e.Body)
		return &cp

	case NFilteredSummation:
		cp := *e
		cp.Body = Simplify(e.Body)
		if e.Filter != nil {
			cp.Filter = Simplify(e.Filter)
		}
		iters := make([]Iterator, len(e.Iterators))
		for i, it := range e.Iterators {
			iters[i] = it
			if it.Filter != nil {
				f := Simplify(it.Filter)
				iters[i].Filter = f
			}
		}
		cp.Iterators = iters
		return &cp

	case NTupleFieldAccess, NIteratorIndexedTupleFieldAccess:
		return e

	case NDynamicTupleFieldAccess, NItemFieldAccess:
		cp := *e
		cp.Operand = Simplify(e.Operand)
		return &cp

	case NConditional:
		cond := Simplify(e.Cond)
		then := Simplify(e.Then)
		els := Simplify(e.Else)
		if cond.Kind == NConstant {
			if cond.Number != 0 {
				return then
			}
			return els
		}
		return &Expression{Kind: NConditional, Cond: cond, Then: then, Else: els, Line: e.Line}

	case NItemFunction:
		cp := *e
		cp.Key = Simplify(e.Key)
		return &cp

	case NTupleKey:
		cp := *e
		cp.Fields = simplifyAll(e.Fields)
		return &cp

	default:
		return e
	}
}

func simplifyAll(es []*Expression) []*Expression {
	if es == nil {
		return nil
	}
	out := make([]*Expression, len(es))
	for i, e := range es {
		out[i] = Simplify(e)
	}
	return out
}

func foldConstBinary(op BinaryOp, l, r float64) (float64, bool) {
	switch op {
	case OpAdd:
		return l + r, true
	case OpSub:
		return l - r, true
	case OpMul:
		return l * r, true
	case OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	default:
		return 0, false
	}
}
