package expr

import "fmt"

// Repo is the read surface Evaluate needs from the model repository (C1).
// Kept here, rather than importing the model package, so expr has no
// dependency on its own consumer; model.Repository satisfies this
// interface. Mirrors the teacher's pattern of evaluating tree nodes by
// reading from an external namespace (parsercommon.Namespace) rather than
// carrying data inline on the node.
type Repo interface {
	// Parameter returns the value of a (possibly indexed) parameter.
	// indices is empty for a scalar parameter.
	Parameter(name string, indices []int) (Value, error)

	// VariableName resolves a (possibly indexed) decision variable
	// reference to its canonical scalar name, e.g. x[3] -> "x3".
	VariableName(name string, indices []int) (string, error)

	// Dexpr returns the expression tree for a decision expression,
	// already specialized for the given indices (empty for a scalar
	// dexpr).
	Dexpr(name string, indices []int) (*Expression, error)

	// IterationSet returns the ordered element values to range over for
	// `iter in name` — integers for an index set, tuple Values for a
	// primitive or tuple set.
	IterationSet(name string) ([]Value, error)

	// TupleAt resolves `setName[index].field` style lookups: the
	// indexth element of an indexed family of tuple sets, or of an
	// index-set-keyed parameter/tuple set.
	TupleAt(setName string, index int) (Value, error)

	// ItemLookup resolves item(setName, key) — the unique tuple
	// instance in setName whose key fields equal key.
	ItemLookup(setName string, key Value) (Value, error)
}

// Evaluate reduces e to a Value under ctx, reading external state (named
// parameters, sets, dexprs, variables) from repo. Every NodeKind from
// ast.go's table is handled exhaustively; unmatched kinds are a
// programming error (should never occur), not a user-facing one.
func Evaluate(e *Expression, ctx EvaluationContext, repo Repo) (Value, error) {
	if e == nil {
		return Value{}, fmt.Errorf("%w: nil expression", ErrUnknownName)
	}

	switch e.Kind {
	case NConstant:
		return Number(e.Number), nil

	case NStringConstant:
		return String(e.Str), nil

	case NParameter:
		// Per spec.md §4.5 identifier resolution order, an iterator bound
		// in the current context takes priority over a declared
		// parameter of the same name.
		if v, ok := ctx.Lookup(e.Name); ok {
			return v, nil
		}
		if repo == nil {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.Name)
		}
		return repo.Parameter(e.Name, nil)

	case NIndexedParameter:
		idx, err := evaluateIndices(e.Indices, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		return repo.Parameter(e.Name, idx)

	case NVariable:
		if v, ok := ctx.Lookup(e.Name); ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("%w: %s", ErrVariableAsNumber, e.Name)

	case NIndexedVariable:
		idx, err := evaluateIndices(e.Indices, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		name, err := repo.VariableName(e.Name, idx)
		if err != nil {
			return Value{}, err
		}
		return VariableMarker(name), nil

	case NBinary:
		return evalBinary(e, ctx, repo)

	case NUnary:
		return evalUnary(e, ctx, repo)

	case NSummation:
		return evalSummation(e, ctx, repo)

	case NFilteredSummation:
		return evalFilteredSummation(e, ctx, repo)

	case NTupleFieldAccess:
		v, ok := ctx.Lookup(e.Name)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.Name)
		}
		return v.Field(e.Field)

	case NDynamicTupleFieldAccess:
		v, err := Evaluate(e.Operand, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		return v.Field(e.Field)

	case NIteratorIndexedTupleFieldAccess:
		iv, ok := ctx.Lookup(e.IterVar)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.IterVar)
		}
		idx, err := iv.AsNumber()
		if err != nil {
			return Value{}, err
		}
		tv, err := repo.TupleAt(e.SetName, int(idx))
		if err != nil {
			return Value{}, err
		}
		return tv.Field(e.Field)

	case NConditional:
		c, err := Evaluate(e.Cond, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		if c.Truthy() {
			return Evaluate(e.Then, ctx, repo)
		}
		return Evaluate(e.Else, ctx, repo)

	case NItemFunction:
		key, err := Evaluate(e.Key, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		return repo.ItemLookup(e.Name, key)

	case NItemFieldAccess:
		v, err := Evaluate(e.Operand, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		return v.Field(e.Field)

	case NTupleKey:
		fields := make(map[string]Value, len(e.Fields))
		for i, f := range e.Fields {
			v, err := Evaluate(f, ctx, repo)
			if err != nil {
				return Value{}, err
			}
			fields[fmt.Sprintf("f%d", i)] = v
		}
		return FromTuple(Tuple{Fields: fields}), nil

	case NDecisionExpressionRef:
		idx, err := evaluateIndices(e.Indices, ctx, repo)
		if err != nil {
			return Value{}, err
		}
		body, err := repo.Dexpr(e.Name, idx)
		if err != nil {
			return Value{}, err
		}
		return Evaluate(body, NewEvaluationContext(), repo)

	default:
		return Value{}, fmt.Errorf("%w: unhandled node kind %d", ErrUnknownName, e.Kind)
	}
}

func evaluateIndices(idxExprs []*Expression, ctx EvaluationContext, repo Repo) ([]int, error) {
	idx := make([]int, len(idxExprs))
	for i, ie := range idxExprs {
		v, err := Evaluate(ie, ctx, repo)
		if err != nil {
			return nil, err
		}
		n, err := v.AsNumber()
		if err != nil {
			return nil, err
		}
		idx[i] = int(n)
	}
	return idx, nil
}

func evalBinary(e *Expression, ctx EvaluationContext, repo Repo) (Value, error) {
	l, err := Evaluate(e.Left, ctx, repo)
	if err != nil {
		return Value{}, err
	}
	r, err := Evaluate(e.Right, ctx, repo)
	if err != nil {
		return Value{}, err
	}

	if e.BinOp.IsRelational() {
		return evalRelational(e.BinOp, l, r)
	}

	ln, err := l.AsNumber()
	if err != nil {
		return Value{}, err
	}
	rn, err := r.AsNumber()
	if err != nil {
		return Value{}, err
	}

	switch e.BinOp {
	case OpAdd:
		return Number(ln + rn), nil
	case OpSub:
		return Number(ln - rn), nil
	case OpMul:
		return Number(ln * rn), nil
	case OpDiv:
		if rn == 0 {
			return Value{}, ErrDivisionByZero
		}
		return Number(ln / rn), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown binary operator %d", ErrUnknownName, e.BinOp)
	}
}

func evalRelational(op BinaryOp, l, r Value) (Value, error) {
	if l.Kind == KindNumber && r.Kind == KindNumber {
		switch op {
		case OpEq:
			return Bool(l.Num == r.Num), nil
		case OpNeq:
			return Bool(l.Num != r.Num), nil
		case OpLt:
			return Bool(l.Num < r.Num), nil
		case OpLte:
			return Bool(l.Num <= r.Num), nil
		case OpGt:
			return Bool(l.Num > r.Num), nil
		case OpGte:
			return Bool(l.Num >= r.Num), nil
		}
	}
	switch op {
	case OpEq:
		return Bool(Equal(l, r)), nil
	case OpNeq:
		return Bool(!Equal(l, r)), nil
	default:
		return Value{}, fmt.Errorf("%w: ordering comparison on non-numeric values", ErrNotNumeric)
	}
}

func evalUnary(e *Expression, ctx EvaluationContext, repo Repo) (Value, error) {
	v, err := Evaluate(e.Operand, ctx, repo)
	if err != nil {
		return Value{}, err
	}
	switch e.UnOp {
	case OpNeg:
		n, err := v.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return Number(-n), nil
	case OpNot:
		return Bool(!v.Truthy()), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown unary operator %d", ErrUnknownName, e.UnOp)
	}
}

func evalSummation(e *Expression, ctx EvaluationContext, repo Repo) (Value, error) {
	elems, err := repo.IterationSet(e.SetName)
	if err != nil {
		return Value{}, err
	}
	total := 0.0
	for _, elem := range elems {
		inner := ctx.Bind(e.IterVar, elem)
		v, err := Evaluate(e.Body, inner, repo)
		if err != nil {
			return Value{}, err
		}
		n, err := v.AsNumber()
		if err != nil {
			return Value{}, err
		}
		total += n
	}
	return Number(total), nil
}

func evalFilteredSummation(e *Expression, ctx EvaluationContext, repo Repo) (Value, error) {
	total := 0.0
	var walk func(i int, cur EvaluationContext) error
	walk = func(i int, cur EvaluationContext) error {
		if i == len(e.Iterators) {
			if e.Filter != nil {
				fv, err := Evaluate(e.Filter, cur, repo)
				if err != nil {
					return err
				}
				if !fv.Truthy() {
					return nil
				}
			}
			v, err := Evaluate(e.Body, cur, repo)
			if err != nil {
				return err
			}
			n, err := v.AsNumber()
			if err != nil {
				return err
			}
			total += n
			return nil
		}

		it := e.Iterators[i]
		elems, err := repo.IterationSet(it.SetName)
		if err != nil {
			return err
		}
		for _, elem := range elems {
			next := cur.Bind(it.Var, elem)
			if it.Filter != nil {
				fv, err := Evaluate(it.Filter, next, repo)
				if err != nil {
					return err
				}
				if !fv.Truthy() {
					continue
				}
			}
			if err := walk(i+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, ctx); err != nil {
		return Value{}, err
	}
	return Number(total), nil
}
