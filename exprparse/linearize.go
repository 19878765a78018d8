package exprparse

import (
	"errors"
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// Sentinel errors for linearization, the degenerate outcomes spec.md
// §4.5/§8 names.
var (
	ErrNonlinear     = errors.New("nonlinear term: product of two variable-bearing subexpressions")
	ErrTautology     = errors.New("constraint is a tautology")
	ErrContradiction = errors.New("constraint is a contradiction")
)

// LinearForm is a side of a constraint reduced to Σcⱼ·xⱼ + constant.
// Coefficients stay Expression trees, per spec.md §4.5 ("Coefficients are
// themselves Expression trees (so they may contain parameter references
// that get resolved at binding time)"), rather than being evaluated here.
type LinearForm struct {
	Coeffs   map[string]*expr.Expression
	Constant *expr.Expression
}

// Linearize reduces a resolved Expression into a LinearForm by
// recursively collecting per-variable coefficients, distributing
// multiplication/division by constant-valued subexpressions over sums as
// it goes, including products the textual parentheses-distributor pass
// (preprocess.DistributeParentheses, run by the dispatcher before parsing)
// leaves unchanged. ctx/repo let index expressions inside
// NIndexedVariable resolve to their canonical scalar names.
func Linearize(e *expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) (LinearForm, error) {
	switch e.Kind {
	case expr.NVariable:
		if _, bound := ctx.Lookup(e.Name); bound {
			// A bound iterator used bare: not a coefficient carrier, just
			// a constant once resolved.
			v, err := expr.Evaluate(e, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			return constForm(valueExpr(v)), nil
		}
		return LinearForm{Coeffs: map[string]*expr.Expression{e.Name: expr.Const(1)}}, nil

	case expr.NIndexedVariable:
		name, err := resolveVariableName(e, ctx, repo)
		if err != nil {
			return LinearForm{}, err
		}
		return LinearForm{Coeffs: map[string]*expr.Expression{name: expr.Const(1)}}, nil

	case expr.NDecisionExpressionRef:
		idx := make([]int, len(e.Indices))
		for i, ie := range e.Indices {
			v, err := expr.Evaluate(ie, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			n, err := v.AsNumber()
			if err != nil {
				return LinearForm{}, err
			}
			idx[i] = int(n)
		}
		body, err := repo.Dexpr(e.Name, idx)
		if err != nil {
			return LinearForm{}, err
		}
		// Substituted into the host with iterators erased, per the
		// DecisionExpressionRef contract.
		return Linearize(body, expr.NewEvaluationContext(), repo)

	case expr.NSummation:
		return linearizeSum(e, []expr.Iterator{{Var: e.IterVar, SetName: e.SetName}}, nil, ctx, repo)

	case expr.NFilteredSummation:
		return linearizeSum(e, e.Iterators, e.Filter, ctx, repo)

	case expr.NUnary:
		if e.UnOp == expr.OpNeg {
			inner, err := Linearize(e.Operand, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			return negate(inner), nil
		}

	case expr.NBinary:
		switch e.BinOp {
		case expr.OpAdd:
			l, err := Linearize(e.Left, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			r, err := Linearize(e.Right, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			return add(l, r), nil

		case expr.OpSub:
			l, err := Linearize(e.Left, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			r, err := Linearize(e.Right, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			return add(l, negate(r)), nil

		case expr.OpMul:
			return linearizeMul(e.Left, e.Right, ctx, repo)

		case expr.OpDiv:
			l, err := Linearize(e.Left, ctx, repo)
			if err != nil {
				return LinearForm{}, err
			}
			if hasVariables(e.Right, ctx) {
				return LinearForm{}, ErrNonlinear
			}
			divisor := e.Right
			return scale(l, expr.Binary(expr.OpDiv, expr.Const(1), divisor)), nil
		}
	}

	// Anything else (constants, parameters, tuple field access,
	// conditionals...) has no variable content of its own at this node;
	// treat its evaluated-or-deferred value as the constant term so
	// downstream binding-time evaluation still works.
	if hasVariables(e, ctx) {
		return LinearForm{}, fmt.Errorf("%w: unsupported construct in linear position", ErrNonlinear)
	}
	return constForm(e), nil
}

func linearizeMul(left, right *expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) (LinearForm, error) {
	leftHasVar := hasVariables(left, ctx)
	rightHasVar := hasVariables(right, ctx)
	if leftHasVar && rightHasVar {
		return LinearForm{}, ErrNonlinear
	}
	if !leftHasVar && !rightHasVar {
		return constForm(expr.Binary(expr.OpMul, left, right)), nil
	}
	if leftHasVar {
		inner, err := Linearize(left, ctx, repo)
		if err != nil {
			return LinearForm{}, err
		}
		return scale(inner, right), nil
	}
	inner, err := Linearize(right, ctx, repo)
	if err != nil {
		return LinearForm{}, err
	}
	return scale(inner, left), nil
}

// linearizeSum expands a summation over its iterators' resolved sets,
// linearizing the body under each binding and accumulating the resulting
// forms. Coefficient trees produced under an iterator binding are folded
// through that binding before accumulation, so no free iterator variable
// escapes the summation's scope. Every summation node reaches this
// function; a body with no variable content contributes only to the
// accumulated constant.
func linearizeSum(e *expr.Expression, iters []expr.Iterator, filter *expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) (LinearForm, error) {
	acc := constForm(expr.Const(0))

	var walk func(i int, cur expr.EvaluationContext) error
	walk = func(i int, cur expr.EvaluationContext) error {
		if i == len(iters) {
			if filter != nil {
				fv, err := expr.Evaluate(filter, cur, repo)
				if err != nil {
					return err
				}
				if !fv.Truthy() {
					return nil
				}
			}
			term, err := Linearize(e.Body, cur, repo)
			if err != nil {
				return err
			}
			acc = add(acc, foldForm(term, cur, repo))
			return nil
		}
		it := iters[i]
		elems, err := repo.IterationSet(it.SetName)
		if err != nil {
			return err
		}
		for _, elem := range elems {
			next := cur.Bind(it.Var, elem)
			if it.Filter != nil {
				fv, err := expr.Evaluate(it.Filter, next, repo)
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
		return LinearForm{}, err
	}
	return acc, nil
}

// FoldWithContext reduces e as far as the given context and repository
// allow: a full evaluation when every reference resolves, otherwise a
// substitution of the numerically-bound iterators so the returned tree
// carries no reference to a variable that leaves scope. Used by the
// linearizer's summation expansion and by the expansion engine when
// coefficients must outlive their iterator bindings.
func FoldWithContext(e *expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) *expr.Expression {
	if e == nil {
		return nil
	}
	if !hasVariables(e, ctx) {
		if v, err := expr.Evaluate(e, ctx, repo); err == nil {
			return valueExpr(v)
		}
	}
	out := e
	for name, v := range ctx.Bindings() {
		if v.Kind == expr.KindNumber {
			out = expr.BindIterator(out, name, v.Num)
		}
	}
	return out
}

func foldForm(f LinearForm, ctx expr.EvaluationContext, repo expr.Repo) LinearForm {
	out := LinearForm{Coeffs: make(map[string]*expr.Expression, len(f.Coeffs))}
	for name, c := range f.Coeffs {
		out.Coeffs[name] = FoldWithContext(c, ctx, repo)
	}
	if f.Constant != nil {
		out.Constant = FoldWithContext(f.Constant, ctx, repo)
	}
	return out
}

func resolveVariableName(e *expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) (string, error) {
	idx := make([]int, len(e.Indices))
	for i, ie := range e.Indices {
		v, err := expr.Evaluate(ie, ctx, repo)
		if err != nil {
			return "", err
		}
		n, err := v.AsNumber()
		if err != nil {
			return "", err
		}
		idx[i] = int(n)
	}
	return repo.VariableName(e.Name, idx)
}

// hasVariables reports whether e contains a decision-variable reference
// not bound to a concrete value in ctx — i.e. whether evaluating it
// requires linearization rather than plain expr.Evaluate. Index
// expressions are not descended: an index must evaluate to an integer,
// so a name there is an iterator or a parameter, never a decision
// variable.
func hasVariables(e *expr.Expression, ctx expr.EvaluationContext) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case expr.NVariable:
		_, bound := ctx.Lookup(e.Name)
		return !bound
	case expr.NIndexedVariable, expr.NDecisionExpressionRef:
		return true
	}
	return hasVariables(e.Left, ctx) || hasVariables(e.Right, ctx) ||
		hasVariables(e.Operand, ctx) || hasVariables(e.Body, ctx) ||
		hasVariables(e.Cond, ctx) || hasVariables(e.Then, ctx) ||
		hasVariables(e.Else, ctx) || hasVariables(e.Key, ctx)
}

func valueExpr(v expr.Value) *expr.Expression {
	switch v.Kind {
	case expr.KindString:
		return expr.StringConst(v.Str)
	case expr.KindBool:
		if v.Bool {
			return expr.Const(1)
		}
		return expr.Const(0)
	default:
		return expr.Const(v.Num)
	}
}

func constForm(constant *expr.Expression) LinearForm {
	return LinearForm{Constant: constant}
}

func negate(f LinearForm) LinearForm {
	out := LinearForm{Coeffs: make(map[string]*expr.Expression, len(f.Coeffs))}
	for name, c := range f.Coeffs {
		out.Coeffs[name] = expr.Unary(expr.OpNeg, c)
	}
	if f.Constant != nil {
		out.Constant = expr.Unary(expr.OpNeg, f.Constant)
	}
	return out
}

func scale(f LinearForm, factor *expr.Expression) LinearForm {
	out := LinearForm{Coeffs: make(map[string]*expr.Expression, len(f.Coeffs))}
	for name, c := range f.Coeffs {
		out.Coeffs[name] = expr.Binary(expr.OpMul, c, factor)
	}
	if f.Constant != nil {
		out.Constant = expr.Binary(expr.OpMul, f.Constant, factor)
	}
	return out
}

func add(a, b LinearForm) LinearForm {
	out := LinearForm{Coeffs: make(map[string]*expr.Expression, len(a.Coeffs)+len(b.Coeffs))}
	for name, c := range a.Coeffs {
		out.Coeffs[name] = c
	}
	for name, c := range b.Coeffs {
		if existing, ok := out.Coeffs[name]; ok {
			out.Coeffs[name] = expr.Binary(expr.OpAdd, existing, c)
		} else {
			out.Coeffs[name] = c
		}
	}
	switch {
	case a.Constant != nil && b.Constant != nil:
		out.Constant = expr.Binary(expr.OpAdd, a.Constant, b.Constant)
	case a.Constant != nil:
		out.Constant = a.Constant
	case b.Constant != nil:
		out.Constant = b.Constant
	}
	return out
}

// LinearConstraint is the fully reduced Σcⱼ·xⱼ OP k comparison, ready to
// become a model.Constraint.
type LinearConstraint struct {
	Coeffs   map[string]*expr.Expression
	Op       expr.BinaryOp
	Constant *expr.Expression
}

// LinearizeConstraint combines both sides of `lhs OP rhs` into canonical
// form: the RHS's coefficients are negated and folded into the LHS's, and
// the constant is RHS_constant - LHS_constant, per spec.md §4.5. It
// rejects the two degenerate outcomes spec.md §4.5/§8 name once every
// coefficient and the constant simplify to a literal number.
func LinearizeConstraint(lhs, rhs *expr.Expression, op expr.BinaryOp, ctx expr.EvaluationContext, repo expr.Repo) (LinearConstraint, error) {
	l, err := Linearize(lhs, ctx, repo)
	if err != nil {
		return LinearConstraint{}, err
	}
	r, err := Linearize(rhs, ctx, repo)
	if err != nil {
		return LinearConstraint{}, err
	}

	combined := add(l, negate(r))
	constant := expr.Const(0)
	if combined.Constant != nil {
		constant = expr.Unary(expr.OpNeg, combined.Constant)
	}

	if allZero(combined.Coeffs) {
		c := expr.Simplify(constant)
		if c.Kind == expr.NConstant && c.Number == 0 {
			return LinearConstraint{}, ErrTautology
		}
		if c.Kind == expr.NConstant {
			return LinearConstraint{}, ErrContradiction
		}
	}

	return LinearConstraint{Coeffs: combined.Coeffs, Op: op, Constant: constant}, nil
}

func allZero(coeffs map[string]*expr.Expression) bool {
	for _, c := range coeffs {
		sc := expr.Simplify(c)
		if sc.Kind != expr.NConstant || sc.Number != 0 {
			return false
		}
	}
	return true
}
