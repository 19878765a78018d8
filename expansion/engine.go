// Package expansion implements the Expansion Engine (C8): materializing
// forall statements and bracket-indexed constraint templates into scalar
// linear constraints over the cartesian products of their (possibly
// filtered) index sets.
package expansion

import (
	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// Engine expands the repository's pending templates. Driven externally
// after data binding (spec.md §5 ordering).
type Engine struct {
	repo *model.Repository
	diag *diagnostics.Session
}

// New returns an Engine over repo reporting to diag.
func New(repo *model.Repository, diag *diagnostics.Session) *Engine {
	return &Engine{repo: repo, diag: diag}
}

// Expand materializes bracket-indexed templates first, then forall
// statements, then clears both template lists so a re-expansion cannot
// double-count (spec.md §3 Lifecycles, §8 property 6). Per-instance
// errors accumulate without halting the remaining instances.
func (e *Engine) Expand() {
	for _, t := range e.repo.IndexedEquationTmpls {
		e.expandTemplate(t)
	}
	for _, t := range e.repo.ForallStatements {
		e.expandTemplate(t)
	}
	e.repo.ClearIndexedEquationTemplates()
	e.repo.ClearForallStatements()
}

// expandTemplate walks the template's iterators in declaration order,
// outer iterator varying slowest. Each nesting level evaluates its
// filter in the context built so far and prunes the subtree when falsy.
func (e *Engine) expandTemplate(t *model.ConstraintTemplate) {
	bound := make([]boundIndex, 0, len(t.Iterators))

	var walk func(i int, ctx expr.EvaluationContext)
	walk = func(i int, ctx expr.EvaluationContext) {
		if i == len(t.Iterators) {
			e.emit(t, ctx, bound)
			return
		}
		it := t.Iterators[i]
		elems, err := e.repo.IterationSet(it.SetName)
		if err != nil {
			e.diag.Errorf(t.Line, "", "%s: %v", templateName(t), err)
			return
		}
		for ordinal, elem := range elems {
			next := ctx.Bind(it.Var, elem)
			if it.Filter != nil {
				fv, err := expr.Evaluate(it.Filter, next, e.repo)
				if err != nil {
					e.diag.Errorf(t.Line, "", "%s: filter: %v", templateName(t), err)
					continue
				}
				if !fv.Truthy() {
					continue
				}
			}
			bound = append(bound, boundIndex{value: elem, ordinal: ordinal + 1})
			walk(i+1, next)
			bound = bound[:len(bound)-1]
		}
	}

	walk(0, expr.NewEvaluationContext())
}

// emit linearizes one concrete instance of the template under ctx and
// adds it to the repository. Coefficient and constant trees are folded
// through the binding so no iterator variable escapes its scope.
func (e *Engine) emit(t *model.ConstraintTemplate, ctx expr.EvaluationContext, bound []boundIndex) {
	label := instanceLabel(t, bound)

	lc, err := exprparse.LinearizeConstraint(t.LHS, t.RHS, t.Op, ctx, e.repo)
	if err != nil {
		e.diag.Errorf(t.Line, "", "%s: %v", label, err)
		return
	}

	c := &model.Constraint{
		Label:        label,
		BaseName:     t.Label,
		Coefficients: foldCoefficients(lc.Coeffs, ctx, e.repo),
		Op:           lc.Op,
		Constant:     exprparse.FoldWithContext(lc.Constant, ctx, e.repo),
		Line:         t.Line,
	}
	if c.BaseName == "" {
		c.BaseName = label
	}
	first, second := numericIndices(bound)
	c.Index = first
	c.SecondIndex = second

	// Expansion runs after data binding, so every deferred reference must
	// resolve now; a coefficient or constant that still cannot evaluate
	// means a declared external was never bound.
	if err := validateResolved(c, e.repo); err != nil {
		e.diag.Errorf(t.Line, "", "%s: %v", label, err)
		return
	}

	e.repo.AddEquation(c)
}

func validateResolved(c *model.Constraint, repo expr.Repo) error {
	if c.Constant != nil {
		if _, err := expr.Evaluate(c.Constant, expr.NewEvaluationContext(), repo); err != nil {
			return err
		}
	}
	for _, coeff := range c.Coefficients {
		if _, err := expr.Evaluate(coeff, expr.NewEvaluationContext(), repo); err != nil {
			return err
		}
	}
	return nil
}
