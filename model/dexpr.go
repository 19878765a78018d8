package model

import (
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// Dexpr is a named decision expression (spec.md §3): substitutable
// anywhere a variable or numeric expression is allowed. Indexing reuses
// the iterator-list grammar already defined for forall/bracket templates
// (`dexpr type name[i in S, ...] = expr;`) rather than bare set names,
// since the body must name its index variables to reference them — an
// ambiguity spec.md leaves open; resolved here and recorded in
// DESIGN.md.
type Dexpr struct {
	Name      string
	ValueType ValueType
	Iterators []expr.Iterator // empty for a scalar dexpr
	Body      *expr.Expression
}

// Dims reports dimensionality (0 = scalar).
func (d *Dexpr) Dims() int { return len(d.Iterators) }

// Instantiate specializes Body for a concrete index tuple, binding each
// declared iterator to its corresponding index value via
// expr.BindIterator, per the Expression Tree's DecisionExpressionRef
// contract ("evaluates it in a fresh ctx with iterators erased").
func (d *Dexpr) Instantiate(indices []int) (*expr.Expression, error) {
	if len(indices) != d.Dims() {
		return nil, fmt.Errorf("%w: dexpr %s wants %d, got %d", ErrWrongIndexCount, d.Name, d.Dims(), len(indices))
	}
	body := d.Body
	for i, it := range d.Iterators {
		body = expr.BindIterator(body, it.Var, float64(indices[i]))
	}
	return body, nil
}
