package expansion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// boundIndex records one iterator's bound element during a template
// walk: the value itself plus its 1-based position in the iteration
// order, used for labeling when the element is not an integer (a tuple
// iterated from a tuple set has no numeric spelling).
type boundIndex struct {
	value   expr.Value
	ordinal int
}

func (b boundIndex) render() string {
	switch b.value.Kind {
	case expr.KindNumber:
		return strconv.FormatFloat(b.value.Num, 'g', -1, 64)
	case expr.KindString:
		return b.value.Str
	default:
		return strconv.Itoa(b.ordinal)
	}
}

// instanceLabel derives the expanded constraint's label: `lim[3]`,
// `c[1,2]`, or the bare template label when there are no iterators.
func instanceLabel(t *model.ConstraintTemplate, bound []boundIndex) string {
	base := t.Label
	if base == "" {
		base = fmt.Sprintf("forall_%d", t.Line)
	}
	if len(bound) == 0 {
		return base
	}
	parts := make([]string, len(bound))
	for i, b := range bound {
		parts[i] = b.render()
	}
	return base + "[" + strings.Join(parts, ",") + "]"
}

func templateName(t *model.ConstraintTemplate) string {
	if t.Label != "" {
		return t.Label
	}
	return fmt.Sprintf("forall at line %d", t.Line)
}

// numericIndices extracts the first two integer-valued bound indices for
// the Constraint's Index/SecondIndex diagnostics fields.
func numericIndices(bound []boundIndex) (*int, *int) {
	var out []*int
	for _, b := range bound {
		if b.value.Kind == expr.KindNumber {
			v := int(b.value.Num)
			out = append(out, &v)
		}
	}
	var first, second *int
	if len(out) > 0 {
		first = out[0]
	}
	if len(out) > 1 {
		second = out[1]
	}
	return first, second
}

// foldCoefficients folds every coefficient tree through the instance's
// iterator bindings, per spec.md §4.8's substitution rules: a parameter
// reference stays deferred (resolved at evaluation), but a bare iterator
// becomes its literal value so the stored constraint is self-contained.
func foldCoefficients(coeffs map[string]*expr.Expression, ctx expr.EvaluationContext, repo expr.Repo) map[string]*expr.Expression {
	out := make(map[string]*expr.Expression, len(coeffs))
	for name, c := range coeffs {
		out[name] = exprparse.FoldWithContext(c, ctx, repo)
	}
	return out
}
