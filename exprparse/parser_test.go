package exprparse

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc/expr"
)

func mustEval(t *testing.T, src string) float64 {
	t.Helper()
	e, err := Parse(src, NewScope())
	assert.NoError(t, err)
	v, err := expr.Evaluate(e, expr.NewEvaluationContext(), nil)
	assert.NoError(t, err)
	n, err := v.AsNumber()
	assert.NoError(t, err)
	return n
}

func TestParsePrecedence(t *testing.T) {
	assert.Equal(t, 7.0, mustEval(t, "1 + 2 * 3"))
	assert.Equal(t, 9.0, mustEval(t, "(1 + 2) * 3"))
	assert.Equal(t, 2.0, mustEval(t, "8 / 2 / 2"))
	assert.Equal(t, -1.0, mustEval(t, "-3 + 2"))
	assert.Equal(t, 5.0, mustEval(t, "2 - -3"))
}

func TestParseTernary(t *testing.T) {
	assert.Equal(t, 10.0, mustEval(t, "1 < 2 ? 10 : 20"))
	assert.Equal(t, 20.0, mustEval(t, "1 > 2 ? 10 : 20"))
}

func TestParseIfElseSpelling(t *testing.T) {
	assert.Equal(t, 10.0, mustEval(t, "if (1 < 2) 10 else 20"))
}

func TestParseUnicodeRelops(t *testing.T) {
	e, err := Parse("x ≤ 10", NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.OpLte, e.BinOp)

	e, err = Parse("x ≥ 10", NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.OpGte, e.BinOp)
}

func TestParseCoefficientJuxtaposition(t *testing.T) {
	e, err := Parse("2x", NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.NBinary, e.Kind)
	assert.Equal(t, expr.OpMul, e.BinOp)
	assert.Equal(t, 2.0, e.Left.Number)
	assert.Equal(t, "x", e.Right.Name)
}

func TestParseStrictRejectsCoefficientJuxtaposition(t *testing.T) {
	_, err := ParseStrict("2x", NewScope())
	assert.IsError(t, err, ErrImplicitMultiply)
}

func TestParseImplicitMultiplicationRejected(t *testing.T) {
	_, err := Parse("x y", NewScope())
	assert.IsError(t, err, ErrImplicitMultiply)
	assert.True(t, strings.Contains(err.Error(), "'x' and 'y'"))
	assert.True(t, strings.Contains(err.Error(), "'x * y'"))
}

func TestParseBareEqualsRejected(t *testing.T) {
	_, err := Parse("x = 5", NewScope())
	assert.Error(t, err)
}

func TestParseSummationNode(t *testing.T) {
	e, err := Parse("sum(i in I) x[i]", NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.NSummation, e.Kind)
	assert.Equal(t, "i", e.IterVar)
	assert.Equal(t, "I", e.SetName)
	assert.Equal(t, expr.NIndexedVariable, e.Body.Kind)
}

func TestParseFilteredSummationNode(t *testing.T) {
	e, err := Parse("sum(i in I, j in J: i != j) x[i]", NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.NFilteredSummation, e.Kind)
	assert.Equal(t, 2, len(e.Iterators))
	assert.NotZero(t, e.Iterators[1].Filter)
}

func TestParseItemFunction(t *testing.T) {
	e, err := Parse(`item(arcs, <"a">)`, NewScope())
	assert.NoError(t, err)
	assert.Equal(t, expr.NItemFunction, e.Kind)
	assert.Equal(t, "arcs", e.Name)
	assert.Equal(t, expr.NTupleKey, e.Key.Kind)
}

func TestParseIteratorIndexedTupleFieldAccess(t *testing.T) {
	scope := NewScope().Child("i")
	e, err := Parse("S[i].weight", scope)
	assert.NoError(t, err)
	assert.Equal(t, expr.NIteratorIndexedTupleFieldAccess, e.Kind)
	assert.Equal(t, "S", e.SetName)
	assert.Equal(t, "i", e.IterVar)
	assert.Equal(t, "weight", e.Field)
}

func TestParseTupleFieldAccessOnIterator(t *testing.T) {
	e, err := Parse("a.from", NewScope().Child("a"))
	assert.NoError(t, err)
	assert.Equal(t, expr.NTupleFieldAccess, e.Kind)
	assert.Equal(t, "a", e.Name)
	assert.Equal(t, "from", e.Field)
}

func TestParseTrailingInputRejected(t *testing.T) {
	_, err := Parse("1 + 2 )", NewScope())
	assert.Error(t, err)
}
