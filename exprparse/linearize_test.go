package exprparse_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

func testRepo(t *testing.T) *model.Repository {
	t.Helper()
	repo := model.New()

	i, err := model.NewIndexSet("I", 1, 3)
	assert.NoError(t, err)
	repo.AddIndexSet(i)

	repo.AddVariable(&model.Variable{Name: "x", ValueType: model.TypeFloat, IndexSets: []string{"I"}})
	repo.AddVariable(&model.Variable{Name: "y", ValueType: model.TypeFloat})
	repo.AddVariable(&model.Variable{Name: "z", ValueType: model.TypeFloat})

	cap_ := model.NewIndexedParameter("cap", model.TypeFloat, true, []string{"I"})
	for idx, v := range map[int]float64{1: 5, 2: 7, 3: 9} {
		assert.NoError(t, cap_.SetAt([]int{idx}, expr.Number(v)))
	}
	repo.AddParameter(cap_)

	return repo
}

func coeff(t *testing.T, lc exprparse.LinearConstraint, name string) float64 {
	t.Helper()
	c, ok := lc.Coeffs[name]
	assert.True(t, ok)
	s := expr.Simplify(c)
	assert.Equal(t, expr.NConstant, s.Kind)
	return s.Number
}

func parseSides(t *testing.T, repo *model.Repository, lhs, rhs string) (*expr.Expression, *expr.Expression) {
	t.Helper()
	l, err := exprparse.Parse(lhs, exprparse.NewScope())
	assert.NoError(t, err)
	r, err := exprparse.Parse(rhs, exprparse.NewScope())
	assert.NoError(t, err)
	return exprparse.Resolve(l, repo), exprparse.Resolve(r, repo)
}

func TestLinearizeAggregatesCoefficients(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "y + 2*y + 3*y", "0")

	lc, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpEq, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(lc.Coeffs))
	assert.Equal(t, 6.0, coeff(t, lc, "y"))
}

func TestLinearizeMovesRHSTermsLeft(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "2*y + 3", "z + 10")

	lc, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpLte, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, coeff(t, lc, "y"))
	assert.Equal(t, -1.0, coeff(t, lc, "z"))

	k := expr.Simplify(lc.Constant)
	assert.Equal(t, 7.0, k.Number)
}

func TestLinearizeTautologyRejected(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "y - y", "0")

	_, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpEq, expr.NewEvaluationContext(), repo)
	assert.IsError(t, err, exprparse.ErrTautology)
}

func TestLinearizeContradictionRejected(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "0", "1")

	_, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpEq, expr.NewEvaluationContext(), repo)
	assert.IsError(t, err, exprparse.ErrContradiction)
}

func TestLinearizeNonlinearRejected(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "y * z", "1")

	_, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpLte, expr.NewEvaluationContext(), repo)
	assert.IsError(t, err, exprparse.ErrNonlinear)
}

func TestLinearizeSummationOverIndexSet(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "sum(i in I) x[i]", "10")

	lc, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpEq, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(lc.Coeffs))
	assert.Equal(t, 1.0, coeff(t, lc, "x1"))
	assert.Equal(t, 1.0, coeff(t, lc, "x2"))
	assert.Equal(t, 1.0, coeff(t, lc, "x3"))
}

func TestLinearizeSummationWithParameterCoefficient(t *testing.T) {
	repo := testRepo(t)
	lhs, rhs := parseSides(t, repo, "sum(i in I) cap[i] * x[i]", "100")

	lc, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpLte, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, coeff(t, lc, "x1"))
	assert.Equal(t, 7.0, coeff(t, lc, "x2"))
	assert.Equal(t, 9.0, coeff(t, lc, "x3"))
}

func TestLinearizeParameterIndexedByIteratorAsConstant(t *testing.T) {
	repo := testRepo(t)
	ctx := expr.NewEvaluationContext().BindInt("i", 2)
	lhs, err := exprparse.Parse("x[i]", exprparse.NewScope().Child("i"))
	assert.NoError(t, err)
	rhs, err := exprparse.Parse("cap[i]", exprparse.NewScope().Child("i"))
	assert.NoError(t, err)

	lc, err := exprparse.LinearizeConstraint(
		exprparse.Resolve(lhs, repo), exprparse.Resolve(rhs, repo),
		expr.OpLte, ctx, repo)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, coeff(t, lc, "x2"))

	k, err := expr.Evaluate(lc.Constant, ctx, repo)
	assert.NoError(t, err)
	assert.Equal(t, 7.0, k.Num)
}

func TestLinearizeDexprSubstitution(t *testing.T) {
	repo := testRepo(t)
	body, err := exprparse.Parse("2*y + z", exprparse.NewScope())
	assert.NoError(t, err)
	repo.AddDexpr(&model.Dexpr{Name: "total", ValueType: model.TypeFloat, Body: exprparse.Resolve(body, repo)})

	lhs, rhs := parseSides(t, repo, "total", "4")
	lc, err := exprparse.LinearizeConstraint(lhs, rhs, expr.OpLte, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, coeff(t, lc, "y"))
	assert.Equal(t, 1.0, coeff(t, lc, "z"))
}
