package expansion_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc"
	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/dispatch"
	"github.com/oplc-lang/oplc/expansion"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/tokenizer"
)

func expandModel(t *testing.T, stmts ...string) (*model.Repository, *diagnostics.Session) {
	t.Helper()
	repo := model.New()
	diag := diagnostics.NewSession()
	d := dispatch.New(repo, diag, oplc.Permissive)
	for i, s := range stmts {
		d.Dispatch(tokenizer.Statement{Text: s, Line: i + 1})
	}
	expansion.New(repo, diag).Expand()
	return repo, diag
}

func constraintByLabel(t *testing.T, repo *model.Repository, label string) *model.Constraint {
	t.Helper()
	for _, c := range repo.Constraints {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no constraint labeled %s", label)
	return nil
}

func evalConstant(t *testing.T, repo *model.Repository, c *model.Constraint) float64 {
	t.Helper()
	v, err := expr.Evaluate(c.Constant, expr.NewEvaluationContext(), repo)
	assert.NoError(t, err)
	return v.Num
}

func TestExpandForallOverIndexSet(t *testing.T) {
	repo, diag := expandModel(t,
		"int n = 3",
		"range I = 1..n",
		"dvar float+ x[I]",
		"float cap[I] = [5, 7, 9]",
		"forall(i in I) lim[i]: x[i] <= cap[i]",
	)
	for _, e := range diag.Errors() {
		t.Errorf("unexpected diagnostic: %s", e)
	}

	// Property 2: |I| constraints absent filters.
	assert.Equal(t, 3, len(repo.Constraints))

	expected := map[string]float64{"lim[1]": 5, "lim[2]": 7, "lim[3]": 9}
	for label, want := range expected {
		c := constraintByLabel(t, repo, label)
		assert.Equal(t, "lim", c.BaseName)
		assert.Equal(t, expr.OpLte, c.Op)
		assert.Equal(t, 1, len(c.Coefficients))
		assert.Equal(t, want, evalConstant(t, repo, c))
	}

	one := constraintByLabel(t, repo, "lim[2]")
	assert.Equal(t, 1.0, expr.Simplify(one.Coefficients["x2"]).Number)
	assert.Equal(t, 2, *one.Index)
}

func TestExpandTwoDimensionalWithFilter(t *testing.T) {
	repo, diag := expandModel(t,
		"range I = 1..2",
		"range J = 1..2",
		"dvar float+ f[I,J]",
		"forall(i in I, j in J: i != j) c[i,j]: f[i,j] <= 1",
	)
	for _, e := range diag.Errors() {
		t.Errorf("unexpected diagnostic: %s", e)
	}

	// The filter suppresses the diagonal.
	assert.Equal(t, 2, len(repo.Constraints))

	c12 := constraintByLabel(t, repo, "c[1,2]")
	assert.Equal(t, 1.0, expr.Simplify(c12.Coefficients["f1_2"]).Number)
	assert.Equal(t, 1, *c12.Index)
	assert.Equal(t, 2, *c12.SecondIndex)

	c21 := constraintByLabel(t, repo, "c[2,1]")
	assert.Equal(t, 1.0, expr.Simplify(c21.Coefficients["f2_1"]).Number)
}

func TestExpandTwoDimensionalUnfilteredCount(t *testing.T) {
	repo, _ := expandModel(t,
		"range I = 1..3",
		"range J = 1..4",
		"dvar float+ f[I,J]",
		"forall(i in I, j in J) f[i,j] <= 1",
	)

	// Property 3: |I|*|J| constraints.
	assert.Equal(t, 12, len(repo.Constraints))
}

func TestExpandBracketTemplate(t *testing.T) {
	repo, diag := expandModel(t,
		"range I = 1..2",
		"dvar float+ x[I]",
		"bound[i in I]: 2*x[i] <= 8",
	)
	for _, e := range diag.Errors() {
		t.Errorf("unexpected diagnostic: %s", e)
	}

	assert.Equal(t, 2, len(repo.Constraints))
	c := constraintByLabel(t, repo, "bound[1]")
	assert.Equal(t, 2.0, expr.Simplify(c.Coefficients["x1"]).Number)
	assert.Equal(t, 8.0, evalConstant(t, repo, c))
}

func TestExpandClearsTemplates(t *testing.T) {
	repo, _ := expandModel(t,
		"range I = 1..2",
		"dvar float+ x[I]",
		"forall(i in I) x[i] <= 1",
		"bound[i in I]: x[i] >= 0",
	)

	// Property 6: every template cleared after expansion.
	assert.Equal(t, 0, len(repo.ForallStatements))
	assert.Equal(t, 0, len(repo.IndexedEquationTmpls))
	assert.Equal(t, 4, len(repo.Constraints))
}

func TestExpandAccumulatesPerInstanceErrors(t *testing.T) {
	repo, diag := expandModel(t,
		"range I = 1..3",
		"dvar float+ x[I]",
		"float cap[I] = ...",
		"forall(i in I) x[i] <= cap[i]",
	)

	// cap is never bound: every instance fails, expansion continues, the
	// templates are still cleared.
	assert.Equal(t, 3, len(diag.Errors()))
	assert.Equal(t, 0, len(repo.Constraints))
	assert.Equal(t, 0, len(repo.ForallStatements))
}

func TestExpandIteratorOrderOuterSlowest(t *testing.T) {
	repo, _ := expandModel(t,
		"range I = 1..2",
		"range J = 1..2",
		"dvar float+ f[I,J]",
		"forall(i in I, j in J) f[i,j] <= 1",
	)

	labels := make([]string, len(repo.Constraints))
	for i, c := range repo.Constraints {
		labels[i] = c.Label
	}
	assert.Equal(t, []string{
		"forall_4[1,1]", "forall_4[1,2]", "forall_4[2,1]", "forall_4[2,2]",
	}, labels)
}
