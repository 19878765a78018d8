package driver_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc"
	"github.com/oplc-lang/oplc/driver"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/script"
)

func parseAndExpand(t *testing.T, src string, opts ...driver.Option) *driver.Session {
	t.Helper()
	s := driver.NewSession(oplc.Permissive, opts...)
	assert.NoError(t, s.ParseModel(src))
	s.Expand()
	return s
}

func requireClean(t *testing.T, s *driver.Session) {
	t.Helper()
	for _, e := range s.Diag.Errors() {
		t.Errorf("unexpected diagnostic: %s", e)
	}
}

func coefficient(t *testing.T, coeffs map[string]*expr.Expression, name string) float64 {
	t.Helper()
	c, ok := coeffs[name]
	assert.True(t, ok)
	s := expr.Simplify(c)
	assert.Equal(t, expr.NConstant, s.Kind)
	return s.Number
}

func constant(t *testing.T, s *driver.Session, c *model.Constraint) float64 {
	t.Helper()
	v, err := expr.Evaluate(c.Constant, expr.NewEvaluationContext(), s.Repo)
	assert.NoError(t, err)
	return v.Num
}

func byLabel(t *testing.T, s *driver.Session, label string) *model.Constraint {
	t.Helper()
	for _, c := range s.Repo.Constraints {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no constraint labeled %s", label)
	return nil
}

func TestScenarioScalarLP(t *testing.T) {
	s := parseAndExpand(t, `
dvar float+ x; dvar float+ y;
maximize 3*x + 5*y;
c1: x + y <= 10;
c2: 2*x + y <= 15;
`)
	requireClean(t, s)

	obj := s.Repo.Objective
	assert.NotZero(t, obj)
	assert.Equal(t, model.Maximize, obj.Sense)
	assert.Equal(t, 3.0, coefficient(t, obj.Coefficients, "x"))
	assert.Equal(t, 5.0, coefficient(t, obj.Coefficients, "y"))

	assert.Equal(t, 2, len(s.Repo.Constraints))

	c1 := byLabel(t, s, "c1")
	assert.Equal(t, expr.OpLte, c1.Op)
	assert.Equal(t, 1.0, coefficient(t, c1.Coefficients, "x"))
	assert.Equal(t, 1.0, coefficient(t, c1.Coefficients, "y"))
	assert.Equal(t, 10.0, constant(t, s, c1))

	c2 := byLabel(t, s, "c2")
	assert.Equal(t, 2.0, coefficient(t, c2.Coefficients, "x"))
	assert.Equal(t, 1.0, coefficient(t, c2.Coefficients, "y"))
	assert.Equal(t, 15.0, constant(t, s, c2))
}

func TestScenarioOneDimensionalForall(t *testing.T) {
	s := parseAndExpand(t, `
int n = 3;
range I = 1..n;
dvar float+ x[I];
float cap[I] = [5, 7, 9];
forall(i in I) lim[i]: x[i] <= cap[i];
`)
	requireClean(t, s)
	assert.Equal(t, 3, len(s.Repo.Constraints))

	for i, want := range map[int]float64{1: 5, 2: 7, 3: 9} {
		c := byLabel(t, s, fmt.Sprintf("lim[%d]", i))
		assert.Equal(t, 1.0, coefficient(t, c.Coefficients, fmt.Sprintf("x%d", i)))
		assert.Equal(t, want, constant(t, s, c))
	}
}

func TestScenarioSummation(t *testing.T) {
	s := parseAndExpand(t, `
range I = 1..3;
dvar float+ x[I];
total: sum(i in I) x[i] == 10;
`)
	requireClean(t, s)
	assert.Equal(t, 1, len(s.Repo.Constraints))

	c := byLabel(t, s, "total")
	assert.Equal(t, expr.OpEq, c.Op)
	assert.Equal(t, 1.0, coefficient(t, c.Coefficients, "x1"))
	assert.Equal(t, 1.0, coefficient(t, c.Coefficients, "x2"))
	assert.Equal(t, 1.0, coefficient(t, c.Coefficients, "x3"))
	assert.Equal(t, 10.0, constant(t, s, c))
}

func TestScenarioTupleComprehension(t *testing.T) {
	s := parseAndExpand(t, `
tuple Arc { key string id; string from; }
{Arc} arcs = {<"a","N1">, <"b","N2">, <"c","N1">};
{Arc} fromN1 = { a | a in arcs: a.from == "N1" };
`)
	requireClean(t, s)

	cs, ok := s.Repo.ComputedSetByName("fromN1")
	assert.True(t, ok)
	elems, err := cs.Materialize(s.Repo)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(elems))

	ids := map[string]bool{}
	for _, e := range elems {
		id, err := e.Field("id")
		assert.NoError(t, err)
		ids[id.Str] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["c"])
}

func TestScenarioTwoDimensionalFiltered(t *testing.T) {
	s := parseAndExpand(t, `
range I = 1..2; range J = 1..2;
dvar float+ f[I,J];
forall(i in I, j in J: i != j) c[i,j]: f[i,j] <= 1;
`)
	requireClean(t, s)
	assert.Equal(t, 2, len(s.Repo.Constraints))

	c12 := byLabel(t, s, "c[1,2]")
	assert.Equal(t, 1.0, coefficient(t, c12.Coefficients, "f1_2"))
	c21 := byLabel(t, s, "c[2,1]")
	assert.Equal(t, 1.0, coefficient(t, c21.Coefficients, "f2_1"))
}

func TestScenarioImplicitMultiplicationRejected(t *testing.T) {
	s := driver.NewSession(oplc.Permissive)
	assert.NoError(t, s.ParseModel(`
dvar float+ x; dvar float+ y;
minimize x y;
`))

	assert.Zero(t, s.Repo.Objective)
	found := false
	for _, e := range s.Diag.Errors() {
		if strings.Contains(e.Message, "consecutive identifiers 'x' and 'y'") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDataFileBinding(t *testing.T) {
	s := driver.NewSession(oplc.Permissive)
	assert.NoError(t, s.ParseModel(`
range I = 1..3;
dvar float+ x[I];
float cap[I] = ...;
forall(i in I) lim[i]: x[i] <= cap[i];
`))
	assert.NoError(t, s.BindData("cap = [4, 5, 6];"))
	s.Expand()
	requireClean(t, s)

	c := byLabel(t, s, "lim[3]")
	assert.Equal(t, 6.0, constant(t, s, c))
}

func TestSubjectToBlockInlined(t *testing.T) {
	s := parseAndExpand(t, `
dvar float+ x;
subject to {
  c1: x <= 4;
}
`)
	requireClean(t, s)
	assert.Equal(t, 1, len(s.Repo.Constraints))
	assert.Equal(t, "c1", s.Repo.Constraints[0].Label)
}

func TestExecuteBlockFeedsParameters(t *testing.T) {
	engine := &fixedEngine{results: map[string]any{"m": 4.0}}
	s := driver.NewSession(oplc.Permissive, driver.WithScriptEngine(engine))
	assert.NoError(t, s.ParseModel(`
execute prep {
  dummy
}
dvar float+ x;
c1: x <= m;
`))
	s.Expand()
	requireClean(t, s)

	m, ok := s.Repo.Parameter_("m")
	assert.True(t, ok)
	v, err := m.Value(nil)
	assert.NoError(t, err)
	assert.Equal(t, 4.0, v.Num)

	c := byLabel(t, s, "c1")
	k, err := expr.Evaluate(c.Constant, expr.NewEvaluationContext(), s.Repo)
	assert.NoError(t, err)
	assert.Equal(t, 4.0, k.Num)
}

type fixedEngine struct {
	results map[string]any
}

func (f *fixedEngine) Run(source string, snap script.Snapshot) (map[string]any, error) {
	return f.results, nil
}

func TestWalkedVariablesAreDeclared(t *testing.T) {
	s := parseAndExpand(t, `
range I = 1..3;
dvar float+ x[I];
dvar float+ y;
forall(i in I) x[i] + y <= 9;
`)
	requireClean(t, s)

	// Property 1: every coefficient key is a canonical expansion of a
	// declared variable.
	declared := map[string]bool{"y": true}
	for _, i := range []string{"1", "2", "3"} {
		declared["x"+i] = true
	}
	for _, c := range s.Repo.Constraints {
		for name := range c.Coefficients {
			assert.True(t, declared[name])
		}
	}
}

func TestReportAfterParse(t *testing.T) {
	s := parseAndExpand(t, `
range I = 1..2;
dvar float+ x[I];
forall(i in I) x[i] <= 1;
`)
	var sb strings.Builder
	assert.NoError(t, s.Report(&sb, model.ReportText, false))
	out := sb.String()
	assert.True(t, strings.Contains(out, "I = 1..2"))
	assert.True(t, strings.Contains(out, "no errors"))
}
