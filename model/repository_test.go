package model

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc/expr"
)

func TestIndexSetSequence(t *testing.T) {
	s, err := NewIndexSet("I", 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, s.Sequence())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(4))
}

func TestIndexSetRejectsInvertedRange(t *testing.T) {
	_, err := NewIndexSet("I", 5, 2)
	assert.IsError(t, err, ErrInvalidRange)
}

func TestPrimitiveSetDeduplicates(t *testing.T) {
	s := NewPrimitiveSet("S", TypeInt, false)
	s.Add(expr.Number(1))
	s.Add(expr.Number(2))
	s.Add(expr.Number(1))

	assert.Equal(t, 2, len(s.Elements()))
	assert.True(t, s.Contains(expr.Number(2)))
	assert.False(t, s.Contains(expr.Number(3)))
}

func TestParameterReadBeforeBindFails(t *testing.T) {
	p := NewScalarParameter("n", TypeInt, true)
	_, err := p.Value(nil)
	assert.IsError(t, err, ErrParameterUnbound)

	assert.NoError(t, p.SetScalar(expr.Number(3)))
	v, err := p.Value(nil)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, v.Num)
}

func TestParameterTypeChecked(t *testing.T) {
	p := NewScalarParameter("s", TypeString, true)
	assert.IsError(t, p.SetScalar(expr.Number(1)), ErrParameterTypeMismatch)
	assert.NoError(t, p.SetScalar(expr.String("ok")))
}

func TestIndexedParameterRoundTrip(t *testing.T) {
	p := NewIndexedParameter("c", TypeFloat, true, []string{"I", "J"})
	assert.NoError(t, p.SetAt([]int{2, 5}, expr.Number(1.5)))

	v, err := p.Value([]int{2, 5})
	assert.NoError(t, err)
	assert.Equal(t, 1.5, v.Num)

	_, err = p.Value([]int{2, 6})
	assert.IsError(t, err, ErrParameterUnbound)
	_, err = p.Value([]int{2})
	assert.IsError(t, err, ErrWrongIndexCount)
}

func TestVariableCanonicalNames(t *testing.T) {
	scalar := &Variable{Name: "x", ValueType: TypeFloat}
	name, err := scalar.CanonicalName(nil)
	assert.NoError(t, err)
	assert.Equal(t, "x", name)

	one := &Variable{Name: "x", ValueType: TypeFloat, IndexSets: []string{"I"}}
	name, err = one.CanonicalName([]int{3})
	assert.NoError(t, err)
	assert.Equal(t, "x3", name)

	two := &Variable{Name: "x", ValueType: TypeFloat, IndexSets: []string{"I", "J"}}
	name, err = two.CanonicalName([]int{3, 5})
	assert.NoError(t, err)
	assert.Equal(t, "x3_5", name)
}

func tupleOf(fields map[string]expr.Value) expr.Value {
	return expr.FromTuple(expr.Tuple{Fields: fields})
}

func arcSchema() *TupleSchema {
	return &TupleSchema{Name: "Arc", Fields: []TupleField{
		{Name: "id", Type: TypeString, IsKey: true},
		{Name: "from", Type: TypeString},
	}}
}

func TestTupleSetRejectsDuplicateKey(t *testing.T) {
	schema := arcSchema()
	ts := NewFlatTupleSet("arcs", "Arc", false)

	assert.NoError(t, ts.Add(schema, tupleOf(map[string]expr.Value{"id": expr.String("a"), "from": expr.String("N1")})))
	err := ts.Add(schema, tupleOf(map[string]expr.Value{"id": expr.String("a"), "from": expr.String("N2")}))
	assert.IsError(t, err, ErrDuplicateTupleKey)
}

func TestTupleSetItemLookup(t *testing.T) {
	schema := arcSchema()
	ts := NewFlatTupleSet("arcs", "Arc", false)
	assert.NoError(t, ts.Add(schema, tupleOf(map[string]expr.Value{"id": expr.String("a"), "from": expr.String("N1")})))
	assert.NoError(t, ts.Add(schema, tupleOf(map[string]expr.Value{"id": expr.String("b"), "from": expr.String("N2")})))

	v, err := ts.ItemLookup(schema, expr.String("b"))
	assert.NoError(t, err)
	from, err := v.Field("from")
	assert.NoError(t, err)
	assert.Equal(t, "N2", from.Str)

	_, err = ts.ItemLookup(schema, expr.String("zzz"))
	assert.IsError(t, err, ErrNoUniqueMatch)
}

func TestRepositoryOverwritesByName(t *testing.T) {
	repo := New()
	repo.AddParameter(NewScalarParameter("n", TypeInt, false))
	repo.AddParameter(NewScalarParameter("n", TypeFloat, false))

	p, ok := repo.Parameter_("n")
	assert.True(t, ok)
	assert.Equal(t, TypeFloat, p.Type)
}

func TestRepositoryClearTemplates(t *testing.T) {
	repo := New()
	repo.AddForallStatement(&ConstraintTemplate{Kind: TemplateForall})
	repo.AddIndexedEquationTemplate(&ConstraintTemplate{Kind: TemplateBracket})

	repo.ClearForallStatements()
	repo.ClearIndexedEquationTemplates()
	assert.Equal(t, 0, len(repo.ForallStatements))
	assert.Equal(t, 0, len(repo.IndexedEquationTmpls))
}

func TestGenerateReportText(t *testing.T) {
	repo := New()
	s, _ := NewIndexSet("I", 1, 3)
	repo.AddIndexSet(s)
	repo.AddVariable(&Variable{Name: "x", ValueType: TypeFloat, IndexSets: []string{"I"}})

	out, err := repo.GenerateReport(ReportText)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "I = 1..3"))
	assert.True(t, strings.Contains(out, "dvar float x[I]"))
}

func TestGenerateReportYAML(t *testing.T) {
	repo := New()
	s, _ := NewIndexSet("I", 1, 2)
	repo.AddIndexSet(s)

	out, err := repo.GenerateReport(ReportYAML)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "index_sets"))
	assert.True(t, strings.Contains(out, "I"))
}
