package databind

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/model"
)

func binderRepo(t *testing.T) *model.Repository {
	t.Helper()
	repo := model.New()

	i, err := model.NewIndexSet("I", 1, 3)
	assert.NoError(t, err)
	repo.AddIndexSet(i)
	j, err := model.NewIndexSet("J", 1, 2)
	assert.NoError(t, err)
	repo.AddIndexSet(j)

	repo.AddParameter(model.NewScalarParameter("n", model.TypeInt, true))
	repo.AddParameter(model.NewScalarParameter("title", model.TypeString, true))
	repo.AddParameter(model.NewIndexedParameter("cap", model.TypeFloat, true, []string{"I"}))
	repo.AddParameter(model.NewIndexedParameter("cost", model.TypeFloat, true, []string{"I", "J"}))
	repo.AddPrimitiveSet(model.NewPrimitiveSet("cities", model.TypeString, true))

	schema := &model.TupleSchema{Name: "Arc", Fields: []model.TupleField{
		{Name: "id", Type: model.TypeString, IsKey: true},
		{Name: "from", Type: model.TypeString},
	}}
	repo.AddTupleSchema(schema)
	repo.AddTupleSet(model.NewFlatTupleSet("arcs", "Arc", true))

	return repo
}

func newBinder(repo *model.Repository) *Binder {
	return New(repo, diagnostics.NewSession())
}

func TestBindScalar(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement("n = 42"))
	assert.NoError(t, b.BindStatement(`title = "production plan"`))

	n, _ := repo.Parameter_("n")
	v, err := n.Value(nil)
	assert.NoError(t, err)
	assert.Equal(t, 42.0, v.Num)

	title, _ := repo.Parameter_("title")
	v, err = title.Value(nil)
	assert.NoError(t, err)
	assert.Equal(t, "production plan", v.Str)
}

func TestBindScalarTypeMismatch(t *testing.T) {
	b := newBinder(binderRepo(t))
	assert.Error(t, b.BindStatement(`n = "not a number"`))
}

func TestBindUnknownName(t *testing.T) {
	b := newBinder(binderRepo(t))
	assert.IsError(t, b.BindStatement("nosuch = 1"), ErrUnknownName)
}

func TestBindSingleIndex(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement("cap[2] = 7.5"))

	cap_, _ := repo.Parameter_("cap")
	v, err := cap_.Value([]int{2})
	assert.NoError(t, err)
	assert.Equal(t, 7.5, v.Num)
}

func TestBindIndexOutOfRange(t *testing.T) {
	b := newBinder(binderRepo(t))
	assert.IsError(t, b.BindStatement("cap[4] = 1"), model.ErrIndexOutOfRange)
}

func TestBindVectorCommaMode(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement("cap = [5, 7, 9]"))

	cap_, _ := repo.Parameter_("cap")
	for idx, want := range map[int]float64{1: 5, 2: 7, 3: 9} {
		v, err := cap_.Value([]int{idx})
		assert.NoError(t, err)
		assert.Equal(t, want, v.Num)
	}
}

func TestBindVectorWhitespaceMode(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement("cap = [5 7 9]"))

	cap_, _ := repo.Parameter_("cap")
	v, err := cap_.Value([]int{3})
	assert.NoError(t, err)
	assert.Equal(t, 9.0, v.Num)
}

func TestBindVectorCountMismatch(t *testing.T) {
	b := newBinder(binderRepo(t))
	assert.IsError(t, b.BindStatement("cap = [5, 7]"), ErrShapeMismatch)
}

func TestBindMatrix(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement("cost = [[1, 2], [3, 4], [5, 6]]"))

	cost, _ := repo.Parameter_("cost")
	v, err := cost.Value([]int{3, 2})
	assert.NoError(t, err)
	assert.Equal(t, 6.0, v.Num)
}

func TestBindMatrixRowMismatch(t *testing.T) {
	b := newBinder(binderRepo(t))
	assert.IsError(t, b.BindStatement("cost = [[1, 2], [3, 4]]"), ErrShapeMismatch)
}

func TestBindPrimitiveSetLiteral(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement(`cities = {"NYC", "LA", "NYC"}`))

	cities, _ := repo.PrimitiveSetByName("cities")
	assert.Equal(t, 2, len(cities.Elements()))
}

func TestBindTupleSetLiteral(t *testing.T) {
	repo := binderRepo(t)
	b := newBinder(repo)

	assert.NoError(t, b.BindStatement(`arcs = {<"a","N1">, <"b","N2">}`))

	arcs, _ := repo.TupleSetByName("arcs")
	assert.Equal(t, 2, len(arcs.Elements()))

	schema, _ := repo.TupleSchemaByName("Arc")
	v, err := arcs.ItemLookup(schema, expr.String("b"))
	assert.NoError(t, err)
	from, err := v.Field("from")
	assert.NoError(t, err)
	assert.Equal(t, "N2", from.Str)
}

func TestBindCommutativeAcrossIndependentParameters(t *testing.T) {
	order1 := binderRepo(t)
	b1 := newBinder(order1)
	assert.NoError(t, b1.BindStatement("n = 1"))
	assert.NoError(t, b1.BindStatement("cap = [5, 7, 9]"))

	order2 := binderRepo(t)
	b2 := newBinder(order2)
	assert.NoError(t, b2.BindStatement("cap = [5, 7, 9]"))
	assert.NoError(t, b2.BindStatement("n = 1"))

	for _, repo := range []*model.Repository{order1, order2} {
		n, _ := repo.Parameter_("n")
		v, err := n.Value(nil)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, v.Num)
		cap_, _ := repo.Parameter_("cap")
		v, err = cap_.Value([]int{2})
		assert.NoError(t, err)
		assert.Equal(t, 7.0, v.Num)
	}
}

func TestBindFullSourceWithComments(t *testing.T) {
	repo := binderRepo(t)
	diag := diagnostics.NewSession()
	b := New(repo, diag)

	src := `/* data */
n = 3; // scalar
cap = [5, 7, 9];
`
	assert.NoError(t, b.Bind(src))
	assert.False(t, diag.HasErrors())
	assert.Equal(t, 2, diag.SuccessCount())
}

func TestSplitElementsQuoteAware(t *testing.T) {
	elems, err := SplitElements(`"a, b" "c"`)
	assert.NoError(t, err)
	assert.Equal(t, []string{`"a, b"`, `"c"`}, elems)
}
