package expr

import (
	"reflect"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestSimplifyFoldsConstants(t *testing.T) {
	e := Binary(OpAdd, Binary(OpMul, Const(2), Const(3)), Unary(OpNeg, Const(1)))

	s := Simplify(e)
	assert.Equal(t, NConstant, s.Kind)
	assert.Equal(t, 5.0, s.Number)
}

func TestSimplifyLeavesUnfoldableSubtrees(t *testing.T) {
	e := Binary(OpAdd, Const(1), &Expression{Kind: NParameter, Name: "n"})

	s := Simplify(e)
	assert.Equal(t, NBinary, s.Kind)
	assert.Equal(t, NConstant, s.Left.Kind)
	assert.Equal(t, NParameter, s.Right.Kind)
}

func TestSimplifyDivisionByZeroLeftUnchanged(t *testing.T) {
	e := Binary(OpDiv, Const(1), Const(0))

	s := Simplify(e)
	assert.Equal(t, NBinary, s.Kind)
}

func TestSimplifyPrunesConstantConditional(t *testing.T) {
	e := &Expression{Kind: NConditional, Cond: Const(1), Then: Const(10), Else: Const(20)}

	s := Simplify(e)
	assert.Equal(t, 10.0, s.Number)
}

func TestSimplifyIdempotent(t *testing.T) {
	trees := []*Expression{
		Binary(OpAdd, Const(1), Const(2)),
		Binary(OpMul, &Expression{Kind: NParameter, Name: "a"}, Const(3)),
		Unary(OpNeg, Unary(OpNeg, Const(4))),
		{Kind: NConditional,
			Cond: &Expression{Kind: NParameter, Name: "p"},
			Then: Binary(OpAdd, Const(1), Const(1)),
			Else: Const(0)},
		{Kind: NSummation, IterVar: "i", SetName: "I",
			Body: Binary(OpMul, Const(2), Const(2))},
	}

	for _, e := range trees {
		once := Simplify(e)
		twice := Simplify(once)
		assert.True(t, reflect.DeepEqual(once, twice))
	}
}
