package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oplc-lang/oplc/expr"
)

// ValueType is the fixed primitive type set spec.md §3 allows: no type
// inference beyond these four.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
	TypeString
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ParamTypeFromKeyword maps the grammar's `type` keyword to a ValueType.
func ParamTypeFromKeyword(kw string) (ValueType, bool) {
	switch kw {
	case "int":
		return TypeInt, true
	case "float":
		return TypeFloat, true
	case "string":
		return TypeString, true
	case "bool":
		return TypeBool, true
	default:
		return 0, false
	}
}

// Parameter is a named, typed value per spec.md §3: scalar, or indexed by
// one or more index sets. The binder (databind.Binder) is the sole
// writer of Scalar/Values post-declaration; the parser only creates the
// shape.
type Parameter struct {
	Name       string
	Type       ValueType
	IndexSets  []string // empty for scalar, else one name per dimension
	IsExternal bool

	scalarSet bool
	scalar    expr.Value
	values    map[string]expr.Value // keyed by joinIndexKey(indices)
}

// NewScalarParameter constructs an unbound scalar parameter declaration.
func NewScalarParameter(name string, t ValueType, external bool) *Parameter {
	return &Parameter{Name: name, Type: t, IsExternal: external}
}

// NewIndexedParameter constructs an unbound parameter indexed by the
// given index set names (length = dimensionality, k >= 1).
func NewIndexedParameter(name string, t ValueType, external bool, indexSets []string) *Parameter {
	return &Parameter{Name: name, Type: t, IndexSets: indexSets, IsExternal: external,
		values: make(map[string]expr.Value)}
}

// Dims reports the parameter's dimensionality (0 = scalar).
func (p *Parameter) Dims() int { return len(p.IndexSets) }

// SetScalar binds the scalar value, type-checking against Type.
func (p *Parameter) SetScalar(v expr.Value) error {
	if p.Dims() != 0 {
		return fmt.Errorf("%w: %s is indexed, not scalar", ErrWrongIndexCount, p.Name)
	}
	if err := p.checkType(v); err != nil {
		return err
	}
	p.scalar = v
	p.scalarSet = true
	return nil
}

// SetAt binds the value at indices, type- and range-checking against Type
// and Dims.
func (p *Parameter) SetAt(indices []int, v expr.Value) error {
	if len(indices) != p.Dims() {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrWrongIndexCount, p.Name, p.Dims(), len(indices))
	}
	if err := p.checkType(v); err != nil {
		return err
	}
	if p.values == nil {
		p.values = make(map[string]expr.Value)
	}
	p.values[joinIndexKey(indices)] = v
	return nil
}

func (p *Parameter) checkType(v expr.Value) error {
	switch p.Type {
	case TypeInt, TypeFloat:
		if v.Kind != expr.KindNumber {
			return fmt.Errorf("%w: %s wants %s", ErrParameterTypeMismatch, p.Name, p.Type)
		}
	case TypeString:
		if v.Kind != expr.KindString {
			return fmt.Errorf("%w: %s wants string", ErrParameterTypeMismatch, p.Name)
		}
	case TypeBool:
		if v.Kind != expr.KindBool {
			return fmt.Errorf("%w: %s wants bool", ErrParameterTypeMismatch, p.Name)
		}
	}
	return nil
}

// Value returns the bound value for the given indices (nil for scalar),
// failing if unbound.
func (p *Parameter) Value(indices []int) (expr.Value, error) {
	if p.Dims() == 0 {
		if !p.scalarSet {
			return expr.Value{}, fmt.Errorf("%w: %s", ErrParameterUnbound, p.Name)
		}
		return p.scalar, nil
	}
	if len(indices) != p.Dims() {
		return expr.Value{}, fmt.Errorf("%w: %s wants %d, got %d", ErrWrongIndexCount, p.Name, p.Dims(), len(indices))
	}
	v, ok := p.values[joinIndexKey(indices)]
	if !ok {
		return expr.Value{}, fmt.Errorf("%w: %s%v", ErrParameterUnbound, p.Name, indices)
	}
	return v, nil
}

// joinIndexKey builds the map key used by indexed Parameter/Dexpr/Variable
// value stores.
func joinIndexKey(indices []int) string {
	parts := make([]string, len(indices))
	for i, v := range indices {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
