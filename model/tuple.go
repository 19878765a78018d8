package model

import (
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// TupleField is one (name, type, is_key) entry of a TupleSchema.
type TupleField struct {
	Name  string
	Type  ValueType
	IsKey bool
}

// TupleSchema is an immutable named record type (spec.md §3).
type TupleSchema struct {
	Name   string
	Fields []TupleField
}

// KeyFields returns the subset of Fields flagged IsKey, in declared order.
func (s *TupleSchema) KeyFields() []TupleField {
	var out []TupleField
	for _, f := range s.Fields {
		if f.IsKey {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames returns all field names in declared order.
func (s *TupleSchema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// TupleSet holds instances of a schema, either as one flat set or as a
// family indexed over an index set (spec.md §3). Uniqueness of key-field
// combinations is enforced within each flat set / each family member.
type TupleSet struct {
	Name       string
	Schema     string
	IsExternal bool
	IndexSet   string // non-empty when this is a family

	flat     []expr.Value
	families map[int][]expr.Value
}

func NewFlatTupleSet(name, schema string, external bool) *TupleSet {
	return &TupleSet{Name: name, Schema: schema, IsExternal: external}
}

func NewIndexedTupleSetFamily(name, schema, indexSet string, external bool) *TupleSet {
	return &TupleSet{Name: name, Schema: schema, IsExternal: external, IndexSet: indexSet,
		families: make(map[int][]expr.Value)}
}

// Add inserts an instance into the flat set, rejecting a duplicate key
// combination per the declaring schema.
func (t *TupleSet) Add(schema *TupleSchema, v expr.Value) error {
	if err := checkUniqueKey(schema, t.flat, v); err != nil {
		return err
	}
	t.flat = append(t.flat, v)
	return nil
}

// AddAt inserts an instance into the family member at index, rejecting a
// duplicate key combination within that member.
func (t *TupleSet) AddAt(schema *TupleSchema, index int, v expr.Value) error {
	if t.families == nil {
		t.families = make(map[int][]expr.Value)
	}
	if err := checkUniqueKey(schema, t.families[index], v); err != nil {
		return err
	}
	t.families[index] = append(t.families[index], v)
	return nil
}

func checkUniqueKey(schema *TupleSchema, existing []expr.Value, v expr.Value) error {
	keys := schema.KeyFields()
	if len(keys) == 0 {
		return nil
	}
	for _, e := range existing {
		if tupleKeyEqual(keys, e, v) {
			return fmt.Errorf("%w: in tuple set over schema %s", ErrDuplicateTupleKey, schema.Name)
		}
	}
	return nil
}

func tupleKeyEqual(keys []TupleField, a, b expr.Value) bool {
	for _, k := range keys {
		av, aok := a.Tuple.Fields[k.Name]
		bv, bok := b.Tuple.Fields[k.Name]
		if !aok || !bok || !expr.Equal(av, bv) {
			return false
		}
	}
	return true
}

// Elements returns the flat set's instances (empty for a family).
func (t *TupleSet) Elements() []expr.Value { return t.flat }

// At returns the family member at index (empty for a flat set).
func (t *TupleSet) At(index int) []expr.Value { return t.families[index] }

// ItemLookup finds the unique instance (in the flat set) whose key fields
// equal key's fields, per spec.md's item(set, <key>) contract.
func (t *TupleSet) ItemLookup(schema *TupleSchema, key expr.Value) (expr.Value, error) {
	keys := schema.KeyFields()
	var match *expr.Value
	for i := range t.flat {
		if tupleKeyEqualPositional(keys, key, t.flat[i]) {
			if match != nil {
				return expr.Value{}, fmt.Errorf("%w: multiple instances match key in %s", ErrNoUniqueMatch, t.Name)
			}
			m := t.flat[i]
			match = &m
		}
	}
	if match == nil {
		return expr.Value{}, fmt.Errorf("%w: no instance matches key in %s", ErrNoUniqueMatch, t.Name)
	}
	return *match, nil
}

// tupleKeyEqualPositional compares a positional key value (built by
// NTupleKey, whose Fields are synthesized as f0, f1, ...) against an
// instance's declared key fields in schema order.
func tupleKeyEqualPositional(keys []TupleField, key, instance expr.Value) bool {
	if key.Kind != expr.KindTuple {
		if len(keys) != 1 {
			return false
		}
		iv, ok := instance.Tuple.Fields[keys[0].Name]
		return ok && expr.Equal(iv, key)
	}
	for i, k := range keys {
		kv, ok := key.Tuple.Fields[fmt.Sprintf("f%d", i)]
		if !ok {
			return false
		}
		iv, ok := instance.Tuple.Fields[k.Name]
		if !ok || !expr.Equal(iv, kv) {
			return false
		}
	}
	return true
}
