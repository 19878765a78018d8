package model

import (
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// Repository is the aggregate of all declared entities for one parse
// session (spec.md §3-§4.1). It is not thread-safe: per spec.md §5, each
// concurrent parse session owns a distinct Repository. It implements
// expr.Repo so Expression trees can evaluate directly against it.
//
// Grounded on the teacher's parser/parsercommon/namespace.go Namespace: a
// single struct aggregating several named-entity maps behind explicit
// add/clear operations, generalized from "CEL environment plus one loop
// stack" to the ten-odd entity kinds spec.md §3 declares.
type Repository struct {
	Parameters    map[string]*Parameter
	IndexSets     map[string]*IndexSet
	PrimitiveSets map[string]*PrimitiveSet
	TupleSchemas  map[string]*TupleSchema
	TupleSets     map[string]*TupleSet
	ComputedSets  map[string]*ComputedSet
	Variables     map[string]*Variable
	Dexprs        map[string]*Dexpr

	ForallStatements      []*ConstraintTemplate
	IndexedEquationTmpls  []*ConstraintTemplate
	Constraints           []*Constraint
	Objective             *Objective
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		Parameters:    make(map[string]*Parameter),
		IndexSets:     make(map[string]*IndexSet),
		PrimitiveSets: make(map[string]*PrimitiveSet),
		TupleSchemas:  make(map[string]*TupleSchema),
		TupleSets:     make(map[string]*TupleSet),
		ComputedSets:  make(map[string]*ComputedSet),
		Variables:     make(map[string]*Variable),
		Dexprs:        make(map[string]*Dexpr),
	}
}

// Clear resets the repository to empty, per spec.md §4.1.
func (r *Repository) Clear() {
	*r = *New()
}

// --- add_* / lookup per spec.md §4.1. Insertion always overwrites by
// name (no type-compatibility check: "later writers shadow earlier
// ones"), per spec.md §3 Lifecycles and §9's documented ambiguity
// resolution on redeclaration.

func (r *Repository) AddParameter(p *Parameter) { r.Parameters[p.Name] = p }
func (r *Repository) Parameter_(name string) (*Parameter, bool) {
	p, ok := r.Parameters[name]
	return p, ok
}

func (r *Repository) AddIndexSet(s *IndexSet) { r.IndexSets[s.Name] = s }
func (r *Repository) IndexSetByName(name string) (*IndexSet, bool) {
	s, ok := r.IndexSets[name]
	return s, ok
}

func (r *Repository) AddPrimitiveSet(s *PrimitiveSet) { r.PrimitiveSets[s.Name] = s }
func (r *Repository) PrimitiveSetByName(name string) (*PrimitiveSet, bool) {
	s, ok := r.PrimitiveSets[name]
	return s, ok
}

func (r *Repository) AddTupleSchema(s *TupleSchema) { r.TupleSchemas[s.Name] = s }
func (r *Repository) TupleSchemaByName(name string) (*TupleSchema, bool) {
	s, ok := r.TupleSchemas[name]
	return s, ok
}

func (r *Repository) AddTupleSet(s *TupleSet) { r.TupleSets[s.Name] = s }
func (r *Repository) TupleSetByName(name string) (*TupleSet, bool) {
	s, ok := r.TupleSets[name]
	return s, ok
}

func (r *Repository) AddComputedSet(s *ComputedSet) { r.ComputedSets[s.Name] = s }
func (r *Repository) ComputedSetByName(name string) (*ComputedSet, bool) {
	s, ok := r.ComputedSets[name]
	return s, ok
}

func (r *Repository) AddVariable(v *Variable) { r.Variables[v.Name] = v }
func (r *Repository) VariableByName(name string) (*Variable, bool) {
	v, ok := r.Variables[name]
	return v, ok
}

func (r *Repository) AddDexpr(d *Dexpr) { r.Dexprs[d.Name] = d }
func (r *Repository) DexprByName(name string) (*Dexpr, bool) {
	d, ok := r.Dexprs[name]
	return d, ok
}

func (r *Repository) AddForallStatement(t *ConstraintTemplate) {
	r.ForallStatements = append(r.ForallStatements, t)
}

func (r *Repository) AddIndexedEquationTemplate(t *ConstraintTemplate) {
	r.IndexedEquationTmpls = append(r.IndexedEquationTmpls, t)
}

func (r *Repository) AddEquation(c *Constraint) { r.Constraints = append(r.Constraints, c) }

func (r *Repository) SetObjective(o *Objective) { r.Objective = o }

// ClearForallStatements drops all pending forall templates, invoked by
// the expansion engine once it has materialized them.
func (r *Repository) ClearForallStatements() { r.ForallStatements = nil }

// ClearIndexedEquationTemplates drops all pending bracket-indexed
// templates, invoked by the expansion engine once it has materialized
// them.
func (r *Repository) ClearIndexedEquationTemplates() { r.IndexedEquationTmpls = nil }

// IsParameter, IsDexpr, IsVariable implement exprparse.Declarations so
// exprparse.Resolve can reclassify the parser's bare-identifier
// placeholders against this repository.
func (r *Repository) IsParameter(name string) bool { _, ok := r.Parameters[name]; return ok }
func (r *Repository) IsDexpr(name string) bool      { _, ok := r.Dexprs[name]; return ok }
func (r *Repository) IsVariable(name string) bool   { _, ok := r.Variables[name]; return ok }

// --- expr.Repo implementation ---

func (r *Repository) Parameter(name string, indices []int) (expr.Value, error) {
	p, ok := r.Parameters[name]
	if !ok {
		return expr.Value{}, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return p.Value(indices)
}

func (r *Repository) VariableName(name string, indices []int) (string, error) {
	v, ok := r.Variables[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return v.CanonicalName(indices)
}

func (r *Repository) Dexpr(name string, indices []int) (*expr.Expression, error) {
	d, ok := r.Dexprs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDexpr, name)
	}
	return d.Instantiate(indices)
}

// IterationSet returns the ordered elements to range over for
// `iter in name`: an index set's integers, a primitive set's values, a
// tuple set's (flat) instances, or a computed set's materialization.
func (r *Repository) IterationSet(name string) ([]expr.Value, error) {
	if s, ok := r.IndexSets[name]; ok {
		seq := s.Sequence()
		out := make([]expr.Value, len(seq))
		for i, n := range seq {
			out[i] = expr.Number(float64(n))
		}
		return out, nil
	}
	if s, ok := r.PrimitiveSets[name]; ok {
		return s.Elements(), nil
	}
	if s, ok := r.TupleSets[name]; ok {
		return s.Elements(), nil
	}
	if s, ok := r.ComputedSets[name]; ok {
		return s.Materialize(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSet, name)
}

// TupleAt resolves `setName[index].field`-style access: index picks the
// family member of an indexed tuple set, returning it as a single tuple
// Value only when that member holds exactly one instance (the common
// case for `S[i]` access in the Expression Tree's table); a family member
// with multiple instances is not addressable this way. For a flat
// (non-indexed) tuple set, index addresses the nth instance directly.
func (r *Repository) TupleAt(setName string, index int) (expr.Value, error) {
	s, ok := r.TupleSets[setName]
	if !ok {
		return expr.Value{}, fmt.Errorf("%w: %s", ErrUnknownSet, setName)
	}
	if s.IndexSet != "" {
		members := s.At(index)
		if len(members) != 1 {
			return expr.Value{}, fmt.Errorf("%w: %s[%d] is not a single instance", ErrNoUniqueMatch, setName, index)
		}
		return members[0], nil
	}
	flat := s.Elements()
	if index < 1 || index > len(flat) {
		return expr.Value{}, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, setName, index)
	}
	return flat[index-1], nil
}

func (r *Repository) ItemLookup(setName string, key expr.Value) (expr.Value, error) {
	s, ok := r.TupleSets[setName]
	if !ok {
		return expr.Value{}, fmt.Errorf("%w: %s", ErrUnknownSet, setName)
	}
	schema, ok := r.TupleSchemas[s.Schema]
	if !ok {
		return expr.Value{}, fmt.Errorf("%w: %s", ErrUnknownTupleSchema, s.Schema)
	}
	return s.ItemLookup(schema, key)
}
