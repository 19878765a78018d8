package model

import (
	"fmt"

	"github.com/oplc-lang/oplc/expr"
)

// IndexSet is a named, inclusive integer range [Start..End] (spec.md §3).
type IndexSet struct {
	Name  string
	Start int
	End   int
}

// NewIndexSet validates Start <= End and constructs the range.
func NewIndexSet(name string, start, end int) (*IndexSet, error) {
	if start > end {
		return nil, fmt.Errorf("%w: %s = %d..%d", ErrInvalidRange, name, start, end)
	}
	return &IndexSet{Name: name, Start: start, End: end}, nil
}

// Sequence returns the deterministic ordered integer sequence the set
// produces.
func (s *IndexSet) Sequence() []int {
	out := make([]int, 0, s.End-s.Start+1)
	for i := s.Start; i <= s.End; i++ {
		out = append(out, i)
	}
	return out
}

// Len reports the set's cardinality.
func (s *IndexSet) Len() int { return s.End - s.Start + 1 }

// Contains reports whether v lies within the range.
func (s *IndexSet) Contains(v int) bool { return v >= s.Start && v <= s.End }

// PrimitiveSet is an unordered, deduplicated collection of int/float/string
// values (spec.md §3). Iteration order is insertion order, which is
// deterministic for a given source but not semantically meaningful.
type PrimitiveSet struct {
	Name       string
	ElemType   ValueType
	IsExternal bool

	elements []expr.Value
	seen     map[string]bool
}

func NewPrimitiveSet(name string, elemType ValueType, external bool) *PrimitiveSet {
	return &PrimitiveSet{Name: name, ElemType: elemType, IsExternal: external, seen: make(map[string]bool)}
}

// Add inserts v if not already present (dedup), preserving insertion
// order for first occurrence.
func (s *PrimitiveSet) Add(v expr.Value) {
	key := primitiveKey(v)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.elements = append(s.elements, v)
}

func (s *PrimitiveSet) Elements() []expr.Value { return s.elements }

func (s *PrimitiveSet) Contains(v expr.Value) bool { return s.seen[primitiveKey(v)] }

func primitiveKey(v expr.Value) string {
	switch v.Kind {
	case expr.KindNumber:
		return fmt.Sprintf("n:%v", v.Num)
	case expr.KindString:
		return "s:" + v.Str
	case expr.KindBool:
		return fmt.Sprintf("b:%v", v.Bool)
	default:
		return fmt.Sprintf("?:%v", v)
	}
}

// ComputedSet is produced by a set comprehension (spec.md §3): lazy,
// materialized on first evaluation against the repository and cached;
// after InvalidateCache the next Materialize re-runs the comprehension.
type ComputedSet struct {
	Name       string
	BodyVar    string // the comprehension's projected identifier (`body` in `{ body | iters : filter }`)
	Iterators  []expr.Iterator
	Filter     *expr.Expression
	Body       *expr.Expression

	cached    []expr.Value
	cachedSet bool
}

// Materialize evaluates the comprehension against repo, caching the
// result. Call InvalidateCache after any mutation to a referenced set or
// parameter to force recomputation.
func (c *ComputedSet) Materialize(repo expr.Repo) ([]expr.Value, error) {
	if c.cachedSet {
		return c.cached, nil
	}

	var out []expr.Value
	var walk func(i int, ctx expr.EvaluationContext) error
	walk = func(i int, ctx expr.EvaluationContext) error {
		if i == len(c.Iterators) {
			if c.Filter != nil {
				fv, err := expr.Evaluate(c.Filter, ctx, repo)
				if err != nil {
					return err
				}
				if !fv.Truthy() {
					return nil
				}
			}
			v, err := expr.Evaluate(c.Body, ctx, repo)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		}
		it := c.Iterators[i]
		elems, err := repo.IterationSet(it.SetName)
		if err != nil {
			return err
		}
		for _, elem := range elems {
			next := ctx.Bind(it.Var, elem)
			if it.Filter != nil {
				fv, err := expr.Evaluate(it.Filter, next, repo)
				if err != nil {
					return err
				}
				if !fv.Truthy() {
					continue
				}
			}
			if err := walk(i+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, expr.NewEvaluationContext()); err != nil {
		return nil, err
	}
	c.cached = out
	c.cachedSet = true
	return out, nil
}

// InvalidateCache drops the cached materialization.
func (c *ComputedSet) InvalidateCache() {
	c.cachedSet = false
	c.cached = nil
}
