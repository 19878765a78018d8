package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oplc-lang/oplc/expr"
)

// Variable is a named decision variable (dvar/legacy var) per spec.md §3:
// scalar, 1-d, or 2-d, with an optional bound pair.
type Variable struct {
	Name      string
	ValueType ValueType // float, int, or bool
	IndexSets []string  // 0, 1, or 2 entries
	Lower     *expr.Expression
	Upper     *expr.Expression
}

// Dims reports dimensionality (0 = scalar).
func (v *Variable) Dims() int { return len(v.IndexSets) }

// CanonicalName derives the flat scalar name the expansion engine and MPS
// export use as a coefficient key, per spec.md §6: x[3] -> x3,
// x[3,5] -> x3_5.
func (v *Variable) CanonicalName(indices []int) (string, error) {
	if len(indices) != v.Dims() {
		return "", fmt.Errorf("%w: %s wants %d, got %d", ErrWrongIndexCount, v.Name, v.Dims(), len(indices))
	}
	if len(indices) == 0 {
		return v.Name, nil
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return v.Name + strings.Join(parts, "_"), nil
}
