package model

import "github.com/oplc-lang/oplc/expr"

// Sense is the objective's optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Objective is the linearized objective function (spec.md §3).
type Objective struct {
	Sense        Sense
	Name         string
	Coefficients map[string]*expr.Expression
	Constant     *expr.Expression
}
