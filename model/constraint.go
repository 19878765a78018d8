package model

import "github.com/oplc-lang/oplc/expr"

// Constraint is the canonical linearized form spec.md §3 calls a Scalar
// Linear Constraint: Σ cⱼ·xⱼ OP k. Coefficients remain Expression trees
// (not pre-evaluated floats) so they may reference parameters resolved
// later, at binding time, per spec.md §4.5.
type Constraint struct {
	Label        string
	BaseName     string // un-indexed label, for diagnostics/MPS naming of expanded instances
	Index        *int   // first expanded index, nil for a non-expanded (plain) constraint
	SecondIndex  *int   // second expanded index, for 2-d templates
	Coefficients map[string]*expr.Expression
	Op           expr.BinaryOp
	Constant     *expr.Expression
	Line         int
}

// TemplateKind distinguishes the two ConstraintTemplate source forms
// spec.md §3 names.
type TemplateKind int

const (
	TemplateForall TemplateKind = iota
	TemplateBracket
)

// ConstraintTemplate is an un-expanded forall statement or bracket-indexed
// constraint, stored until expansion.Engine materializes it into
// Constraints and the repository clears it (spec.md §3 "Templates ...
// deleted after expansion").
type ConstraintTemplate struct {
	Kind      TemplateKind
	Label     string // optional for forall, required for bracket form
	Iterators []expr.Iterator
	LHS, RHS  *expr.Expression
	Op        expr.BinaryOp
	Line      int
}
