// Package model implements the Model Repository (C1): the in-memory
// catalog of every entity a .mod/.dat parse declares, per spec.md §3-§4.1.
package model

import "errors"

// Sentinel errors, grouped by the entity kind they guard. Grounded on the
// teacher's package-scoped errors.go convention (root errors.go,
// parser/parsercommon/errors.go): one var block, one doc comment per
// error, no ad hoc string errors.
var (
	// ErrUnknownParameter indicates a reference to a parameter that was
	// never declared.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrParameterUnbound indicates a read of a parameter before a data
	// file (or inline literal) supplied its value.
	ErrParameterUnbound = errors.New("parameter is unbound")
	// ErrParameterTypeMismatch indicates a value's type disagrees with
	// the parameter's declared type.
	ErrParameterTypeMismatch = errors.New("parameter type mismatch")
	// ErrIndexOutOfRange indicates an index falls outside its
	// governing index set's [start..end] range.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrWrongIndexCount indicates an index tuple's arity does not
	// match a parameter's, variable's, or tuple set's declared shape.
	ErrWrongIndexCount = errors.New("wrong number of indices")

	// ErrUnknownIndexSet indicates a reference to an undeclared range.
	ErrUnknownIndexSet = errors.New("unknown index set")
	// ErrUnknownSet indicates a reference to a name that is none of
	// index set, primitive set, tuple set, or computed set.
	ErrUnknownSet = errors.New("unknown set")
	// ErrInvalidRange indicates a `range N = a..b;` with a > b.
	ErrInvalidRange = errors.New("invalid range: start exceeds end")

	// ErrUnknownTupleSchema indicates a tuple set referencing an
	// undeclared schema.
	ErrUnknownTupleSchema = errors.New("unknown tuple schema")
	// ErrDuplicateTupleKey indicates two instances of a keyed tuple set
	// share the same key-field values.
	ErrDuplicateTupleKey = errors.New("duplicate tuple key")
	// ErrNoUniqueMatch indicates item() found zero or more than one
	// matching instance.
	ErrNoUniqueMatch = errors.New("no unique matching tuple instance")
	// ErrUnknownField indicates a tuple field access naming a field the
	// schema does not declare.
	ErrUnknownField = errors.New("unknown tuple field")

	// ErrUnknownVariable indicates a reference to an undeclared decision
	// variable.
	ErrUnknownVariable = errors.New("unknown decision variable")
	// ErrUnknownDexpr indicates a reference to an undeclared decision
	// expression.
	ErrUnknownDexpr = errors.New("unknown decision expression")

	// ErrEmptySet indicates a set was empty in a context that forbids
	// it (e.g. a forced-nonempty item() lookup).
	ErrEmptySet = errors.New("set is empty")
)
