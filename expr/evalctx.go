package expr

// EvaluationContext is an immutable-style binding from iterator variable
// name to the Value it is currently bound to — an integer (index-set
// iteration) or a tuple (tuple-set iteration, e.g. `a in arcs`). Binding a
// new iterator clones the map rather than mutating the caller's context,
// mirroring the teacher's Namespace frame-stack
// (parser/parsercommon/namespace.go EnterLoop), simplified from a stack of
// CEL environments to a plain value map since this package carries no CEL
// dependency of its own.
type EvaluationContext struct {
	vars map[string]Value
}

// NewEvaluationContext returns an empty context.
func NewEvaluationContext() EvaluationContext {
	return EvaluationContext{}
}

// Bind returns a new context with name bound to v, leaving the receiver
// untouched.
func (c EvaluationContext) Bind(name string, v Value) EvaluationContext {
	next := make(map[string]Value, len(c.vars)+1)
	for k, v := range c.vars {
		next[k] = v
	}
	next[name] = v
	return EvaluationContext{vars: next}
}

// BindInt is a convenience wrapper for the common case of binding an
// index-set iterator to an integer.
func (c EvaluationContext) BindInt(name string, value int) EvaluationContext {
	return c.Bind(name, Number(float64(value)))
}

// Lookup returns the bound value for name, if any.
func (c EvaluationContext) Lookup(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Bindings returns a copy of the current bindings, for callers (the
// expansion engine, coefficient folding) that need to substitute every
// bound iterator into a tree rather than look one up.
func (c EvaluationContext) Bindings() map[string]Value {
	out := make(map[string]Value, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}
