package expr

// WalkVariables returns the set of scalar decision-variable base names
// (pre-index-normalization; NIndexedVariable/NVariable's Name field)
// referenced anywhere in e, for invariant-checking and diagnostics (spec.md
// §8 property 1). It does not resolve indices, since that requires a
// repo and a context; callers that need canonical post-index names should
// walk linearized coefficients instead (exprparse.Linearize).
func WalkVariables(e *Expression) map[string]bool {
	out := make(map[string]bool)
	walkVariables(e, out)
	return out
}

func walkVariables(e *Expression, out map[string]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case NVariable, NIndexedVariable:
		out[e.Name] = true
	}

	for _, idx := range e.Indices {
		walkVariables(idx, out)
	}
	walkVariables(e.Left, out)
	walkVariables(e.Right, out)
	walkVariables(e.Operand, out)
	walkVariables(e.Body, out)
	for _, it := range e.Iterators {
		walkVariables(it.Filter, out)
	}
	walkVariables(e.Filter, out)
	walkVariables(e.Cond, out)
	walkVariables(e.Then, out)
	walkVariables(e.Else, out)
	walkVariables(e.Key, out)
	for _, f := range e.Fields {
		walkVariables(f, out)
	}
}
