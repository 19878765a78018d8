package script

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// CELEngine is the default Engine: an execute{} block body is a single
// CEL expression evaluating to the results mapping. The environment is
// rebuilt per block from the published snapshot, the same way the
// teacher's Namespace builds a cel.Env per frame from its currently
// bound names.
type CELEngine struct {
	RecursionLimit int
}

// NewCELEngine returns an engine with the default recursion limit.
func NewCELEngine() *CELEngine {
	return &CELEngine{RecursionLimit: 100}
}

// Run compiles and evaluates source against the snapshot. The snapshot's
// scalar parameters are visible as top-level names; the index sets,
// variable metadata, and environment constants under the reserved names
// `indexSets`, `variables`, and `env`.
func (e *CELEngine) Run(source string, snap Snapshot) (map[string]any, error) {
	activation := map[string]any{
		"indexSets": indexSetsMap(snap),
		"variables": variablesList(snap),
		"env":       snap.Environment,
	}
	for name, v := range snap.Parameters {
		activation[name] = v
	}

	options := []cel.EnvOption{
		cel.HomogeneousAggregateLiterals(),
		cel.EagerlyValidateDeclarations(true),
	}
	if e.RecursionLimit > 0 {
		options = append(options, cel.ParserRecursionLimit(e.RecursionLimit))
	}
	for key := range activation {
		options = append(options, cel.Variable(key, cel.DynType))
	}

	env, err := cel.NewEnv(options...)
	if err != nil {
		return nil, fmt.Errorf("build CEL environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("CEL evaluation error: %w", err)
	}

	return resultsMap(result)
}

func indexSetsMap(snap Snapshot) map[string]any {
	out := make(map[string]any, len(snap.IndexSets))
	for name, r := range snap.IndexSets {
		out[name] = map[string]any{"start": r.Start, "end": r.End}
	}
	return out
}

func variablesList(snap Snapshot) []any {
	out := make([]any, 0, len(snap.Variables))
	for _, v := range snap.Variables {
		out = append(out, map[string]any{"name": v.Name, "type": v.Type})
	}
	return out
}

// resultsMap coerces the evaluated block value into the named results
// mapping the bridge ingests.
func resultsMap(result ref.Val) (map[string]any, error) {
	switch v := result.Value().(type) {
	case map[string]any:
		return v, nil
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(v))
		for k, val := range v {
			name, ok := k.Value().(string)
			if !ok {
				return nil, fmt.Errorf("%w: result key %v is not a string", ErrBadResult, k.Value())
			}
			out[name] = nativeValue(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: block must evaluate to a map of results, got %T", ErrBadResult, v)
	}
}

func nativeValue(v ref.Val) any {
	switch x := v.Value().(type) {
	case []ref.Val:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = nativeValue(e)
		}
		return out
	default:
		return x
	}
}
