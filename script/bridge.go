// Package script implements the Scripting Bridge (C9): the thin adapter
// between the model repository and the embedded scripting engine that
// runs execute { ... } blocks. The engine itself is an external
// collaborator behind a one-method interface, so no single engine's
// quirks leak into the core.
package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/tokenizer"
)

// Sentinel errors for the external failure modes spec.md §7 names.
var (
	ErrTimeout    = errors.New("script block timed out")
	ErrNoResults  = errors.New("script block produced no results mapping")
	ErrBadResult  = errors.New("unsupported result value type")
	ErrScriptRun  = errors.New("script runtime error")
)

// IndexRange describes one index set in the published snapshot.
type IndexRange struct {
	Start int
	End   int
}

// VariableInfo describes one decision variable in the published snapshot.
type VariableInfo struct {
	Name      string
	Type      string
	IndexSets []string
}

// Snapshot is the read-only view of the repository the bridge publishes
// before each block: bound parameter values, index-set metadata,
// decision-variable metadata, and the process environment constants.
type Snapshot struct {
	BlockID     uuid.UUID
	Parameters  map[string]any
	IndexSets   map[string]IndexRange
	Variables   []VariableInfo
	Environment map[string]any
}

// Engine is the contract with the embedded scripting engine: run a block
// against a snapshot and return the named results mapping.
type Engine interface {
	Run(source string, snap Snapshot) (map[string]any, error)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout overrides the per-block wall-clock limit (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithEnvironment supplies extra named constants for the snapshot, the
// way the teacher folds .env constants into its namespace.
func WithEnvironment(env map[string]any) Option {
	return func(b *Bridge) { b.environment = env }
}

// Bridge publishes snapshots to the engine and ingests its results back
// into the repository as parameters. The engine instance is reused
// across blocks within one session, so engine-side state deliberately
// leaks between blocks (spec.md §5).
type Bridge struct {
	engine      Engine
	repo        *model.Repository
	diag        *diagnostics.Session
	timeout     time.Duration
	environment map[string]any
}

// NewBridge wires an engine to a repository and diagnostics session.
func NewBridge(engine Engine, repo *model.Repository, diag *diagnostics.Session, opts ...Option) *Bridge {
	b := &Bridge{
		engine:  engine,
		repo:    repo,
		diag:    diag,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RunBlock executes one execute{} block. Engine errors surface as
// diagnostics attached to the block's starting line; they never halt the
// parse.
func (b *Bridge) RunBlock(block tokenizer.Block) {
	snap := b.snapshot()

	results, err := b.runWithTimeout(block.Body, snap)
	if err != nil {
		b.diag.Errorf(block.Line, "", "execute block %s: %v", blockName(block), err)
		return
	}
	if len(results) == 0 {
		b.diag.Errorf(block.Line, "", "execute block %s: %v", blockName(block), ErrNoResults)
		return
	}

	for name, value := range results {
		if err := b.ingest(name, value); err != nil {
			b.diag.Errorf(block.Line, "", "execute block %s: result %s: %v", blockName(block), name, err)
		}
	}
	b.diag.Success()
}

func blockName(block tokenizer.Block) string {
	if block.Name != "" {
		return block.Name
	}
	return fmt.Sprintf("at line %d", block.Line)
}

// runWithTimeout invokes the engine on its own goroutine, bounding the
// wall-clock per block. The engine is also expected to enforce its own
// recursion limit; this guard is the bridge's backstop.
func (b *Bridge) runWithTimeout(source string, snap Snapshot) (map[string]any, error) {
	type outcome struct {
		results map[string]any
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := b.engine.Run(source, snap)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScriptRun, o.err)
		}
		return o.results, nil
	case <-time.After(b.timeout):
		return nil, ErrTimeout
	}
}

// snapshot builds the read-only view published to the engine. Only bound
// scalar parameters are included; indexed parameters are left out.
func (b *Bridge) snapshot() Snapshot {
	snap := Snapshot{
		BlockID:     uuid.New(),
		Parameters:  make(map[string]any),
		IndexSets:   make(map[string]IndexRange),
		Environment: b.environment,
	}

	for name, p := range b.repo.Parameters {
		if p.Dims() != 0 {
			continue
		}
		v, err := p.Value(nil)
		if err != nil {
			continue
		}
		snap.Parameters[name] = valueToAny(v)
	}

	for name, s := range b.repo.IndexSets {
		snap.IndexSets[name] = IndexRange{Start: s.Start, End: s.End}
	}

	for name, v := range b.repo.Variables {
		snap.Variables = append(snap.Variables, VariableInfo{
			Name:      name,
			Type:      v.ValueType.String(),
			IndexSets: v.IndexSets,
		})
	}

	return snap
}

func valueToAny(v expr.Value) any {
	switch v.Kind {
	case expr.KindNumber:
		return v.Num
	case expr.KindString:
		return v.Str
	case expr.KindBool:
		return v.Bool
	default:
		return nil
	}
}

// ingest creates a parameter of the matching type for one (name, value)
// result pair: float, int, string, bool, or a list rendered as a string.
func (b *Bridge) ingest(name string, value any) error {
	var (
		t model.ValueType
		v expr.Value
	)
	switch x := value.(type) {
	case float64:
		t, v = model.TypeFloat, expr.Number(x)
	case int:
		t, v = model.TypeInt, expr.Number(float64(x))
	case int64:
		t, v = model.TypeInt, expr.Number(float64(x))
	case uint64:
		t, v = model.TypeInt, expr.Number(float64(x))
	case string:
		t, v = model.TypeString, expr.String(x)
	case bool:
		t, v = model.TypeBool, expr.Bool(x)
	case []any:
		t, v = model.TypeString, expr.String(fmt.Sprint(x))
	default:
		return fmt.Errorf("%w: %T", ErrBadResult, value)
	}

	p := model.NewScalarParameter(name, t, false)
	if err := p.SetScalar(v); err != nil {
		return err
	}
	b.repo.AddParameter(p)
	return nil
}
