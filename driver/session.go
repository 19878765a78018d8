// Package driver orchestrates one parse session: tokenize, dispatch,
// bind data, run execute blocks, expand templates. One Session owns one
// ModelRepository; the pipeline is single-threaded and synchronous
// (spec.md §5).
package driver

import (
	"io"

	"github.com/oplc-lang/oplc"
	"github.com/oplc-lang/oplc/databind"
	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/dispatch"
	"github.com/oplc-lang/oplc/expansion"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/script"
	"github.com/oplc-lang/oplc/tokenizer"
)

// Session holds the per-run state. Sessions are single-use: create,
// fill, query, drop. A UI hosting several concurrent parses owns one
// Session each.
type Session struct {
	Repo    *model.Repository
	Diag    *diagnostics.Session
	Profile oplc.Profile

	dispatcher *dispatch.Dispatcher
	bridge     *script.Bridge
}

// Option configures a Session.
type Option func(*Session)

// WithScriptEngine installs the engine behind execute{} blocks. Without
// one, execute blocks are reported as errors.
func WithScriptEngine(engine script.Engine, opts ...script.Option) Option {
	return func(s *Session) {
		s.bridge = script.NewBridge(engine, s.Repo, s.Diag, opts...)
	}
}

// NewSession returns an empty session under the given language profile.
func NewSession(profile oplc.Profile, opts ...Option) *Session {
	s := &Session{
		Repo:    model.New(),
		Diag:    diagnostics.NewSession(),
		Profile: profile,
	}
	s.dispatcher = dispatch.New(s.Repo, s.Diag, profile)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseModel processes one .mod source: comment stripping and block
// extraction, tuple schemas first (tuple sets need them), execute blocks
// through the scripting bridge, then every statement through the
// dispatcher in file order.
func (s *Session) ParseModel(src string) error {
	stmts, blocks, err := tokenizer.SplitSource(src)
	if err != nil {
		return err
	}

	for _, block := range blocks {
		if block.Kind != tokenizer.BlockTupleSchema {
			continue
		}
		schema, err := dispatch.ParseTupleSchema(block.Name, block.Body)
		if err != nil {
			s.Diag.Errorf(block.Line, "", "%v", err)
			continue
		}
		s.Repo.AddTupleSchema(schema)
		s.Diag.Success()
	}

	for _, block := range blocks {
		if block.Kind != tokenizer.BlockExecute {
			continue
		}
		if s.bridge == nil {
			s.Diag.Errorf(block.Line, "", "execute block %s: no scripting engine configured", block.Name)
			continue
		}
		s.bridge.RunBlock(block)
	}

	for _, stmt := range stmts {
		s.dispatcher.Dispatch(stmt)
	}
	return nil
}

// BindData processes one .dat source through the data binder. Called
// after every model file, before Expand (spec.md §5 ordering).
func (s *Session) BindData(src string) error {
	return databind.New(s.Repo, s.Diag).Bind(src)
}

// Expand materializes all pending constraint templates.
func (s *Session) Expand() {
	expansion.New(s.Repo, s.Diag).Expand()
}

// Report writes the repository report and the diagnostics summary to w.
func (s *Session) Report(w io.Writer, format model.ReportFormat, colored bool) error {
	report, err := s.Repo.GenerateReport(format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, report); err != nil {
		return err
	}
	s.Diag.Render(w, colored)
	return nil
}
