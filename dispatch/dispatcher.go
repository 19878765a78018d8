// Package dispatch implements the Statement Dispatcher (C4): an ordered
// trial-parser offering each statement to specialized recognizers, first
// to recognize wins. The three-outcome contract (not mine / mine and
// valid / mine but invalid) is spec.md §4.4's; here it is a typed result
// rather than the "Not a ..." message-prefix convention the original
// used.
package dispatch

import (
	"errors"

	"github.com/oplc-lang/oplc"
	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/tokenizer"
)

// Outcome is a recognizer's verdict on a statement.
type Outcome int

const (
	// NotMine means the statement has a different shape; the dispatcher
	// moves on to the next recognizer. Never user-visible.
	NotMine Outcome = iota
	// Recognized means the statement was this recognizer's and was
	// processed successfully.
	Recognized
	// Invalid means the statement was this recognizer's shape but
	// failed; the dispatcher stops and records the error.
	Invalid
)

// ErrUnknownStatement is recorded when no recognizer claims a statement.
var ErrUnknownStatement = errors.New("unknown statement type")

type recognizerFunc func(d *Dispatcher, text string, line int) (Outcome, error)

type recognizer struct {
	name string
	fn   recognizerFunc
}

// Dispatcher routes statements to recognizers in the fixed order spec.md
// §4.4 mandates. Several constructs share a prefix ({Schema} name = ...
// vs a set comprehension), so the order is load-bearing.
type Dispatcher struct {
	repo    *model.Repository
	diag    *diagnostics.Session
	profile oplc.Profile

	recognizers []recognizer
	eqCount     int
}

// New returns a Dispatcher writing into repo and reporting to diag.
func New(repo *model.Repository, diag *diagnostics.Session, profile oplc.Profile) *Dispatcher {
	d := &Dispatcher{repo: repo, diag: diag, profile: profile}
	d.recognizers = []recognizer{
		{"multi-dimensional parameter", recognizeMultiDimParam},
		{"parameter", recognizeParam},
		{"range", recognizeRange},
		{"dvar", recognizeDvar},
		{"var", recognizeLegacyVar},
		{"primitive set", recognizePrimitiveSet},
		{"tuple set", recognizeTupleSet},
		{"set comprehension", recognizeComprehension},
		{"dexpr", recognizeDexpr},
		{"constraint template", recognizeTemplate},
		{"constraint", recognizeConstraint},
		{"objective", recognizeObjective},
	}
	return d
}

// Dispatch offers stmt to each recognizer in order. NotMine outcomes are
// never recorded; only the final unknown-statement fallthrough or an
// explicit recognizer failure reaches the diagnostics session (spec.md
// §4.10).
func (d *Dispatcher) Dispatch(stmt tokenizer.Statement) {
	for _, r := range d.recognizers {
		outcome, err := r.fn(d, stmt.Text, stmt.Line)
		switch outcome {
		case NotMine:
			continue
		case Recognized:
			d.diag.Success()
			return
		case Invalid:
			d.diag.Errorf(stmt.Line, stmt.Text, "%v", err)
			return
		}
	}
	d.diag.Errorf(stmt.Line, stmt.Text, "%v", ErrUnknownStatement)
}
