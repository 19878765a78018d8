// Package diagnostics implements the per-run error session (C10):
// accumulated (message, line) pairs plus a success counter. Errors are
// collected, never thrown across component boundaries (spec.md §7).
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Entry is one accumulated diagnostic: the message, the 1-based source
// line it refers to, and a quote of the offending statement.
type Entry struct {
	Line      int
	Message   string
	Statement string
}

// String renders the user-visible shape spec.md §7 fixes: "Line N:
// <message>" plus the quoted statement.
func (e Entry) String() string {
	if e.Statement == "" {
		return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("Line %d: %s\n    %s", e.Line, e.Message, strings.TrimSpace(e.Statement))
}

// Outcome classifies a finished session per spec.md §7: all-success,
// mixed (partial model preserved, reported as a warning), or hard
// failure (no statement succeeded).
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeWarning
	OutcomeFailure
)

// Session collects diagnostics for one parse run. Not thread-safe; one
// session per ModelRepository, like the repository itself.
type Session struct {
	ID        uuid.UUID
	entries   []Entry
	successes int
}

// NewSession returns an empty session stamped with a fresh id for
// correlating scripting-engine invocations and report output.
func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// Errorf appends a diagnostic at line, quoting stmt.
func (s *Session) Errorf(line int, stmt string, format string, args ...any) {
	s.entries = append(s.entries, Entry{
		Line:      line,
		Message:   fmt.Sprintf(format, args...),
		Statement: stmt,
	})
}

// Success bumps the success counter. The dispatcher calls this once per
// statement a recognizer accepted and processed without error.
func (s *Session) Success() { s.successes++ }

// Errors returns the accumulated entries in insertion order.
func (s *Session) Errors() []Entry { return s.entries }

// SuccessCount returns the number of successfully processed statements.
func (s *Session) SuccessCount() int { return s.successes }

// HasErrors reports whether any diagnostic was recorded.
func (s *Session) HasErrors() bool { return len(s.entries) > 0 }

// Outcome classifies the finished session.
func (s *Session) Outcome() Outcome {
	switch {
	case len(s.entries) == 0:
		return OutcomeSuccess
	case s.successes == 0:
		return OutcomeFailure
	default:
		return OutcomeWarning
	}
}

// Render writes the session's report to w. With colored set, severity is
// color-coded the way the teacher CLI renders command status.
func (s *Session) Render(w io.Writer, colored bool) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)
	if !colored {
		red.DisableColor()
		yellow.DisableColor()
		green.DisableColor()
	}

	for _, e := range s.entries {
		red.Fprintln(w, e.String())
	}

	switch s.Outcome() {
	case OutcomeSuccess:
		green.Fprintf(w, "%d statements processed, no errors (session %s)\n", s.successes, s.ID)
	case OutcomeWarning:
		yellow.Fprintf(w, "warning: %d statements processed, %d errors; partial model preserved (session %s)\n",
			s.successes, len(s.entries), s.ID)
	case OutcomeFailure:
		red.Fprintf(w, "failure: no statements processed, %d errors (session %s)\n", len(s.entries), s.ID)
	}
}
