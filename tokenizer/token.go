// Package tokenizer implements the front-end's top-level splitter (C3):
// comment stripping, balanced-brace block extraction, and semicolon
// statement splitting with 1-based line tracking.
package tokenizer

import "errors"

// Sentinel errors.
var (
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnbalancedBraces   = errors.New("unbalanced braces")
)

// Statement is one semicolon-terminated chunk of source text together with
// the 1-based line number of its first non-empty line.
type Statement struct {
	Text string
	Line int
}

// Block is a balanced-brace-delimited block extracted ahead of statement
// splitting: execute { ... }, subject to { ... }, or tuple Name { ... }.
type Block struct {
	Kind  BlockKind
	Name  string // tuple schema name, or execute block label; empty otherwise
	Body  string // text between the braces, exclusive
	Line  int    // line of the keyword introducing the block
}

// BlockKind distinguishes the three brace-delimited constructs the splitter
// extracts before semicolon splitting.
type BlockKind int

const (
	BlockExecute BlockKind = iota
	BlockSubjectTo
	BlockTupleSchema
)
