// Package preprocess implements the two C6 prepasses: the summation
// expander and the parentheses distributor. Both operate on expression
// *text*, ahead of exprparse.Parse, per spec.md §4.6 — which is the
// shape the legacy source used and spec.md's design notes call out as
// "only acceptable for the textual preprocessor pass over sum(...)".
//
// The Expression Tree's NSummation/NFilteredSummation nodes (see
// expr/eval.go) give oplc a second, lazy way to handle `sum(...)`: the
// Expression Parser recognizes the construct directly and defers
// iteration to evaluation time via an EvaluationContext, which also
// covers sums whose set isn't resolvable until after data binding (e.g.
// inside a still-unexpanded forall template). The textual expander here
// is for the case spec.md describes literally: a sum over an
// *already-resolved* set, rewritten to a flat parenthesized sum before
// parsing even begins, matching the legacy behavior byte-for-byte rather
// than relying on the lazy node. Callers that can't resolve the named set
// yet should skip this pass and let the parser's native Summation node
// handle it lazily — ExpandSummations returns the input unchanged
// whenever SetName isn't resolvable.
package preprocess

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMaxNestingExceeded guards the expander against runaway recursion
// (spec.md §4.6: "Iteration bound on nesting depth (100)").
var ErrMaxNestingExceeded = errors.New("summation nesting depth exceeded")

const maxSummationDepth = 100

// SetResolver answers "what are this set's elements, as substitutable
// text tokens" for sets already known at preprocessing time. Index sets
// resolve to their integers; other set kinds are left to the lazy
// Summation node since their elements aren't plain integers.
type SetResolver interface {
	IndexSetSequence(name string) ([]int, bool)
}

// ExpandSummations rewrites every top-level `sum(i in Set[: filter]) BODY`
// occurrence in text into `(t1+t2+...+tn)` (or `0` for an empty set),
// substituting the iterator's literal value into BODY at each step. Only
// sums over a set resolver.IndexSetSequence can resolve are rewritten;
// anything else (filtered sums, multi-iterator sums, or sums over a set
// not yet known) is left untouched for the parser's lazy Summation node.
// Rewriting always works on the first remaining `sum(` in text and stops
// at the first one it cannot rewrite, so any sums after it are left
// untouched as well.
func ExpandSummations(text string, resolver SetResolver) (string, error) {
	return expandSummations(text, resolver, 0)
}

func expandSummations(text string, resolver SetResolver, depth int) (string, error) {
	if depth > maxSummationDepth {
		return "", ErrMaxNestingExceeded
	}

	idx := strings.Index(text, "sum(")
	if idx < 0 {
		return text, nil
	}

	// Only handle the unfiltered single-iterator form eagerly, per the
	// package doc above.
	headerEnd := matchParen(text, idx+3)
	if headerEnd < 0 {
		return text, nil
	}
	header := text[idx+4 : headerEnd]
	if strings.Contains(header, ":") || strings.Contains(header, ",") {
		return text, nil // filtered or multi-iterator: leave for the lazy node
	}

	parts := strings.SplitN(header, " in ", 2)
	if len(parts) != 2 {
		return text, nil
	}
	iterVar := strings.TrimSpace(parts[0])
	setName := strings.TrimSpace(parts[1])

	seq, ok := resolver.IndexSetSequence(setName)
	if !ok {
		return text, nil
	}

	bodyStart := headerEnd + 1
	bodyEnd := findOperandEnd(text, bodyStart)
	body := text[bodyStart:bodyEnd]

	var terms []string
	for _, v := range seq {
		terms = append(terms, substituteIterator(body, iterVar, v))
	}

	var replacement string
	if len(terms) == 0 {
		replacement = "0"
	} else {
		replacement = "(" + strings.Join(terms, "+") + ")"
	}

	rewritten := text[:idx] + replacement + text[bodyEnd:]
	return expandSummations(rewritten, resolver, depth+1)
}

// matchParen returns the index of the ')' matching the '(' at openIdx.
func matchParen(text string, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findOperandEnd scans forward from start for the first top-level
// '+', '-', relational operator, or end-of-input that terminates the
// sum's body operand, tracking paren/bracket balance so nested
// expressions aren't split early (spec.md §4.6).
func findOperandEnd(text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		c := text[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			if depth == 0 {
				return i
			}
			depth--
		case '+', '-', '<', '>', '=':
			if depth == 0 && i > start {
				return i
			}
		}
	}
	return len(text)
}

// substituteIterator rewrites occurrences of iterVar within body into the
// literal value v, canonicalizing `name[iterVar]` forms per spec.md §4.6:
// this simple textual pass cannot distinguish a decision variable from a
// parameter by name alone, so it always substitutes inside the brackets
// (`name[3]`); dispatch-level recognizers normalize indexed decision
// variables to bracket-free canonical names (`name3`) once they know
// which declarations are variables.
func substituteIterator(body, iterVar string, v int) string {
	var out strings.Builder
	i := 0
	n := len(body)
	for i < n {
		if isWordBoundaryMatch(body, i, iterVar) {
			out.WriteString(strconv.Itoa(v))
			i += len(iterVar)
			continue
		}
		out.WriteByte(body[i])
		i++
	}
	return out.String()
}

func isWordBoundaryMatch(s string, i int, word string) bool {
	if i+len(word) > len(s) || s[i:i+len(word)] != word {
		return false
	}
	if i > 0 && isIdentByte(s[i-1]) {
		return false
	}
	if end := i + len(word); end < len(s) && isIdentByte(s[end]) {
		return false
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
