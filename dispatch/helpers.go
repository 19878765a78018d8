package dispatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/preprocess"
)

var (
	ErrDuplicateRelop = errors.New("duplicate relational operator")
	ErrAssignEquals   = errors.New("'=' is assignment; use '==' for equality")
	ErrBadIterator    = errors.New("malformed iterator")
)

const identPat = `[A-Za-z_][A-Za-z0-9_]*`

// splitTopLevelRelop scans text for a relational operator at depth 0
// outside strings. The unicode spellings ≤/≥ alias <=/>=. A second
// top-level relop or a bare top-level '=' is an error; no relop at all
// returns found=false.
func splitTopLevelRelop(text string) (lhs string, op expr.BinaryOp, rhs string, found bool, err error) {
	r := []rune(text)
	depth := 0
	inString := false

	for i := 0; i < len(r); i++ {
		c := r[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}

		var cand expr.BinaryOp
		width := 0
		next := rune(0)
		if i+1 < len(r) {
			next = r[i+1]
		}
		switch {
		case c == '=' && next == '=':
			cand, width = expr.OpEq, 2
		case c == '<' && next == '=':
			cand, width = expr.OpLte, 2
		case c == '>' && next == '=':
			cand, width = expr.OpGte, 2
		case c == '!' && next == '=':
			cand, width = expr.OpNeq, 2
		case c == '≤':
			cand, width = expr.OpLte, 1
		case c == '≥':
			cand, width = expr.OpGte, 1
		case c == '<':
			cand, width = expr.OpLt, 1
		case c == '>':
			cand, width = expr.OpGt, 1
		case c == '=':
			return "", 0, "", false, ErrAssignEquals
		default:
			continue
		}

		if found {
			return "", 0, "", false, ErrDuplicateRelop
		}
		lhs = strings.TrimSpace(string(r[:i]))
		rhs = strings.TrimSpace(string(r[i+width:]))
		op = cand
		found = true
		i += width - 1
	}

	return lhs, op, rhs, found, err
}

var iteratorPattern = regexp.MustCompile(`(?s)^(` + identPat + `)\s+in\s+(` + identPat + `)\s*(?::\s*(.+))?$`)

// parseIterators parses a comma-separated iterator list
// `v1 in S1[: f1], v2 in S2[: f2], ...`, each filter parsed under a scope
// that sees every earlier iterator plus its own. Returns the iterators
// and the scope with all of them bound, for parsing the governed body.
func parseIterators(text string, outer *exprparse.Scope) ([]expr.Iterator, *exprparse.Scope, error) {
	parts, err := splitTopLevel(text, ',')
	if err != nil {
		return nil, nil, err
	}
	scope := outer
	var iters []expr.Iterator
	for _, part := range parts {
		m := iteratorPattern.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrBadIterator, part)
		}
		it := expr.Iterator{Var: m[1], SetName: m[2]}
		scope = scope.Child(it.Var)
		if m[3] != "" {
			filter, err := exprparse.Parse(m[3], scope)
			if err != nil {
				return nil, nil, fmt.Errorf("iterator filter: %w", err)
			}
			it.Filter = filter
		}
		iters = append(iters, it)
	}
	return iters, scope, nil
}

// splitTopLevel splits text on sep at depth 0 outside strings.
func splitTopLevel(text string, sep byte) ([]string, error) {
	var out []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets in %q", text)
			}
		case sep:
			if depth == 0 {
				out = append(out, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", text)
	}
	out = append(out, strings.TrimSpace(text[start:]))
	return out, nil
}

// indexTopLevel returns the index of the first sep at depth 0 outside
// strings, or -1.
func indexTopLevel(text string, sep byte) int {
	depth := 0
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case sep:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// repoSetResolver adapts the repository to the summation expander's
// resolved-set lookup.
type repoSetResolver struct {
	repo *model.Repository
}

func (r repoSetResolver) IndexSetSequence(name string) ([]int, bool) {
	s, ok := r.repo.IndexSetByName(name)
	if !ok {
		return nil, false
	}
	return s.Sequence(), true
}

// prepExpressionText runs the two C6 prepasses over expression text:
// summation expansion over already-resolved sets, then parentheses
// distribution (spec.md §4.6, in that order).
func (d *Dispatcher) prepExpressionText(text string) (string, error) {
	expanded, err := preprocess.ExpandSummations(text, repoSetResolver{d.repo})
	if err != nil {
		return "", err
	}
	return preprocess.DistributeParentheses(expanded), nil
}

// parseResolved parses expression text under scope and reclassifies its
// identifier placeholders against the repository's declarations. The
// strict profile turns off the `2x` coefficient whitelist.
func (d *Dispatcher) parseResolved(text string, scope *exprparse.Scope) (*expr.Expression, error) {
	var (
		e   *expr.Expression
		err error
	)
	if d.profile.AllowsCoefficientJuxtaposition() {
		e, err = exprparse.Parse(text, scope)
	} else {
		e, err = exprparse.ParseStrict(text, scope)
	}
	if err != nil {
		return nil, err
	}
	return exprparse.Resolve(e, d.repo), nil
}

// evalInt parses and evaluates text to an integer against the current
// repository, for range bounds and similar already-resolvable positions.
func (d *Dispatcher) evalInt(text string) (int, error) {
	e, err := d.parseResolved(text, exprparse.NewScope())
	if err != nil {
		return 0, err
	}
	v, err := expr.Evaluate(e, expr.NewEvaluationContext(), d.repo)
	if err != nil {
		return 0, err
	}
	n, err := v.AsNumber()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// labelPrefix strips an optional `IDENT :` label from text, returning
// the label (empty if none) and the remainder. A colon that is part of a
// ternary or an iterator filter never directly follows a leading bare
// identifier, so the simple shape is unambiguous.
var labelPattern = regexp.MustCompile(`(?s)^(` + identPat + `)\s*:\s*(.+)$`)

func labelPrefix(text string) (string, string) {
	m := labelPattern.FindStringSubmatch(text)
	if m == nil {
		return "", text
	}
	return m[1], m[2]
}
