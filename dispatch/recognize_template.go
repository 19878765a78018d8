package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// forwardDeclPattern matches `constraint c[I]` forward declarations,
// which are recognized and silently skipped (spec.md §9).
var forwardDeclPattern = regexp.MustCompile(
	`(?s)^constraint\s+` + identPat + `\s*(?:\[[^\]]*\])?$`)

// bracketHeadPattern anchors `label[` for the bracket-indexed template
// form; the bracket's extent is found by depth scanning so iterator
// filters may themselves contain indexing.
var bracketHeadPattern = regexp.MustCompile(`(?s)^(` + identPat + `)\s*\[`)

// recognizeTemplate handles recognizer slot 10: forall statements,
// bracket-indexed constraint templates, and the skipped forward
// declaration.
func recognizeTemplate(d *Dispatcher, text string, line int) (Outcome, error) {
	if forwardDeclPattern.MatchString(text) {
		return Recognized, nil
	}

	if strings.HasPrefix(text, "forall") {
		return d.recognizeForall(text, line)
	}

	if m := bracketHeadPattern.FindStringSubmatch(text); m != nil {
		label := m[1]
		rest := text[len(m[0])-1:] // from the '[' inclusive
		closeIdx := matchingBracket(rest)
		if closeIdx < 0 {
			return NotMine, nil
		}
		iterText := rest[1:closeIdx]
		if !strings.Contains(iterText, " in ") {
			return NotMine, nil
		}
		after := strings.TrimSpace(rest[closeIdx+1:])
		if !strings.HasPrefix(after, ":") {
			return NotMine, nil
		}
		body := strings.TrimSpace(after[1:])
		return d.recognizeBracketTemplate(label, iterText, body, line)
	}

	return NotMine, nil
}

func (d *Dispatcher) recognizeForall(text string, line int) (Outcome, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "forall"))
	if !strings.HasPrefix(rest, "(") {
		return Invalid, fmt.Errorf("forall: expected '(' after keyword")
	}

	closeIdx := matchingParen(rest)
	if closeIdx < 0 {
		return Invalid, fmt.Errorf("forall: unbalanced iterator list")
	}
	iterText := rest[1:closeIdx]
	body := strings.TrimSpace(rest[closeIdx+1:])

	iters, scope, err := parseIterators(iterText, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}

	label, body := forallLabelPrefix(body)

	tmpl, err := d.parseTemplateBody(body, scope, line)
	if err != nil {
		return Invalid, err
	}
	tmpl.Kind = model.TemplateForall
	tmpl.Label = label
	tmpl.Iterators = iters

	d.repo.AddForallStatement(tmpl)
	return Recognized, nil
}

func (d *Dispatcher) recognizeBracketTemplate(label, iterText, body string, line int) (Outcome, error) {
	iters, scope, err := parseIterators(iterText, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}

	tmpl, err := d.parseTemplateBody(body, scope, line)
	if err != nil {
		return Invalid, err
	}
	tmpl.Kind = model.TemplateBracket
	tmpl.Label = label
	tmpl.Iterators = iters

	d.repo.AddIndexedEquationTemplate(tmpl)
	return Recognized, nil
}

// parseTemplateBody splits `lhs OP rhs` and parses both sides under the
// template's iterator scope, keeping iterator names as symbolic leaves
// for the expansion engine to bind later.
func (d *Dispatcher) parseTemplateBody(body string, scope *exprparse.Scope, line int) (*model.ConstraintTemplate, error) {
	lhsText, op, rhsText, found, err := splitTopLevelRelop(body)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("constraint template has no relational operator")
	}

	lhs, err := d.parseResolved(lhsText, scope)
	if err != nil {
		return nil, err
	}
	rhs, err := d.parseResolved(rhsText, scope)
	if err != nil {
		return nil, err
	}

	return &model.ConstraintTemplate{LHS: lhs, RHS: rhs, Op: op, Line: line}, nil
}

// forallLabelPattern accepts the decorated label spelling `lim[i]:` a
// forall body may carry; the bracket content is decorative — the
// expanded instances are indexed by the iterators in declaration order.
var forallLabelPattern = regexp.MustCompile(
	`(?s)^(` + identPat + `)\s*(?:\[[^\]]*\])?\s*:\s*(.+)$`)

func forallLabelPrefix(text string) (string, string) {
	m := forallLabelPattern.FindStringSubmatch(text)
	if m == nil {
		return "", text
	}
	return m[1], m[2]
}

// matchingParen returns the index of the ')' matching the '(' at s[0],
// quote-aware, or -1.
func matchingParen(s string) int {
	return matchingDelim(s, '(', ')')
}

// matchingBracket returns the index of the ']' matching the '[' at s[0],
// quote-aware, or -1.
func matchingBracket(s string) int {
	return matchingDelim(s, '[', ']')
}

func matchingDelim(s string, open, close byte) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case open:
			if !inString {
				depth++
			}
		case close:
			if !inString {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}
