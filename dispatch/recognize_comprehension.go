package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// comprehensionPattern matches `{Schema} name = { body | iters [: filter] }`.
var comprehensionPattern = regexp.MustCompile(
	`(?s)^\{\s*(` + identPat + `)\s*\}\s*(` + identPat + `)\s*=\s*\{(.*)\}$`)

// recognizeComprehension handles recognizer slot 8: the computed set.
func recognizeComprehension(d *Dispatcher, text string, line int) (Outcome, error) {
	m := comprehensionPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	inner := m[3]

	pipe := indexTopLevel(inner, '|')
	if pipe < 0 {
		return NotMine, nil
	}

	bodyText := strings.TrimSpace(inner[:pipe])
	iterSection := strings.TrimSpace(inner[pipe+1:])

	var filterText string
	if colon := indexTopLevel(iterSection, ':'); colon >= 0 {
		filterText = strings.TrimSpace(iterSection[colon+1:])
		iterSection = strings.TrimSpace(iterSection[:colon])
	}

	iters, scope, err := parseIterators(iterSection, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}

	body, err := d.parseResolved(bodyText, scope)
	if err != nil {
		return Invalid, fmt.Errorf("comprehension body: %w", err)
	}

	cs := &model.ComputedSet{
		Name:      m[2],
		BodyVar:   bodyText,
		Iterators: iters,
		Body:      body,
	}
	if filterText != "" {
		filter, err := d.parseResolved(filterText, scope)
		if err != nil {
			return Invalid, fmt.Errorf("comprehension filter: %w", err)
		}
		cs.Filter = filter
	}

	d.repo.AddComputedSet(cs)
	return Recognized, nil
}
