package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// dexprPattern matches `dexpr type name [= expr]` and the indexed form
// `dexpr type name[i in S, ...] = expr`. The index list uses iterator
// clauses rather than bare set names so the body can reference its index
// variables — the resolution of a grammar ambiguity recorded in
// DESIGN.md.
var dexprPattern = regexp.MustCompile(
	`(?s)^dexpr\s+(int|float)\s+(` + identPat + `)\s*(?:\[(.+?)\])?\s*(?:=\s*(.*))?$`)

// recognizeDexpr handles recognizer slot 9: the decision expression.
func recognizeDexpr(d *Dispatcher, text string, line int) (Outcome, error) {
	m := dexprPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	t, _ := model.ParamTypeFromKeyword(m[1])
	name := m[2]
	bodyText := strings.TrimSpace(m[4])

	dx := &model.Dexpr{Name: name, ValueType: t}

	scope := exprparse.NewScope()
	if m[3] != "" {
		iters, iterScope, err := parseIterators(m[3], scope)
		if err != nil {
			return Invalid, err
		}
		dx.Iterators = iters
		scope = iterScope
	}

	if bodyText != "" {
		body, err := d.parseResolved(bodyText, scope)
		if err != nil {
			return Invalid, fmt.Errorf("dexpr %s: %w", name, err)
		}
		dx.Body = body
	}

	d.repo.AddDexpr(dx)
	return Recognized, nil
}
