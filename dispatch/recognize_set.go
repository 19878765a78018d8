package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/databind"
	"github.com/oplc-lang/oplc/model"
)

// primitiveSetPattern matches `{int|float|string} name [= {...} | ...]`.
var primitiveSetPattern = regexp.MustCompile(
	`(?s)^\{\s*(int|float|string)\s*\}\s*(` + identPat + `)\s*(?:=\s*(.*))?$`)

// recognizePrimitiveSet handles recognizer slot 6.
func recognizePrimitiveSet(d *Dispatcher, text string, line int) (Outcome, error) {
	m := primitiveSetPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	t, _ := model.ParamTypeFromKeyword(m[1])
	name := m[2]
	rhs := strings.TrimSpace(m[3])

	s := model.NewPrimitiveSet(name, t, rhs == "" || rhs == "...")
	if rhs != "" && rhs != "..." {
		elems, err := databind.ParsePrimitiveElements(rhs, t)
		if err != nil {
			return Invalid, fmt.Errorf("primitive set %s: %w", name, err)
		}
		for _, v := range elems {
			s.Add(v)
		}
	}

	d.repo.AddPrimitiveSet(s)
	return Recognized, nil
}
