package dispatch

import (
	"regexp"

	"github.com/oplc-lang/oplc/model"
)

// rangePattern matches `range N = a..b` where a,b may be literals or
// integer parameters already declared.
var rangePattern = regexp.MustCompile(
	`(?s)^range\s+(` + identPat + `)\s*=\s*(.+?)\s*\.\.\s*(.+)$`)

// recognizeRange handles recognizer slot 3: the index-set declaration.
func recognizeRange(d *Dispatcher, text string, line int) (Outcome, error) {
	m := rangePattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}

	start, err := d.evalInt(m[2])
	if err != nil {
		return Invalid, err
	}
	end, err := d.evalInt(m[3])
	if err != nil {
		return Invalid, err
	}

	s, err := model.NewIndexSet(m[1], start, end)
	if err != nil {
		return Invalid, err
	}
	d.repo.AddIndexSet(s)
	return Recognized, nil
}
