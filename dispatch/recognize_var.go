package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// dvarPattern matches `dvar type[+] name [idx] [in lo..hi]`. The `+`
// suffix on the value type is shorthand for a zero lower bound.
var dvarPattern = regexp.MustCompile(
	`(?s)^dvar\s+(int|float|bool|boolean)(\+?)\s+(` + identPat + `)\s*(?:\[([^\[\]]+)\])?\s*(?:in\s+(.+?)\s*\.\.\s*(.+))?$`)

// varPattern is the legacy general-variable form.
var varPattern = regexp.MustCompile(
	`(?s)^var\s+(int|float|bool|boolean)(\+?)\s+(` + identPat + `)\s*(?:\[([^\[\]]+)\])?\s*(?:in\s+(.+?)\s*\.\.\s*(.+))?$`)

// recognizeDvar handles recognizer slot 4: the decision variable.
func recognizeDvar(d *Dispatcher, text string, line int) (Outcome, error) {
	m := dvarPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	return d.declareVariable(m)
}

// recognizeLegacyVar handles recognizer slot 5: the legacy `var` form,
// rejected under the strict profile.
func recognizeLegacyVar(d *Dispatcher, text string, line int) (Outcome, error) {
	m := varPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	if !d.profile.AllowsLegacyVar() {
		return Invalid, fmt.Errorf("legacy 'var' declarations are not allowed under the %s profile", d.profile)
	}
	return d.declareVariable(m)
}

func (d *Dispatcher) declareVariable(m []string) (Outcome, error) {
	typeKw := m[1]
	if typeKw == "boolean" {
		typeKw = "bool"
	}
	t, _ := model.ParamTypeFromKeyword(typeKw)
	name := m[3]

	v := &model.Variable{Name: name, ValueType: t}

	if m[4] != "" {
		for _, s := range strings.Split(m[4], ",") {
			s = strings.TrimSpace(s)
			if !d.knownSet(s) {
				return Invalid, fmt.Errorf("%w: %s", model.ErrUnknownSet, s)
			}
			v.IndexSets = append(v.IndexSets, s)
		}
		if len(v.IndexSets) > 2 {
			return Invalid, fmt.Errorf("variable %s: at most two index dimensions are supported", name)
		}
	}

	if m[2] == "+" {
		v.Lower = expr.Const(0)
	}

	if m[5] != "" {
		lo, err := d.parseResolved(m[5], exprparse.NewScope())
		if err != nil {
			return Invalid, fmt.Errorf("lower bound: %w", err)
		}
		hi, err := d.parseResolved(m[6], exprparse.NewScope())
		if err != nil {
			return Invalid, fmt.Errorf("upper bound: %w", err)
		}
		v.Lower = lo
		v.Upper = hi
	}

	d.repo.AddVariable(v)
	return Recognized, nil
}
