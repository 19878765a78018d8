package dispatch

import (
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

var objectivePattern = regexp.MustCompile(`(?s)^(minimize|maximize)\s+(.+)$`)

// recognizeObjective handles recognizer slot 12: `minimize expr` /
// `maximize expr`, with an optional `name:` label.
func recognizeObjective(d *Dispatcher, text string, line int) (Outcome, error) {
	m := objectivePattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	sense := model.Minimize
	if m[1] == "maximize" {
		sense = model.Maximize
	}

	name, body := labelPrefix(strings.TrimSpace(m[2]))

	prepped, err := d.prepExpressionText(body)
	if err != nil {
		return Invalid, err
	}

	e, err := d.parseResolved(prepped, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}

	form, err := exprparse.Linearize(e, expr.NewEvaluationContext(), d.repo)
	if err != nil {
		return Invalid, err
	}

	coeffs := form.Coeffs
	if coeffs == nil {
		coeffs = make(map[string]*expr.Expression)
	}
	constant := form.Constant
	if constant == nil {
		constant = expr.Const(0)
	}

	d.repo.SetObjective(&model.Objective{
		Sense:        sense,
		Name:         name,
		Coefficients: coeffs,
		Constant:     constant,
	})
	return Recognized, nil
}
