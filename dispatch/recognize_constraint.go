package dispatch

import (
	"errors"
	"fmt"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// recognizeConstraint handles recognizer slot 11: any statement with a
// relational operator at top level becomes a scalar linear constraint.
func recognizeConstraint(d *Dispatcher, text string, line int) (Outcome, error) {
	label, body := labelPrefix(text)

	_, _, _, found, err := splitTopLevelRelop(body)
	if err != nil {
		if errors.Is(err, ErrAssignEquals) && label == "" {
			// A bare top-level '=' with no label is not a constraint at
			// all; let the dispatcher keep looking.
			return NotMine, nil
		}
		return Invalid, err
	}
	if !found {
		return NotMine, nil
	}

	prepped, err := d.prepExpressionText(body)
	if err != nil {
		return Invalid, err
	}

	lhsText, op, rhsText, _, err := splitTopLevelRelop(prepped)
	if err != nil {
		return Invalid, err
	}

	lhs, err := d.parseResolved(lhsText, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}
	rhs, err := d.parseResolved(rhsText, exprparse.NewScope())
	if err != nil {
		return Invalid, err
	}

	lc, err := exprparse.LinearizeConstraint(lhs, rhs, op, expr.NewEvaluationContext(), d.repo)
	if err != nil {
		return Invalid, err
	}

	d.eqCount++
	if label == "" {
		label = fmt.Sprintf("c%d", d.eqCount)
	}

	d.repo.AddEquation(&model.Constraint{
		Label:        label,
		BaseName:     label,
		Coefficients: lc.Coeffs,
		Op:           lc.Op,
		Constant:     lc.Constant,
		Line:         line,
	})
	return Recognized, nil
}
