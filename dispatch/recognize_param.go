package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/databind"
	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/exprparse"
	"github.com/oplc-lang/oplc/model"
)

// multiDimParamPattern matches the k>=2 bracket-per-dimension external
// form `type name[S1][S2]... = ...`.
var multiDimParamPattern = regexp.MustCompile(
	`(?s)^(int|float|string|bool)\s+(` + identPat + `)\s*((?:\[` + identPat + `\]\s*){2,})=\s*(.*)$`)

var bracketSetPattern = regexp.MustCompile(`\[(` + identPat + `)\]`)

// recognizeMultiDimParam handles recognizer slot 1 of spec.md §4.4: the
// multi-dimensional external indexed parameter.
func recognizeMultiDimParam(d *Dispatcher, text string, line int) (Outcome, error) {
	m := multiDimParamPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	t, _ := model.ParamTypeFromKeyword(m[1])
	name := m[2]

	var sets []string
	for _, sm := range bracketSetPattern.FindAllStringSubmatch(m[3], -1) {
		sets = append(sets, sm[1])
	}

	if strings.TrimSpace(m[4]) != "..." {
		return Invalid, fmt.Errorf("multi-dimensional parameter %s must be external (= ...)", name)
	}
	for _, s := range sets {
		if !d.knownSet(s) {
			return Invalid, fmt.Errorf("%w: %s", model.ErrUnknownSet, s)
		}
	}

	d.repo.AddParameter(model.NewIndexedParameter(name, t, true, sets))
	return Recognized, nil
}

// paramPattern matches the scalar and single-bracket indexed forms:
// `type name = expr`, `type name[S] = ...`, `type name[S1,S2] = ...`.
var paramPattern = regexp.MustCompile(
	`(?s)^(int|float|string|bool)\s+(` + identPat + `)\s*(?:\[([^\[\]]+)\])?\s*=\s*(.*)$`)

// recognizeParam handles recognizer slot 2: scalar, 1-d, and 2-d
// parameter declarations with an external marker, an inline literal, or
// a scalar initializer expression.
func recognizeParam(d *Dispatcher, text string, line int) (Outcome, error) {
	m := paramPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	t, _ := model.ParamTypeFromKeyword(m[1])
	name := m[2]
	indexText := strings.TrimSpace(m[3])
	rhs := strings.TrimSpace(m[4])

	if indexText == "" {
		return d.declareScalarParam(name, t, rhs)
	}

	var sets []string
	for _, s := range strings.Split(indexText, ",") {
		s = strings.TrimSpace(s)
		if !d.knownSet(s) {
			return Invalid, fmt.Errorf("%w: %s", model.ErrUnknownSet, s)
		}
		sets = append(sets, s)
	}

	p := model.NewIndexedParameter(name, t, rhs == "...", sets)
	d.repo.AddParameter(p)

	if rhs == "..." {
		return Recognized, nil
	}
	if !strings.HasPrefix(rhs, "[") {
		return Invalid, fmt.Errorf("indexed parameter %s needs '...', a vector, or a matrix literal", name)
	}

	// Inline vector/matrix literals reuse the data binder's value rules;
	// a model-file literal and a .dat literal are the same grammar.
	if err := databind.New(d.repo, d.diag).BindStatement(name + " = " + rhs); err != nil {
		return Invalid, err
	}
	return Recognized, nil
}

func (d *Dispatcher) declareScalarParam(name string, t model.ValueType, rhs string) (Outcome, error) {
	p := model.NewScalarParameter(name, t, rhs == "...")
	if rhs == "..." {
		d.repo.AddParameter(p)
		return Recognized, nil
	}

	var v expr.Value
	if t == model.TypeBool {
		parsed, err := databind.ParseUntypedScalar(rhs)
		if err != nil || parsed.Kind != expr.KindBool {
			return Invalid, fmt.Errorf("%w: %s wants true or false", model.ErrParameterTypeMismatch, name)
		}
		v = parsed
	} else {
		e, err := d.parseResolved(rhs, exprparse.NewScope())
		if err != nil {
			return Invalid, err
		}
		val, err := expr.Evaluate(e, expr.NewEvaluationContext(), d.repo)
		if err != nil {
			return Invalid, fmt.Errorf("parameter %s: %v", name, err)
		}
		v = val
	}

	if err := p.SetScalar(v); err != nil {
		return Invalid, err
	}
	d.repo.AddParameter(p)
	return Recognized, nil
}

// knownSet reports whether name is declared as any set kind usable as an
// index dimension.
func (d *Dispatcher) knownSet(name string) bool {
	if _, ok := d.repo.IndexSetByName(name); ok {
		return true
	}
	if _, ok := d.repo.PrimitiveSetByName(name); ok {
		return true
	}
	if _, ok := d.repo.TupleSetByName(name); ok {
		return true
	}
	_, ok := d.repo.ComputedSetByName(name)
	return ok
}
