// Package databind implements the Data-File Binder (C7): parsing .dat
// statements and binding their values into declarations marked external.
package databind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oplc-lang/oplc/expr"
	"github.com/oplc-lang/oplc/model"
)

// Sentinel errors for value parsing and binding.
var (
	ErrUnknownName        = errors.New("unknown name in data file")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrTypeMismatch       = errors.New("type mismatch in data file")
	ErrUnbalancedBrackets = errors.New("unbalanced brackets")
	ErrBadValueLiteral    = errors.New("bad value literal")
	ErrNotAStatement      = errors.New("not a data statement")
)

// ParseScalar parses one scalar literal of the declared type. Strings
// must be double-quoted (quotes stripped on assignment); numeric parsing
// uses a period as decimal point regardless of locale, which is exactly
// what strconv gives.
func ParseScalar(text string, t model.ValueType) (expr.Value, error) {
	text = strings.TrimSpace(text)
	switch t {
	case model.TypeInt, model.TypeFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("%w: %q is not a number", ErrBadValueLiteral, text)
		}
		return expr.Number(v), nil
	case model.TypeString:
		if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
			return expr.Value{}, fmt.Errorf("%w: string value %q must be double-quoted", ErrBadValueLiteral, text)
		}
		return expr.String(text[1 : len(text)-1]), nil
	case model.TypeBool:
		switch text {
		case "true", "1":
			return expr.Bool(true), nil
		case "false", "0":
			return expr.Bool(false), nil
		default:
			return expr.Value{}, fmt.Errorf("%w: %q is not a bool", ErrBadValueLiteral, text)
		}
	default:
		return expr.Value{}, fmt.Errorf("%w: unhandled type", ErrBadValueLiteral)
	}
}

// ParseUntypedScalar infers the literal's kind for contexts with no
// declared type (primitive-set literals in a model file, script results):
// quoted -> string, true/false -> bool, otherwise number.
func ParseUntypedScalar(text string) (expr.Value, error) {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return expr.String(text[1 : len(text)-1]), nil
	}
	switch text {
	case "true":
		return expr.Bool(true), nil
	case "false":
		return expr.Bool(false), nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return expr.Value{}, fmt.Errorf("%w: %q", ErrBadValueLiteral, text)
	}
	return expr.Number(v), nil
}

// SplitElements splits a vector/set body into element texts by comma *or*
// whitespace, never both: if any comma is present at depth 0 and outside
// quotes, comma mode wins (spec.md §4.7, resolving the §9 open question
// the same way the majority of the observed behavior does).
func SplitElements(body string) ([]string, error) {
	commaMode := false
	depth := 0
	inString := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			inString = !inString
		case '[', '{', '<', '(':
			if !inString {
				depth++
			}
		case ']', '}', '>', ')':
			if !inString {
				depth--
			}
		case ',':
			if !inString && depth == 0 {
				commaMode = true
			}
		}
	}
	if inString {
		return nil, fmt.Errorf("%w: unterminated string in value list", ErrBadValueLiteral)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: in value list", ErrUnbalancedBrackets)
	}

	var out []string
	var cur strings.Builder
	depth = 0
	inString = false
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			out = append(out, t)
		}
		cur.Reset()
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' {
			inString = !inString
			cur.WriteByte(c)
			continue
		}
		if inString {
			cur.WriteByte(c)
			continue
		}
		switch c {
		case '[', '{', '<', '(':
			depth++
			cur.WriteByte(c)
		case ']', '}', '>', ')':
			depth--
			cur.WriteByte(c)
		case ',':
			if depth == 0 && commaMode {
				flush()
			} else {
				cur.WriteByte(c)
			}
		case ' ', '\t', '\n', '\r':
			if depth == 0 && !commaMode {
				flush()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out, nil
}

// bracketBody strips one matched outer pair of open/close from s,
// erroring when the delimiters are missing or unbalanced.
func bracketBody(s string, open, close byte) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != open || s[len(s)-1] != close {
		return "", fmt.Errorf("%w: expected %c...%c", ErrUnbalancedBrackets, open, close)
	}
	return s[1 : len(s)-1], nil
}

// ParseVector parses `[v1, v2, ...]` (or whitespace-separated) into
// element texts.
func ParseVector(text string) ([]string, error) {
	body, err := bracketBody(text, '[', ']')
	if err != nil {
		return nil, err
	}
	return SplitElements(body)
}

// ParseMatrix parses `[[...],[...],...]` into per-row element texts.
func ParseMatrix(text string) ([][]string, error) {
	body, err := bracketBody(text, '[', ']')
	if err != nil {
		return nil, err
	}
	rows, err := SplitElements(body)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		elems, err := ParseVector(row)
		if err != nil {
			return nil, err
		}
		out[i] = elems
	}
	return out, nil
}

// ParsePrimitiveElements parses `{v1, v2, ...}` into typed set elements.
func ParsePrimitiveElements(text string, t model.ValueType) ([]expr.Value, error) {
	body, err := bracketBody(text, '{', '}')
	if err != nil {
		return nil, err
	}
	texts, err := SplitElements(body)
	if err != nil {
		return nil, err
	}
	out := make([]expr.Value, len(texts))
	for i, s := range texts {
		v, err := ParseScalar(s, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseTupleInstances parses `{<f1,f2,...>, <...>, ...}` into tuple
// Values keyed by the schema's declared field names, positionally.
func ParseTupleInstances(text string, schema *model.TupleSchema) ([]expr.Value, error) {
	body, err := bracketBody(text, '{', '}')
	if err != nil {
		return nil, err
	}
	instanceTexts, err := SplitElements(body)
	if err != nil {
		return nil, err
	}
	out := make([]expr.Value, 0, len(instanceTexts))
	for _, it := range instanceTexts {
		v, err := ParseTupleInstance(it, schema)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseTupleInstance parses one `<f1,f2,...>` literal against schema.
func ParseTupleInstance(text string, schema *model.TupleSchema) (expr.Value, error) {
	body, err := bracketBody(text, '<', '>')
	if err != nil {
		return expr.Value{}, err
	}
	fieldTexts, err := SplitElements(body)
	if err != nil {
		return expr.Value{}, err
	}
	if len(fieldTexts) != len(schema.Fields) {
		return expr.Value{}, fmt.Errorf("%w: tuple %s wants %d fields, got %d",
			ErrShapeMismatch, schema.Name, len(schema.Fields), len(fieldTexts))
	}
	fields := make(map[string]expr.Value, len(fieldTexts))
	for i, f := range schema.Fields {
		v, err := ParseScalar(fieldTexts[i], f.Type)
		if err != nil {
			return expr.Value{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields[f.Name] = v
	}
	return expr.FromTuple(expr.Tuple{Fields: fields}), nil
}
