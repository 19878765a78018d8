package dispatch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oplc-lang/oplc/databind"
	"github.com/oplc-lang/oplc/model"
)

// tupleSetPattern matches `{Schema} name [= ... | = {<...>,...}]` and the
// indexed family form `{Schema} name[I] = ...`.
var tupleSetPattern = regexp.MustCompile(
	`(?s)^\{\s*(` + identPat + `)\s*\}\s*(` + identPat + `)\s*(?:\[(` + identPat + `)\])?\s*(?:=\s*(.*))?$`)

// recognizeTupleSet handles recognizer slot 7. A right-hand side with a
// top-level '|' belongs to the set-comprehension recognizer (slot 8), so
// that shape is declined here — the ordering note of spec.md §9 in
// action.
func recognizeTupleSet(d *Dispatcher, text string, line int) (Outcome, error) {
	m := tupleSetPattern.FindStringSubmatch(text)
	if m == nil {
		return NotMine, nil
	}
	schemaName := m[1]
	name := m[2]
	indexSet := m[3]
	rhs := strings.TrimSpace(m[4])

	if isPrimitiveTypeName(schemaName) {
		return NotMine, nil
	}
	if rhs != "" && strings.HasPrefix(rhs, "{") && indexTopLevel(rhs[1:], '|') >= 0 {
		return NotMine, nil
	}

	schema, ok := d.repo.TupleSchemaByName(schemaName)
	if !ok {
		// The one "fatal" case of spec.md §7: the set's creation is
		// aborted, the parse continues.
		return Invalid, fmt.Errorf("%w: %s", model.ErrUnknownTupleSchema, schemaName)
	}

	external := rhs == "" || rhs == "..."
	var ts *model.TupleSet
	if indexSet != "" {
		if _, ok := d.repo.IndexSetByName(indexSet); !ok {
			return Invalid, fmt.Errorf("%w: %s", model.ErrUnknownIndexSet, indexSet)
		}
		ts = model.NewIndexedTupleSetFamily(name, schemaName, indexSet, external)
	} else {
		ts = model.NewFlatTupleSet(name, schemaName, external)
	}

	if !external {
		instances, err := databind.ParseTupleInstances(rhs, schema)
		if err != nil {
			return Invalid, fmt.Errorf("tuple set %s: %w", name, err)
		}
		for _, v := range instances {
			if err := ts.Add(schema, v); err != nil {
				return Invalid, err
			}
		}
	}

	d.repo.AddTupleSet(ts)
	return Recognized, nil
}

func isPrimitiveTypeName(s string) bool {
	switch s {
	case "int", "float", "string", "bool":
		return true
	default:
		return false
	}
}

// schemaFieldPattern matches one `[key] type name` field declaration of a
// tuple schema block.
var schemaFieldPattern = regexp.MustCompile(
	`^(key\s+)?(int|float|string|bool)\s+(` + identPat + `)$`)

// ParseTupleSchema parses the body of a `tuple Name { ... }` block
// (already extracted by the tokenizer) into an immutable schema.
func ParseTupleSchema(name, body string) (*model.TupleSchema, error) {
	schema := &model.TupleSchema{Name: name}
	seen := map[string]bool{}

	for _, stmt := range strings.Split(body, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		m := schemaFieldPattern.FindStringSubmatch(stmt)
		if m == nil {
			return nil, fmt.Errorf("malformed tuple field %q in schema %s", stmt, name)
		}
		t, _ := model.ParamTypeFromKeyword(m[2])
		fieldName := m[3]
		if seen[fieldName] {
			return nil, fmt.Errorf("duplicate field %s in schema %s", fieldName, name)
		}
		seen[fieldName] = true
		schema.Fields = append(schema.Fields, model.TupleField{
			Name:  fieldName,
			Type:  t,
			IsKey: m[1] != "",
		})
	}

	if len(schema.Fields) == 0 {
		return nil, fmt.Errorf("tuple schema %s declares no fields", name)
	}
	return schema, nil
}
