package databind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oplc-lang/oplc/diagnostics"
	"github.com/oplc-lang/oplc/model"
	"github.com/oplc-lang/oplc/tokenizer"
)

// Binder binds .dat statement values into the repository's external
// declarations. It is the sole writer of parameter values (spec.md §3).
type Binder struct {
	repo *model.Repository
	diag *diagnostics.Session
}

// New returns a Binder writing into repo and reporting to diag.
func New(repo *model.Repository, diag *diagnostics.Session) *Binder {
	return &Binder{repo: repo, diag: diag}
}

// assignmentPattern matches `name = ...` and `name[i] = ...` /
// `name[i,j] = ...`. A double `==` is not an assignment.
var assignmentPattern = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\[([^\]]+)\])?\s*=\s*([^=].*)$`)

// Bind parses .dat source (same lexical rules as .mod: block and line
// comments, semicolon-terminated statements) and binds every statement.
// Errors accumulate per statement; binding continues with the next one.
func (b *Binder) Bind(src string) error {
	stmts, _, err := tokenizer.SplitSource(src)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := b.BindStatement(stmt.Text); err != nil {
			b.diag.Errorf(stmt.Line, stmt.Text, "%v", err)
			continue
		}
		b.diag.Success()
	}
	return nil
}

// BindStatement binds a single semicolon-stripped data statement.
func (b *Binder) BindStatement(text string) error {
	m := assignmentPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return fmt.Errorf("%w: %q", ErrNotAStatement, text)
	}
	name, indexText, rhs := m[1], m[2], strings.TrimSpace(m[3])

	if indexText != "" {
		return b.bindIndexed(name, indexText, rhs)
	}

	switch {
	case strings.HasPrefix(rhs, "[["):
		return b.bindMatrix(name, rhs)
	case strings.HasPrefix(rhs, "["):
		return b.bindVector(name, rhs)
	case strings.HasPrefix(rhs, "{"):
		return b.bindSetLiteral(name, rhs)
	default:
		return b.bindScalar(name, rhs)
	}
}

func (b *Binder) bindScalar(name, rhs string) error {
	p, ok := b.repo.Parameter_(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	v, err := ParseScalar(rhs, p.Type)
	if err != nil {
		return err
	}
	return p.SetScalar(v)
}

func (b *Binder) bindIndexed(name, indexText, rhs string) error {
	p, ok := b.repo.Parameter_(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	parts := strings.Split(indexText, ",")
	indices := make([]int, len(parts))
	for i, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("%w: index %q is not an integer", ErrBadValueLiteral, part)
		}
		indices[i] = idx
	}
	if len(indices) != p.Dims() {
		return fmt.Errorf("%w: %s wants %d indices, got %d", ErrShapeMismatch, name, p.Dims(), len(indices))
	}
	if err := b.checkIndexRanges(p, indices); err != nil {
		return err
	}
	v, err := ParseScalar(rhs, p.Type)
	if err != nil {
		return err
	}
	return p.SetAt(indices, v)
}

// checkIndexRanges validates each index against its governing index
// set's declared [start..end].
func (b *Binder) checkIndexRanges(p *model.Parameter, indices []int) error {
	for dim, idx := range indices {
		setName := p.IndexSets[dim]
		s, ok := b.repo.IndexSetByName(setName)
		if !ok {
			// A parameter indexed by a tuple or primitive set has no
			// integer range to check.
			continue
		}
		if !s.Contains(idx) {
			return fmt.Errorf("%w: %s[%d] outside %s = %d..%d",
				model.ErrIndexOutOfRange, p.Name, idx, setName, s.Start, s.End)
		}
	}
	return nil
}

func (b *Binder) bindVector(name, rhs string) error {
	p, ok := b.repo.Parameter_(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if p.Dims() != 1 {
		return fmt.Errorf("%w: %s is not 1-dimensional", ErrShapeMismatch, name)
	}
	s, ok := b.repo.IndexSetByName(p.IndexSets[0])
	if !ok {
		return fmt.Errorf("%w: index set %s", ErrUnknownName, p.IndexSets[0])
	}
	elems, err := ParseVector(rhs)
	if err != nil {
		return err
	}
	if len(elems) != s.Len() {
		return fmt.Errorf("%w: %s wants %d values, got %d", ErrShapeMismatch, name, s.Len(), len(elems))
	}
	for i, idx := range s.Sequence() {
		v, err := ParseScalar(elems[i], p.Type)
		if err != nil {
			return err
		}
		if err := p.SetAt([]int{idx}, v); err != nil {
			return err
		}
	}
	return nil
}

func (b *Binder) bindMatrix(name, rhs string) error {
	p, ok := b.repo.Parameter_(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	if p.Dims() != 2 {
		return fmt.Errorf("%w: %s is not 2-dimensional", ErrShapeMismatch, name)
	}
	rows, ok := b.repo.IndexSetByName(p.IndexSets[0])
	if !ok {
		return fmt.Errorf("%w: index set %s", ErrUnknownName, p.IndexSets[0])
	}
	cols, ok := b.repo.IndexSetByName(p.IndexSets[1])
	if !ok {
		return fmt.Errorf("%w: index set %s", ErrUnknownName, p.IndexSets[1])
	}
	matrix, err := ParseMatrix(rhs)
	if err != nil {
		return err
	}
	if len(matrix) != rows.Len() {
		return fmt.Errorf("%w: %s wants %d rows, got %d", ErrShapeMismatch, name, rows.Len(), len(matrix))
	}
	for ri, rowIdx := range rows.Sequence() {
		if len(matrix[ri]) != cols.Len() {
			return fmt.Errorf("%w: %s row %d wants %d values, got %d",
				ErrShapeMismatch, name, rowIdx, cols.Len(), len(matrix[ri]))
		}
		for ci, colIdx := range cols.Sequence() {
			v, err := ParseScalar(matrix[ri][ci], p.Type)
			if err != nil {
				return err
			}
			if err := p.SetAt([]int{rowIdx, colIdx}, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindSetLiteral fills a declared primitive or tuple set from a `{...}`
// literal, depending on which kind the name was declared as.
func (b *Binder) bindSetLiteral(name, rhs string) error {
	if ps, ok := b.repo.PrimitiveSetByName(name); ok {
		elems, err := ParsePrimitiveElements(rhs, ps.ElemType)
		if err != nil {
			return err
		}
		for _, v := range elems {
			ps.Add(v)
		}
		return nil
	}

	if ts, ok := b.repo.TupleSetByName(name); ok {
		schema, ok := b.repo.TupleSchemaByName(ts.Schema)
		if !ok {
			return fmt.Errorf("%w: schema %s of set %s", model.ErrUnknownTupleSchema, ts.Schema, name)
		}
		instances, err := ParseTupleInstances(rhs, schema)
		if err != nil {
			return err
		}
		for _, v := range instances {
			if err := ts.Add(schema, v); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("%w: %s is not a declared set", ErrUnknownName, name)
}
