package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

func mustSchema(t *testing.T, cols ...Column) *Schema {
	t.Helper()
	s, err := New(cols...)
	assert.NilError(t, err)
	return s
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"int":     Integer,
		"INTEGER": Integer,
		"float":   Float,
		"str":     Text,
		"text":    Text,
		"bool":    Boolean,
		"any":     Any,
	}
	for name, want := range tests {
		got, err := ParseKind(name)
		assert.NilError(t, err, name)
		assert.Equal(t, got, want, name)
	}

	_, err := ParseKind("datetime")
	assert.ErrorContains(t, err, "unknown column kind")
}

func TestKindAccepts(t *testing.T) {
	assert.Assert(t, Integer.Accepts(int64(1)))
	assert.Assert(t, !Integer.Accepts(1.0))
	assert.Assert(t, !Float.Accepts(int64(1)))
	assert.Assert(t, !Integer.Accepts(true))
	assert.Assert(t, Text.Accepts(nil))
	assert.Assert(t, Any.Accepts([]int{1}))
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	_, err := New(Column{Name: "a", Kind: Integer}, Column{Name: "a", Kind: Text})
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))

	_, err = New(Column{Name: ""})
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))
}

func TestSchemaJSON(t *testing.T) {
	s := mustSchema(t,
		Column{Name: "id", Kind: Integer},
		Column{Name: "name", Kind: Text},
		Column{Name: "extra", Kind: Any},
	)

	out, err := json.Marshal(s)
	assert.NilError(t, err)
	assert.Equal(t, string(out), `{"id":"int","name":"str","extra":null}`)

	var back Schema
	assert.NilError(t, json.Unmarshal(out, &back))
	assert.Assert(t, s.Equal(&back))
}

func TestSchemaUnmarshalUnknownKindsBecomeAny(t *testing.T) {
	var s Schema
	assert.NilError(t, json.Unmarshal([]byte(`{"a":"datetime","b":42,"c":"float"}`), &s))

	k, ok := s.Kind("a")
	assert.Assert(t, ok)
	assert.Equal(t, k, Any)
	k, _ = s.Kind("b")
	assert.Equal(t, k, Any)
	k, _ = s.Kind("c")
	assert.Equal(t, k, Float)
}

func TestNilSchema(t *testing.T) {
	var s *Schema
	assert.Assert(t, s.IsEmpty())
	assert.Equal(t, s.String(), "{}")
	assert.Assert(t, s.Copy() == nil)
	assert.Assert(t, s.Equal(mustSchema(t)))

	out, err := json.Marshal(s)
	assert.NilError(t, err)
	assert.Equal(t, string(out), "{}")
}

func TestInfer(t *testing.T) {
	sample := data.RowOf("id", int64(1), "price", 2.5, "name", "x", "ok", true, "note", nil)
	s := Infer(sample)

	want := []Column{
		{Name: "id", Kind: Integer},
		{Name: "price", Kind: Float},
		{Name: "name", Kind: Text},
		{Name: "ok", Kind: Any},
		{Name: "note", Kind: Any},
	}
	assert.DeepEqual(t, s.Columns(), want)
}

func TestValidate(t *testing.T) {
	s := mustSchema(t,
		Column{Name: "id", Kind: Integer},
		Column{Name: "name", Kind: Text},
	)

	assert.NilError(t, Validate("users", s, data.RowOf("id", int64(1), "name", "ada")))
	assert.NilError(t, Validate("users", s, data.RowOf("id", int64(1), "name", nil)), "null is accepted")
	assert.NilError(t, Validate("users", s, data.RowOf("id", int64(1), "name", "ada", "extra", true)), "extra columns are tolerated")
	assert.NilError(t, Validate("users", nil, data.RowOf("anything", 1.5)))

	err := Validate("users", s, data.RowOf("id", int64(1)))
	var ce *errs.ConstraintError
	assert.Assert(t, errors.As(err, &ce))
	assert.Equal(t, ce.Constraint, errs.ConstraintMissingColumn)
	assert.Equal(t, ce.Column, "name")

	err = Validate("users", s, data.RowOf("id", 1.0, "name", "ada"))
	assert.Assert(t, errors.As(err, &ce))
	assert.Equal(t, ce.Constraint, errs.ConstraintTypeMismatch)
	assert.Equal(t, ce.Expected, "int")
	assert.Equal(t, ce.Actual, "float")
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))
}
