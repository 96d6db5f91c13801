package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

// Column declares one schema column
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered set of uniquely named columns.
// A nil *Schema means the table accepts arbitrary records.
type Schema struct {
	columns []Column
	index   map[string]int
}

// New builds a schema, rejecting duplicate or empty column names.
// Schemas read from table files may still carry an empty name.
func New(cols ...Column) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("empty column name: %w", errs.ErrSchemaViolation)
		}
		if err := s.add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) add(c Column) error {
	if _, dup := s.index[c.Name]; dup {
		return fmt.Errorf("duplicate column %q: %w", c.Name, errs.ErrSchemaViolation)
	}
	s.index[c.Name] = len(s.columns)
	s.columns = append(s.columns, c)
	return nil
}

// Infer derives a schema from the value kinds of a single sample row
func Infer(sample data.Row) *Schema {
	s := &Schema{index: make(map[string]int, sample.Len())}
	sample.Range(func(col string, v interface{}) bool {
		_ = s.add(Column{Name: col, Kind: InferKind(v)}) // row columns are unique
		return true
	})
	return s
}

// Len returns the number of declared columns (0 for a nil schema)
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.columns)
}

// IsEmpty reports whether the schema declares nothing
func (s *Schema) IsEmpty() bool { return s.Len() == 0 }

// Columns returns the declared columns in order
func (s *Schema) Columns() []Column {
	if s == nil {
		return nil
	}
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Kind returns the declared kind of col
func (s *Schema) Kind(col string) (Kind, bool) {
	if s == nil {
		return Any, false
	}
	i, ok := s.index[col]
	if !ok {
		return Any, false
	}
	return s.columns[i].Kind, true
}

// Copy returns an independent copy (nil stays nil)
func (s *Schema) Copy() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		columns: make([]Column, len(s.columns)),
		index:   make(map[string]int, len(s.index)),
	}
	copy(out.columns, s.columns)
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// Equal compares two schemas, treating nil and empty as equal
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, c := range s.Columns() {
		if other.columns[i] != c {
			return false
		}
	}
	return true
}

// MarshalJSON renders column -> kind name, with null for Any
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.Columns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if c.Kind == Any {
			buf.WriteString("null")
		} else {
			buf.WriteString(`"` + c.Kind.String() + `"`)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads column -> kind name in file order.
// Unknown kind names and null map to Any.
func (s *Schema) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema must be a JSON object, got %v", tok)
	}

	out := Schema{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		col, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		kind := Any
		if name, ok := raw.(string); ok {
			kind = kindFromStored(name)
		}
		if err := out.add(Column{Name: col, Kind: kind}); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// String renders the schema for logs and the shell
func (s *Schema) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return "{?}"
	}
	return string(b)
}
