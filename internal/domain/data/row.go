package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNestedValue is returned when a decoded row holds an array or object value
var ErrNestedValue = errors.New("nested values are not supported")

// Row represents a single table record.
// Columns keep their insertion order, which drives CSV headers and JSON key order.
type Row struct {
	cols []string
	vals map[string]interface{}
}

// NewRow creates a Row from a map. Map iteration order is random, so columns are sorted by name.
func NewRow(values map[string]interface{}) Row {
	cols := make([]string, 0, len(values))
	for k := range values {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	r := Row{cols: cols, vals: make(map[string]interface{}, len(values))}
	for k, v := range values {
		r.vals[k] = v
	}
	return r
}

// RowOf builds a Row from alternating column/value arguments, keeping their order.
// It panics on an odd argument count or a non-string column, like other literal helpers.
func RowOf(kv ...interface{}) Row {
	if len(kv)%2 != 0 {
		panic("data.RowOf: odd number of arguments")
	}
	var r Row
	for i := 0; i < len(kv); i += 2 {
		col, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("data.RowOf: column %v is not a string", kv[i]))
		}
		r.Set(col, kv[i+1])
	}
	return r
}

// Len returns the number of columns
func (r Row) Len() int { return len(r.cols) }

// Columns returns the column names in order
func (r Row) Columns() []string {
	cols := make([]string, len(r.cols))
	copy(cols, r.cols)
	return cols
}

// Get returns the value for col and whether the column is present
func (r Row) Get(col string) (interface{}, bool) {
	v, ok := r.vals[col]
	return v, ok
}

// Value returns the value for col, nil when absent
func (r Row) Value(col string) interface{} {
	return r.vals[col]
}

func (r Row) Has(col string) bool {
	_, ok := r.vals[col]
	return ok
}

// Set overwrites col, appending it when new
func (r *Row) Set(col string, v interface{}) {
	if r.vals == nil {
		r.vals = make(map[string]interface{})
	}
	if _, exists := r.vals[col]; !exists {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = v
}

// Delete removes col if present
func (r *Row) Delete(col string) {
	if _, exists := r.vals[col]; !exists {
		return
	}
	delete(r.vals, col)
	for i, c := range r.cols {
		if c == col {
			r.cols = append(r.cols[:i:i], r.cols[i+1:]...)
			break
		}
	}
}

// Range calls fn for every column in order until fn returns false
func (r Row) Range(fn func(col string, v interface{}) bool) {
	for _, c := range r.cols {
		if !fn(c, r.vals[c]) {
			return
		}
	}
}

// Copy creates a deep copy of the row to prevent mutation.
// Stored values are scalars, so copying the column list and the map is enough.
func (r Row) Copy() Row {
	out := Row{
		cols: make([]string, len(r.cols)),
		vals: make(map[string]interface{}, len(r.vals)),
	}
	copy(out.cols, r.cols)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// Map returns a copy of the row as a plain map
func (r Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(r.vals))
	for k, v := range r.vals {
		m[k] = v
	}
	return m
}

// Normalize returns a copy with every value converted to its stored representation.
// On failure it reports the first offending column.
func (r Row) Normalize() (Row, string, error) {
	out := Row{
		cols: make([]string, len(r.cols)),
		vals: make(map[string]interface{}, len(r.vals)),
	}
	copy(out.cols, r.cols)
	for _, c := range r.cols {
		v, ok := Normalize(r.vals[c])
		if !ok {
			return Row{}, c, fmt.Errorf("column %s: unsupported value of type %T", c, r.vals[c])
		}
		out.vals[c] = v
	}
	return out, "", nil
}

// Matches reports whether every (column, value) pair of conditions holds for r.
// A missing column compares as Null. Empty conditions match every row.
func (r Row) Matches(conditions Row) bool {
	for _, c := range conditions.cols {
		if !Equal(r.vals[c], conditions.vals[c]) {
			return false
		}
	}
	return true
}

// Equal reports whether both rows hold the same columns with equal values, ignoring order
func (r Row) Equal(other Row) bool {
	if len(r.vals) != len(other.vals) {
		return false
	}
	for k, v := range r.vals {
		ov, ok := other.vals[k]
		if !ok || !Equal(v, ov) || KindOf(v) != KindOf(ov) {
			return false
		}
	}
	return true
}

// CopyRows deep-copies a row sequence
func CopyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Copy()
	}
	return out
}

// MarshalJSON implements json.Marshaler, emitting columns in order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(r.vals[c])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
// Object key order is preserved and numbers keep their integer/float distinction.
func (r *Row) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", tok)
	}

	out := Row{vals: make(map[string]interface{})}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		col, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		v, err := decodeScalar(dec)
		if err != nil {
			return fmt.Errorf("column %s: %w", col, err)
		}
		out.Set(col, v)
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	*r = out
	return nil
}

func decodeScalar(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		return nil, ErrNestedValue
	case json.Number:
		return parseNumber(v.String())
	case string, bool, nil:
		return v, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func marshalValue(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte("null"), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("unsupported float value %v", x)
		}
		return []byte(formatFloat(x)), nil
	case int64, string, bool:
		return marshalNoEscape(x)
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
