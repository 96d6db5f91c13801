// Package errors defines the failure kinds surfaced by the storage engine.
//
// Every error returned by the engine unwraps to exactly one of the sentinel
// kinds below, so client layers can map them with errors.Is without parsing
// messages. The struct types carry the context (table, column, kinds, path)
// needed to render a useful message.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds
var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrSchemaViolation   = errors.New("schema violation")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrIO                = errors.New("io failure")
	ErrInvalidName       = errors.New("invalid table name")
)

// Constraint names used by ConstraintError
const (
	ConstraintMissingColumn    = "missing_column"
	ConstraintTypeMismatch     = "type_mismatch"
	ConstraintUnsupportedValue = "unsupported_value"
	ConstraintDuplicateKey     = "duplicate_key"
)

// TableError reports a table-level failure (missing table, name clash, bad name).
type TableError struct {
	Table string // table name
	Op    string // engine operation, e.g. "create", "insert"
	Err   error  // one of the sentinel kinds
}

func (e *TableError) Error() string {
	switch e.Err {
	case ErrNotFound:
		return fmt.Sprintf("%s: table '%s' does not exist", e.Op, e.Table)
	case ErrAlreadyExists:
		return fmt.Sprintf("%s: table '%s' already exists", e.Op, e.Table)
	case ErrInvalidName:
		return fmt.Sprintf("%s: invalid table name %q", e.Op, e.Table)
	}
	return fmt.Sprintf("%s: table '%s': %v", e.Op, e.Table, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// NotFound builds a TableError of kind ErrNotFound.
func NotFound(op, table string) *TableError {
	return &TableError{Table: table, Op: op, Err: ErrNotFound}
}

// AlreadyExists builds a TableError of kind ErrAlreadyExists.
func AlreadyExists(op, table string) *TableError {
	return &TableError{Table: table, Op: op, Err: ErrAlreadyExists}
}

// InvalidName builds a TableError of kind ErrInvalidName.
func InvalidName(op, table string) *TableError {
	return &TableError{Table: table, Op: op, Err: ErrInvalidName}
}

// ConstraintError represents a record that violates the table schema or a key constraint
type ConstraintError struct {
	Table      string      // table name
	Column     string      // column name
	Value      interface{} // offending value (may be nil)
	Constraint string      // one of the Constraint* names
	Expected   string      // expected kind name, for type mismatches
	Actual     string      // actual kind name, for type mismatches
	Reason     string      // human-readable explanation (optional)
}

func (e *ConstraintError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("constraint violation in %s.%s", e.Table, e.Column))

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("(%s)", e.Constraint))
	}

	if e.Expected != "" {
		parts = append(parts, fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual))
	}

	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}

	return strings.Join(parts, " - ")
}

// Unwrap maps the constraint onto its error kind.
func (e *ConstraintError) Unwrap() error {
	if e.Constraint == ConstraintDuplicateKey {
		return ErrDuplicateKey
	}
	return ErrSchemaViolation
}

func NewMissingColumn(table, column string) *ConstraintError {
	return &ConstraintError{
		Table:      table,
		Column:     column,
		Constraint: ConstraintMissingColumn,
		Reason:     "missing column in record",
	}
}

func NewTypeMismatch(table, column string, value interface{}, expected, actual string) *ConstraintError {
	return &ConstraintError{
		Table:      table,
		Column:     column,
		Value:      value,
		Constraint: ConstraintTypeMismatch,
		Expected:   expected,
		Actual:     actual,
	}
}

func NewUnsupportedValue(table, column string, value interface{}) *ConstraintError {
	reason := fmt.Sprintf("values of type %T cannot be stored", value)
	switch value.(type) {
	case float32, float64:
		reason = "NaN and infinite floats cannot be stored"
	}
	return &ConstraintError{
		Table:      table,
		Column:     column,
		Value:      value,
		Constraint: ConstraintUnsupportedValue,
		Reason:     reason,
	}
}

func NewDuplicateKey(table, column string, value interface{}) *ConstraintError {
	return &ConstraintError{
		Table:      table,
		Column:     column,
		Value:      value,
		Constraint: ConstraintDuplicateKey,
		Reason:     "duplicate entry",
	}
}

// FormatError reports a persisted file whose top-level shape is not recognised.
type FormatError struct {
	Path   string
	Reason string
	Err    error // underlying decode error, if any
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("unsupported table format in %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnsupportedFormat, e.Err}
	}
	return []error{ErrUnsupportedFormat}
}

// IOError represents a failed read or write of a table file.
type IOError struct {
	Op   string // "read", "write", "remove", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the cause, so errors.Is(err, fs.ErrNotExist) still works.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// Kind returns the sentinel kind err belongs to, or nil for foreign errors.
func Kind(err error) error {
	for _, kind := range []error{
		ErrAlreadyExists,
		ErrNotFound,
		ErrSchemaViolation,
		ErrDuplicateKey,
		ErrUnsupportedFormat,
		ErrIO,
		ErrInvalidName,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
