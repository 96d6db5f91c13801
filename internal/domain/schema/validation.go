package schema

import (
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

// Validate checks a normalized row against s.
//   - every declared column must be present (the value may be Null)
//   - every non-Null value must match its declared kind exactly, except Any columns
//
// Undeclared columns are tolerated. A nil or empty schema accepts every row.
func Validate(table string, s *Schema, row data.Row) error {
	for _, col := range s.Columns() {
		val, exists := row.Get(col.Name)
		if !exists {
			return errs.NewMissingColumn(table, col.Name)
		}
		if !col.Kind.Accepts(val) {
			return errs.NewTypeMismatch(table, col.Name, val, col.Kind.String(), data.KindOf(val).String())
		}
	}
	return nil
}

// normalizeRow converts caller values to stored representations,
// reporting unsupported Go types as a schema violation.
func normalizeRow(table string, row data.Row) (data.Row, error) {
	out, col, err := row.Normalize()
	if err != nil {
		return data.Row{}, errs.NewUnsupportedValue(table, col, row.Value(col))
	}
	return out, nil
}
