package testutil

import (
	"testing"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
)

// AssertRowCount checks if the result has the expected number of rows
func AssertRowCount(t *testing.T, actual, expected int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected %d rows, got %d", context, expected, actual)
	}
}

// AssertColumnCount checks if a row has the expected number of columns
func AssertColumnCount(t *testing.T, row data.Row, expected int, context string) {
	t.Helper()
	if row.Len() != expected {
		t.Errorf("%s: expected %d columns, got %d", context, expected, row.Len())
	}
}

// AssertColumnExists checks if a column exists in a row
func AssertColumnExists(t *testing.T, row data.Row, column, context string) {
	t.Helper()
	if !row.Has(column) {
		t.Errorf("%s: expected column '%s' to exist", context, column)
	}
}

// AssertColumnNotExists checks if a column does not exist in a row
func AssertColumnNotExists(t *testing.T, row data.Row, column, context string) {
	t.Helper()
	if row.Has(column) {
		t.Errorf("%s: did not expect column '%s' to exist", context, column)
	}
}

// AssertRowsEqual checks two row sequences for equal values in the same order
func AssertRowsEqual(t *testing.T, actual, expected []data.Row, context string) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("%s: expected %d rows, got %d", context, len(expected), len(actual))
	}
	for i := range expected {
		if !actual[i].Equal(expected[i]) {
			t.Errorf("%s: row %d: expected %v, got %v", context, i, expected[i].Map(), actual[i].Map())
		}
	}
}

// AssertNullValue checks if a value is nil
func AssertNullValue(t *testing.T, value interface{}, context string) {
	t.Helper()
	if value != nil {
		t.Errorf("%s: expected NULL value, got: %v", context, value)
	}
}
