// Package export writes table rows to external formats.
package export

import (
	"encoding/csv"
	"os"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

// WriteCSV writes rows to path as CSV and returns the number of data rows written.
// The header comes from the first row's columns in order; cells for columns a row
// lacks are empty and columns the first row lacks are not exported.
// With no rows nothing is written and the file is left untouched.
func WriteCSV(path string, rows []data.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, &errs.IOError{Op: "create", Path: path, Err: err}
	}

	header := rows[0].Columns()
	w := csv.NewWriter(f)
	w.UseCRLF = true // RFC 4180 line endings
	if err := w.Write(header); err != nil {
		f.Close()
		return 0, &errs.IOError{Op: "write", Path: path, Err: err}
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = data.Format(row.Value(col))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return 0, &errs.IOError{Op: "write", Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, &errs.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return 0, &errs.IOError{Op: "close", Path: path, Err: err}
	}
	return len(rows), nil
}
