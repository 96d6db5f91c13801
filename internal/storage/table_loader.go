package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
)

// LoadTable reads and decodes the table file at path.
// A missing file surfaces as an IOError wrapping fs.ErrNotExist.
func LoadTable(name, path string, logger *slog.Logger) (*LoadedTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IOError{Op: "read", Path: path, Err: err}
	}

	s, rows, format, err := Decode(raw)
	if err != nil {
		var fe *errs.FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}

	table := &LoadedTable{
		Name:   name,
		Path:   path,
		Format: format,
		Schema: s,
		Rows:   rows,
	}
	logger.Info("table loaded",
		slog.String("table", name),
		slog.String("format", format.String()),
		slog.Int("rows", len(rows)),
		slog.Int("columns", s.Len()),
	)

	return table, nil
}

// Decode detects the shape of a table file and decodes it.
//   - legacy: a bare array of records; the schema is inferred from the first record only
//   - current: {"schema": {col: kind|null}, "rows": [...]}
//
// Anything else fails with ErrUnsupportedFormat. An empty schema decodes as nil.
func Decode(raw []byte) (*schema.Schema, []data.Row, Format, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, 0, &errs.FormatError{Reason: "empty file"}
	}

	switch trimmed[0] {
	case '[':
		rows, err := decodeRows(trimmed)
		if err != nil {
			return nil, nil, 0, err
		}
		var s *schema.Schema
		if len(rows) > 0 {
			s = schema.Infer(rows[0])
		}
		return emptyToNil(s), rows, FormatLegacy, nil

	case '{':
		var file map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, nil, 0, &errs.FormatError{Reason: "malformed table object", Err: err}
		}

		var s *schema.Schema
		if rawSchema, ok := file["schema"]; ok && !isNull(rawSchema) {
			s = &schema.Schema{}
			if err := json.Unmarshal(rawSchema, s); err != nil {
				return nil, nil, 0, &errs.FormatError{Reason: "malformed schema", Err: err}
			}
		}

		rows := []data.Row{}
		if rawRows, ok := file["rows"]; ok && !isNull(rawRows) {
			var err error
			if rows, err = decodeRows(rawRows); err != nil {
				return nil, nil, 0, err
			}
		}
		return emptyToNil(s), rows, FormatCurrent, nil
	}

	return nil, nil, 0, &errs.FormatError{Reason: "top-level value must be a list of records or a {schema, rows} object"}
}

func decodeRows(raw []byte) ([]data.Row, error) {
	rows := []data.Row{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &errs.FormatError{Reason: "malformed rows", Err: err}
	}
	return rows, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func emptyToNil(s *schema.Schema) *schema.Schema {
	if s.IsEmpty() {
		return nil
	}
	return s
}
