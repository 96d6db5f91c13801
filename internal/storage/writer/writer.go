package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage"
)

// FileSaver persists tables in the current shape. It implements schema.Saver.
type FileSaver struct {
	Logger *slog.Logger
}

var _ schema.Saver = (*FileSaver)(nil)

// NewFileSaver creates a FileSaver logging to logger (slog.Default when nil)
func NewFileSaver(logger *slog.Logger) *FileSaver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSaver{Logger: logger}
}

// SaveTable writes the table to path using temp file + atomic rename
func (f *FileSaver) SaveTable(path string, s *schema.Schema, rows []data.Row) error {
	if path == "" {
		return fmt.Errorf("cannot save table: missing path")
	}

	payload, err := Encode(s, rows)
	if err != nil {
		return &errs.IOError{Op: "encode", Path: path, Err: err}
	}

	tmpPath := path + ".tmp"

	// Write to temp
	if err := os.WriteFile(tmpPath, payload, 0644); err != nil {
		return &errs.IOError{Op: "write", Path: tmpPath, Err: err}
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &errs.IOError{Op: "rename", Path: path, Err: err}
	}

	f.logger().Debug("table saved",
		slog.String("path", path),
		slog.Int("row_count", len(rows)),
		slog.Int("bytes", len(payload)),
	)

	return nil
}

func (f *FileSaver) logger() *slog.Logger {
	if f == nil || f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// Encode renders the current shape, pretty-printed with two-space indentation.
// A nil schema is written as {} and nil rows as [].
func Encode(s *schema.Schema, rows []data.Row) ([]byte, error) {
	if s == nil {
		s = &schema.Schema{}
	}
	if rows == nil {
		rows = []data.Row{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(storage.TableFile{Schema: s, Rows: rows}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
