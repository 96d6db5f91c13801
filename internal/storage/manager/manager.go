package manager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

// DefaultExtension is the table file extension used when none is configured
const DefaultExtension = ".mdb"

// TablePath returns <dir>/<name><ext>
func TablePath(dir, name, ext string) string {
	return filepath.Join(dir, name+ext)
}

// ValidTableName reports whether name can be used as a file stem inside the data directory
func ValidTableName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// EnsureDataDir creates the data directory if it does not exist
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &errs.IOError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

// Exists reports whether a regular file exists at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// RemoveTableFile deletes a table file; a missing file is not an error
func RemoveTableFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &errs.IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// ListTableFiles returns the names of all tables persisted in dir, sorted.
// Backup artifacts and temp files do not end in ext and are skipped.
func ListTableFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &errs.IOError{Op: "read directory", Path: dir, Err: err}
	}

	var tables []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := strings.CutSuffix(entry.Name(), ext)
		if !ok || !ValidTableName(name) {
			continue
		}
		tables = append(tables, name)
	}
	sort.Strings(tables)

	return tables, nil
}
