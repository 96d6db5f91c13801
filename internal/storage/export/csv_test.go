package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	rows := []data.Row{
		data.RowOf("id", int64(1), "name", "ada, countess", "score", 9.0, "active", true),
		data.RowOf("id", int64(2), "name", "bob", "extra", "dropped"),
		data.RowOf("name", `say "hi"`, "id", int64(3), "score", nil),
	}

	n, err := WriteCSV(path, rows)
	assert.NilError(t, err)
	assert.Equal(t, n, 3)

	got, err := os.ReadFile(path)
	assert.NilError(t, err)
	want := "id,name,score,active\r\n" +
		"1,\"ada, countess\",9.0,True\r\n" +
		"2,bob,,\r\n" +
		"3,\"say \"\"hi\"\"\",,\r\n"
	assert.Equal(t, string(got), want)
}

func TestWriteCSVEmptyTableIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	n, err := WriteCSV(path, nil)
	assert.NilError(t, err)
	assert.Equal(t, n, 0)
	_, err = os.Stat(path)
	assert.Assert(t, os.IsNotExist(err))

	// an existing file is left untouched
	assert.NilError(t, os.WriteFile(path, []byte("keep"), 0644))
	_, err = WriteCSV(path, []data.Row{})
	assert.NilError(t, err)
	got, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Equal(t, string(got), "keep")
}

func TestWriteCSVUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir.csv")
	_, err := WriteCSV(path, []data.Row{data.RowOf("a", int64(1))})
	assert.Assert(t, errors.Is(err, errs.ErrIO))
}
