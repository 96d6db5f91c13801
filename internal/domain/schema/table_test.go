package schema

import (
	"errors"
	"math"
	"sync"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/transaction"
)

// memorySaver records the last persisted state and can be told to fail
type memorySaver struct {
	mu    sync.Mutex
	saves int
	rows  []data.Row
	fail  error
}

func (m *memorySaver) SaveTable(_ string, _ *Schema, rows []data.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.rows = data.CopyRows(rows)
	return nil
}

func newUsers(t *testing.T) (*Table, *memorySaver) {
	t.Helper()
	saver := &memorySaver{}
	s := mustSchema(t, Column{Name: "id", Kind: Integer}, Column{Name: "name", Kind: Text})
	tbl := NewTable("users", "users.mdb", s, saver)
	assert.NilError(t, tbl.Insert(data.RowOf("id", 1, "name", "ada"), "id"))
	assert.NilError(t, tbl.Insert(data.RowOf("id", 2, "name", "bob"), "id"))
	assert.NilError(t, tbl.Insert(data.RowOf("id", 3, "name", "cy"), "id"))
	return tbl, saver
}

func TestNewTableTreatsEmptySchemaAsNone(t *testing.T) {
	tbl := NewTable("t", "t.mdb", mustSchema(t), nil)
	assert.Assert(t, tbl.Schema() == nil)
	assert.NilError(t, tbl.Insert(data.RowOf("whatever", true), ""))
}

func TestInsertPersistsEveryRow(t *testing.T) {
	tbl, saver := newUsers(t)
	assert.Equal(t, tbl.Len(), 3)
	assert.Equal(t, saver.saves, 3)
	assert.Equal(t, len(saver.rows), 3)
	assert.Equal(t, saver.rows[0].Value("id"), int64(1))
}

func TestInsertRejectsInvalidRows(t *testing.T) {
	tbl, saver := newUsers(t)

	err := tbl.Insert(data.RowOf("id", "four", "name", "dee"), "")
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))

	err = tbl.Insert(data.RowOf("id", 4), "")
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))

	err = tbl.Insert(data.RowOf("id", 4, "name", []string{"x"}), "")
	assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation))

	assert.Equal(t, tbl.Len(), 3)
	assert.Equal(t, saver.saves, 3)
}

func TestNonFiniteFloatsAreRejected(t *testing.T) {
	tbl, saver := newUsers(t)
	free := NewTable("free", "free.mdb", nil, saver)

	for _, v := range []interface{}{math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
		err := free.Insert(data.RowOf("x", v), "")
		var ce *errs.ConstraintError
		assert.Assert(t, errors.As(err, &ce), "%v", v)
		assert.Equal(t, ce.Constraint, errs.ConstraintUnsupportedValue)
		assert.Equal(t, ce.Column, "x")
		assert.Assert(t, !errors.Is(err, errs.ErrIO))

		_, err = tbl.Update(data.RowOf("id", 1), data.RowOf("score", v))
		assert.Assert(t, errors.Is(err, errs.ErrSchemaViolation), "%v", v)
	}
	assert.Equal(t, free.Len(), 0)
	assert.Equal(t, saver.saves, 3)
}

func TestInsertDuplicateKey(t *testing.T) {
	tbl, _ := newUsers(t)

	err := tbl.Insert(data.RowOf("id", 2, "name", "again"), "id")
	assert.Assert(t, errors.Is(err, errs.ErrDuplicateKey))

	// without a key column duplicates are allowed
	assert.NilError(t, tbl.Insert(data.RowOf("id", 2, "name", "again"), ""))
	assert.Equal(t, tbl.Len(), 4)
}

func TestInsertWithFailingSaverLeavesRowsUnchanged(t *testing.T) {
	tbl, saver := newUsers(t)
	saver.fail = &errs.IOError{Op: "write", Path: "users.mdb", Err: errors.New("disk full")}

	err := tbl.Insert(data.RowOf("id", 9, "name", "zed"), "id")
	assert.Assert(t, errors.Is(err, errs.ErrIO))
	assert.Equal(t, tbl.Len(), 3)

	_, err = tbl.Delete(data.Row{})
	assert.Assert(t, errors.Is(err, errs.ErrIO))
	assert.Equal(t, tbl.Len(), 3)
}

func TestSelect(t *testing.T) {
	tbl, _ := newUsers(t)

	assert.Equal(t, len(tbl.Select(data.Row{})), 3)

	rows := tbl.Select(data.RowOf("name", "bob"))
	assert.Equal(t, len(rows), 1)
	assert.Equal(t, rows[0].Value("id"), int64(2))

	// conditions are normalized, so a Go int matches the stored int64
	assert.Equal(t, len(tbl.Select(data.RowOf("id", 3))), 1)
	assert.Equal(t, len(tbl.Select(data.RowOf("id", 3, "name", "ada"))), 0)

	// returned rows are copies
	rows[0].Set("name", "mutated")
	assert.Equal(t, tbl.Select(data.RowOf("id", 2))[0].Value("name"), "bob")
}

func TestUpdate(t *testing.T) {
	tbl, saver := newUsers(t)

	n, err := tbl.Update(data.RowOf("id", 1), data.RowOf("name", "ada2", "age", 36))
	assert.NilError(t, err)
	assert.Equal(t, n, 1)

	row := tbl.Select(data.RowOf("id", 1))[0]
	assert.Equal(t, row.Value("name"), "ada2")
	assert.Equal(t, row.Value("age"), int64(36))
	assert.DeepEqual(t, row.Columns(), []string{"id", "name", "age"})
	assert.Equal(t, saver.rows[0].Value("age"), int64(36))

	n, err = tbl.Update(data.RowOf("id", 42), data.RowOf("name", "x"))
	assert.NilError(t, err)
	assert.Equal(t, n, 0)

	n, err = tbl.Update(data.Row{}, data.RowOf("flag", true))
	assert.NilError(t, err)
	assert.Equal(t, n, 3)
}

func TestDelete(t *testing.T) {
	tbl, saver := newUsers(t)

	n, err := tbl.Delete(data.RowOf("name", "bob"))
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	assert.Equal(t, tbl.Len(), 2)
	assert.Equal(t, len(saver.rows), 2)

	n, err = tbl.Delete(data.RowOf("name", "nobody"))
	assert.NilError(t, err)
	assert.Equal(t, n, 0)

	n, err = tbl.Delete(data.Row{})
	assert.NilError(t, err)
	assert.Equal(t, n, 2)
	assert.Equal(t, tbl.Len(), 0)
}

func TestTransactionRollbackRestoresSnapshot(t *testing.T) {
	tbl, saver := newUsers(t)

	_, replaced, err := tbl.Begin()
	assert.NilError(t, err)
	assert.Assert(t, !replaced)
	assert.Assert(t, tbl.InTransaction())

	assert.NilError(t, tbl.Insert(data.RowOf("id", 4, "name", "dee"), "id"))
	_, err = tbl.Update(data.RowOf("id", 1), data.RowOf("name", "changed"))
	assert.NilError(t, err)

	status, err := tbl.Rollback()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusRolledBack)
	assert.Assert(t, !tbl.InTransaction())
	assert.Equal(t, tbl.Len(), 3)
	assert.Equal(t, tbl.Select(data.RowOf("id", 1))[0].Value("name"), "ada")
	assert.Equal(t, len(saver.rows), 3, "rollback persists the restored rows")

	status, err = tbl.Rollback()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusNoActive)
}

func TestTransactionCommitKeepsChanges(t *testing.T) {
	tbl, _ := newUsers(t)

	status, err := tbl.Commit()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusNoActive)

	_, _, err = tbl.Begin()
	assert.NilError(t, err)
	_, err = tbl.Delete(data.RowOf("id", 3))
	assert.NilError(t, err)

	status, err = tbl.Commit()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusCommitted)
	assert.Equal(t, tbl.Len(), 2)

	status, err = tbl.Rollback()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusNoActive)
	assert.Equal(t, tbl.Len(), 2)
}

func TestBeginReplacesPendingSnapshot(t *testing.T) {
	tbl, _ := newUsers(t)

	first, _, err := tbl.Begin()
	assert.NilError(t, err)
	assert.NilError(t, tbl.Insert(data.RowOf("id", 4, "name", "dee"), ""))

	second, replaced, err := tbl.Begin()
	assert.NilError(t, err)
	assert.Assert(t, replaced)
	assert.Assert(t, first.ID != second.ID)

	_, err = tbl.Rollback()
	assert.NilError(t, err)
	assert.Equal(t, tbl.Len(), 4, "rollback restores the latest snapshot")
}

func TestDropMarksTableDead(t *testing.T) {
	tbl, _ := newUsers(t)
	_, _, err := tbl.Begin()
	assert.NilError(t, err)

	var removed string
	assert.NilError(t, tbl.Drop(func(path string) error {
		removed = path
		return nil
	}))
	assert.Equal(t, removed, "users.mdb")
	assert.Assert(t, !tbl.InTransaction())

	err = tbl.Insert(data.RowOf("id", 5, "name", "eve"), "")
	assert.Assert(t, errors.Is(err, errs.ErrNotFound))
	_, err = tbl.Update(data.Row{}, data.RowOf("x", 1))
	assert.Assert(t, errors.Is(err, errs.ErrNotFound))

	status, err := tbl.Rollback()
	assert.NilError(t, err)
	assert.Equal(t, status, transaction.StatusNoActive)

	err = tbl.Drop(func(string) error { return nil })
	assert.Assert(t, errors.Is(err, errs.ErrNotFound))
}

func TestDropFailureKeepsTable(t *testing.T) {
	tbl, _ := newUsers(t)
	boom := errors.New("permission denied")

	err := tbl.Drop(func(string) error { return boom })
	assert.Assert(t, errors.Is(err, boom))
	assert.Equal(t, tbl.Len(), 3)
	assert.NilError(t, tbl.Insert(data.RowOf("id", 4, "name", "dee"), ""))
}

func TestConcurrentInserts(t *testing.T) {
	tbl := NewTable("events", "events.mdb", nil, &memorySaver{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.Check(t, tbl.Insert(data.RowOf("n", i), "n"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, tbl.Len(), 50)
}
