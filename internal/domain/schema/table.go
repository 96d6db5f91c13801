package schema

import (
	"log/slog"
	"sync"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/transaction"
)

// Saver persists the full state of a table. It is called inside the table's
// write lock, after the new row sequence has been computed and before it is published.
type Saver interface {
	SaveTable(path string, s *Schema, rows []data.Row) error
}

// Table represents a database table with its schema, rows and pending transaction.
// One mutex guards the {rows, schema, pending snapshot} triple.
type Table struct {
	mu      sync.RWMutex
	Name    string
	Path    string // filesystem path to the table file
	schema  *Schema
	rows    []data.Row
	pending *transaction.Snapshot
	saver   Saver
	logger  *slog.Logger
	dropped bool
}

// NewTable creates an empty table. An empty schema is treated as no schema.
func NewTable(name, path string, s *Schema, saver Saver) *Table {
	if s.IsEmpty() {
		s = nil
	}
	return &Table{
		Name:   name,
		Path:   path,
		schema: s.Copy(),
		saver:  saver,
		logger: slog.Default(),
	}
}

// SetLogger routes the table's debug logs to l
func (t *Table) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = l
}

// Lock acquires an exclusive lock on the table for write operations
func (t *Table) Lock() {
	t.mu.Lock()
}

// Unlock releases the exclusive lock
func (t *Table) Unlock() {
	t.mu.Unlock()
}

// RLock acquires a read lock on the table for read operations
func (t *Table) RLock() {
	t.mu.RLock()
}

// RUnlock releases the read lock
func (t *Table) RUnlock() {
	t.mu.RUnlock()
}

// Schema returns a copy of the bound schema, nil when none is bound
func (t *Table) Schema() *Schema {
	t.RLock()
	defer t.RUnlock()
	return t.schema.Copy()
}

// Len returns the number of rows
func (t *Table) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.rows)
}

// InTransaction reports whether a snapshot is pending
func (t *Table) InTransaction() bool {
	t.RLock()
	defer t.RUnlock()
	return t.pending != nil
}

// View runs fn with the current schema and rows under the read lock.
// fn must not retain or modify rows.
func (t *Table) View(fn func(s *Schema, rows []data.Row) error) error {
	t.RLock()
	defer t.RUnlock()
	return fn(t.schema, t.rows)
}

// Save persists the current state
func (t *Table) Save() error {
	t.Lock()
	defer t.Unlock()
	if t.dropped {
		return errs.NotFound("save", t.Name)
	}
	return t.persistUnsafe(t.rows)
}

// Replace swaps in loaded state. It does not persist.
func (t *Table) Replace(s *Schema, rows []data.Row) {
	t.Lock()
	defer t.Unlock()
	if s.IsEmpty() {
		s = nil
	}
	t.schema = s
	t.rows = rows
}

// persistUnsafe writes rows as the table's new file state.
// IMPORTANT: Must be called while holding the write lock!
func (t *Table) persistUnsafe(rows []data.Row) error {
	if t.saver == nil {
		return nil
	}
	return t.saver.SaveTable(t.Path, t.schema, rows)
}

// Insert validates row and appends it. With a non-empty keyColumn, a row whose
// keyColumn value equals an existing row's is rejected.
func (t *Table) Insert(row data.Row, keyColumn string) error {
	t.Lock()
	defer t.Unlock()

	if t.dropped {
		return errs.NotFound("insert", t.Name)
	}

	row, err := normalizeRow(t.Name, row)
	if err != nil {
		return err
	}

	if err := Validate(t.Name, t.schema, row); err != nil {
		return err
	}

	if keyColumn != "" {
		key := row.Value(keyColumn)
		for _, existing := range t.rows {
			if data.Equal(existing.Value(keyColumn), key) {
				return errs.NewDuplicateKey(t.Name, keyColumn, key)
			}
		}
	}

	// append may reuse spare capacity; t.rows keeps its old length until the save succeeds
	rows := append(t.rows, row.Copy())
	if err := t.persistUnsafe(rows); err != nil {
		return err
	}
	t.rows = rows

	t.logger.Debug("row inserted", "table", t.Name, "rows", len(t.rows))
	return nil
}

// Select returns copies of the rows matching every condition, in table order
func (t *Table) Select(conditions data.Row) []data.Row {
	t.RLock()
	defer t.RUnlock()

	conditions = normalizeConditions(conditions)

	result := make([]data.Row, 0)
	for _, row := range t.rows {
		if row.Matches(conditions) {
			result = append(result, row.Copy())
		}
	}
	return result
}

// Update overwrites the columns in updates on every matching row, adding new columns.
// Returns the number of rows updated. Values are not checked against the schema.
func (t *Table) Update(conditions, updates data.Row) (int, error) {
	t.Lock()
	defer t.Unlock()

	if t.dropped {
		return 0, errs.NotFound("update", t.Name)
	}

	updates, err := normalizeRow(t.Name, updates)
	if err != nil {
		return 0, err
	}
	conditions = normalizeConditions(conditions)

	rows := make([]data.Row, len(t.rows))
	copy(rows, t.rows)

	count := 0
	for i, row := range rows {
		if !row.Matches(conditions) {
			continue
		}
		updated := row.Copy()
		updates.Range(func(col string, v interface{}) bool {
			updated.Set(col, v)
			return true
		})
		rows[i] = updated
		count++
	}

	if err := t.persistUnsafe(rows); err != nil {
		return 0, err
	}
	t.rows = rows

	t.logger.Debug("rows updated", "table", t.Name, "count", count)
	return count, nil
}

// Delete removes every matching row and returns how many were removed
func (t *Table) Delete(conditions data.Row) (int, error) {
	t.Lock()
	defer t.Unlock()

	if t.dropped {
		return 0, errs.NotFound("delete", t.Name)
	}

	conditions = normalizeConditions(conditions)

	kept := make([]data.Row, 0, len(t.rows))
	for _, row := range t.rows {
		if !row.Matches(conditions) {
			kept = append(kept, row)
		}
	}
	deleted := len(t.rows) - len(kept)

	if err := t.persistUnsafe(kept); err != nil {
		return 0, err
	}
	t.rows = kept

	t.logger.Debug("rows deleted", "table", t.Name, "count", deleted)
	return deleted, nil
}

// Begin captures a snapshot of the rows, replacing any pending one.
// replaced reports whether an earlier snapshot was discarded.
func (t *Table) Begin() (snap *transaction.Snapshot, replaced bool, err error) {
	t.Lock()
	defer t.Unlock()

	if t.dropped {
		return nil, false, errs.NotFound("begin", t.Name)
	}

	replaced = t.pending != nil
	t.pending = transaction.NewSnapshot(t.Name, t.rows)
	return t.pending, replaced, nil
}

// Rollback restores the rows captured at Begin and persists them.
// Without a pending snapshot it reports StatusNoActive.
func (t *Table) Rollback() (transaction.Status, error) {
	t.Lock()
	defer t.Unlock()

	if t.dropped || t.pending == nil {
		return transaction.StatusNoActive, nil
	}

	rows := t.pending.Restore()
	if err := t.persistUnsafe(rows); err != nil {
		return "", err
	}
	t.rows = rows
	t.pending = nil
	return transaction.StatusRolledBack, nil
}

// Commit discards the snapshot and persists the current rows.
// Without a pending snapshot it reports StatusNoActive.
func (t *Table) Commit() (transaction.Status, error) {
	t.Lock()
	defer t.Unlock()

	if t.dropped || t.pending == nil {
		return transaction.StatusNoActive, nil
	}

	if err := t.persistUnsafe(t.rows); err != nil {
		return "", err
	}
	t.pending = nil
	return transaction.StatusCommitted, nil
}

// Drop removes the backing file via remove and marks the table dead.
// Any pending snapshot is discarded without rollback. Operations that were
// waiting on the lock fail with ErrNotFound instead of recreating the file.
func (t *Table) Drop(remove func(path string) error) error {
	t.Lock()
	defer t.Unlock()

	if t.dropped {
		return errs.NotFound("drop", t.Name)
	}
	if err := remove(t.Path); err != nil {
		return err
	}
	t.dropped = true
	t.pending = nil
	t.rows = nil
	return nil
}

// normalizeConditions converts condition values to stored representations.
// Values that cannot be stored are left as-is and simply never match.
func normalizeConditions(conditions data.Row) data.Row {
	out := data.Row{}
	conditions.Range(func(col string, v interface{}) bool {
		if nv, ok := data.Normalize(v); ok {
			v = nv
		}
		out.Set(col, v)
		return true
	})
	return out
}
