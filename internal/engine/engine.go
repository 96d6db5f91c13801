// Package engine is the single entry point for table operations.
//
// An Engine owns every open table. Each table carries its own lock guarding its
// rows, schema and pending transaction snapshot, so operations on different
// tables run independently while operations on the same table are serialized.
// Every mutation writes the table file before returning.
package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/config"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	errs "github.com/MaestroDelFuego/MaestroDatabase/internal/domain/errors"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/transaction"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage/export"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage/manager"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage/writer"
)

// Engine is the registry of open tables
type Engine struct {
	mu     sync.RWMutex
	tables map[string]*schema.Table

	dataDir   string
	extension string
	compress  bool
	saver     *writer.FileSaver
	logger    *slog.Logger
	now       func() time.Time

	obsMu     sync.RWMutex
	observers []Observer // Observers for lifecycle events
}

// New creates an Engine over cfg's data directory, creating the directory if needed.
// A nil cfg uses config.Default(); a nil logger uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := manager.EnsureDataDir(cfg.Storage.DataDir); err != nil {
		return nil, err
	}

	return &Engine{
		tables:    make(map[string]*schema.Table),
		dataDir:   cfg.Storage.DataDir,
		extension: cfg.Storage.Extension,
		compress:  cfg.Backup.Compress,
		saver:     writer.NewFileSaver(logger),
		logger:    logger,
		now:       time.Now,
		observers: make([]Observer, 0),
	}, nil
}

// SetClock replaces the clock used to timestamp backups
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// DataDir returns the directory holding table files
func (e *Engine) DataDir() string { return e.dataDir }

// TablePath returns the file backing table name
func (e *Engine) TablePath(name string) string {
	return manager.TablePath(e.dataDir, name, e.extension)
}

// table resolves a live table
func (e *Engine) table(op, name string) (*schema.Table, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tables[name]
	if !ok {
		return nil, errs.NotFound(op, name)
	}
	return t, nil
}

// CreateTable registers an empty table, binds s when non-empty and persists it immediately
func (e *Engine) CreateTable(name string, s *schema.Schema) (err error) {
	done := e.track("create", name)
	defer func() { done(err, nil) }()

	if !manager.ValidTableName(name) {
		return errs.InvalidName("create", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.tables[name]; exists {
		return errs.AlreadyExists("create", name)
	}

	t := schema.NewTable(name, e.TablePath(name), s, e.saver)
	t.SetLogger(e.logger)
	if err := t.Save(); err != nil {
		return err
	}
	e.tables[name] = t

	e.logger.Info("table created",
		slog.String("table", name),
		slog.String("schema", s.String()),
	)
	return nil
}

// LoadTable reads name's file, replacing the in-memory rows and schema.
// It never creates a file: a missing file fails with ErrNotFound.
func (e *Engine) LoadTable(name string) (format storage.Format, err error) {
	done := e.track("load", name)
	defer func() { done(err, nil) }()

	if !manager.ValidTableName(name) {
		return 0, errs.InvalidName("load", name)
	}

	loaded, err := storage.LoadTable(name, e.TablePath(name), e.logger)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, errs.NotFound("load", name)
		}
		return 0, err
	}

	e.register(loaded)
	return loaded.Format, nil
}

// LoadAll loads every table file in the data directory and returns how many were loaded
func (e *Engine) LoadAll() (n int, err error) {
	done := e.track("load_all", "")
	defer func() { done(err, n) }()

	loaded, err := storage.LoadDirectory(e.dataDir, e.extension, e.logger)
	if err != nil {
		return 0, err
	}
	for _, lt := range loaded {
		e.register(lt)
	}
	return len(loaded), nil
}

func (e *Engine) register(lt *storage.LoadedTable) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[lt.Name]
	if !ok {
		t = schema.NewTable(lt.Name, lt.Path, nil, e.saver)
		t.SetLogger(e.logger)
		e.tables[lt.Name] = t
	}
	t.Replace(lt.Schema, lt.Rows)
}

// DropTable unregisters name and deletes its file. A pending transaction is discarded without rollback.
func (e *Engine) DropTable(name string) (err error) {
	done := e.track("drop", name)
	defer func() { done(err, nil) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tables[name]
	if !ok {
		return errs.NotFound("drop", name)
	}
	if err := t.Drop(manager.RemoveTableFile); err != nil {
		return err
	}
	delete(e.tables, name)

	e.logger.Info("table dropped", slog.String("table", name))
	return nil
}

// Insert validates record against the table schema and appends it.
// With keyColumn set, a record whose keyColumn value already exists fails with ErrDuplicateKey.
func (e *Engine) Insert(table string, record data.Row, keyColumn string) (err error) {
	done := e.track("insert", table)
	defer func() { done(err, nil) }()

	t, err := e.table("insert", table)
	if err != nil {
		return err
	}
	return t.Insert(record, keyColumn)
}

// Select returns copies of the rows matching every condition (all rows for empty conditions)
func (e *Engine) Select(table string, conditions data.Row) (rows []data.Row, err error) {
	done := e.track("select", table)
	defer func() { done(err, len(rows)) }()

	t, err := e.table("select", table)
	if err != nil {
		return nil, err
	}
	return t.Select(conditions), nil
}

// Update applies updates to every matching row and returns the number of rows updated
func (e *Engine) Update(table string, conditions, updates data.Row) (n int, err error) {
	done := e.track("update", table)
	defer func() { done(err, n) }()

	t, err := e.table("update", table)
	if err != nil {
		return 0, err
	}
	return t.Update(conditions, updates)
}

// Delete removes every matching row and returns the number removed
func (e *Engine) Delete(table string, conditions data.Row) (n int, err error) {
	done := e.track("delete", table)
	defer func() { done(err, n) }()

	t, err := e.table("delete", table)
	if err != nil {
		return 0, err
	}
	return t.Delete(conditions)
}

// BeginTransaction snapshots the table's rows and returns the transaction ID.
// Beginning again before commit or rollback silently replaces the earlier snapshot.
func (e *Engine) BeginTransaction(table string) (txID string, err error) {
	done := e.track("begin", table)
	defer func() { done(err, txID) }()

	t, err := e.table("begin", table)
	if err != nil {
		return "", err
	}

	snap, replaced, err := t.Begin()
	if err != nil {
		return "", err
	}
	if replaced {
		e.logger.Warn("pending transaction replaced", slog.String("table", table), slog.String("tx_id", snap.ID))
	}
	return snap.ID, nil
}

// Rollback restores the rows captured by BeginTransaction.
// Without a pending transaction (or table) it reports StatusNoActive.
func (e *Engine) Rollback(table string) (status transaction.Status, err error) {
	done := e.track("rollback", table)
	defer func() { done(err, status) }()

	t, err := e.table("rollback", table)
	if err != nil {
		return transaction.StatusNoActive, nil
	}
	return t.Rollback()
}

// Commit keeps the current rows, persists them and ends the transaction.
// Without a pending transaction (or table) it reports StatusNoActive.
func (e *Engine) Commit(table string) (status transaction.Status, err error) {
	done := e.track("commit", table)
	defer func() { done(err, status) }()

	t, err := e.table("commit", table)
	if err != nil {
		return transaction.StatusNoActive, nil
	}
	return t.Commit()
}

// InTransaction reports whether table has a pending snapshot
func (e *Engine) InTransaction(table string) (bool, error) {
	t, err := e.table("status", table)
	if err != nil {
		return false, err
	}
	return t.InTransaction(), nil
}

// BackupTable writes a timestamped copy of the table's current state next to its file
func (e *Engine) BackupTable(table string) (info *writer.BackupInfo, err error) {
	done := e.track("backup", table)
	defer func() { done(err, info) }()

	t, err := e.table("backup", table)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	opts := writer.BackupOptions{Compress: e.compress, Now: e.now}
	e.mu.RUnlock()

	err = t.View(func(s *schema.Schema, rows []data.Row) error {
		var werr error
		info, werr = writer.WriteBackup(t.Path, s, rows, opts)
		return werr
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("backup created",
		slog.String("table", table),
		slog.String("path", info.Path),
		slog.String("blake3", info.Digest),
	)
	return info, nil
}

// ExportCSV writes the table to path as CSV and returns the number of rows written.
// An empty table is a no-op.
func (e *Engine) ExportCSV(table, path string) (n int, err error) {
	done := e.track("export_csv", table)
	defer func() { done(err, n) }()

	t, err := e.table("export_csv", table)
	if err != nil {
		return 0, err
	}

	err = t.View(func(_ *schema.Schema, rows []data.Row) error {
		var werr error
		n, werr = export.WriteCSV(path, rows)
		return werr
	})
	return n, err
}

// Schema returns a copy of the table's bound schema (nil when none)
func (e *Engine) Schema(table string) (*schema.Schema, error) {
	t, err := e.table("schema", table)
	if err != nil {
		return nil, err
	}
	return t.Schema(), nil
}

// ListTables returns the names of the live tables, sorted
func (e *Engine) ListTables() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tables := make([]string, 0, len(e.tables))
	for tableName := range e.tables {
		tables = append(tables, tableName)
	}
	sort.Strings(tables)
	return tables
}

// AvailableTables returns the names of the table files in the data directory, loaded or not
func (e *Engine) AvailableTables() ([]string, error) {
	return manager.ListTableFiles(e.dataDir, e.extension)
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// track emits op_start and returns the function that emits op_end
func (e *Engine) track(op, table string) func(err error, result interface{}) {
	start := time.Now()
	e.notify(Event{Type: EventOpStart, Op: op, Table: table})
	return func(err error, result interface{}) {
		ev := Event{Type: EventOpEnd, Op: op, Table: table, Duration: time.Since(start), Err: err, Data: result}
		if op == "begin" && err == nil {
			ev.TxID, _ = result.(string)
		}
		e.notify(ev)
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()

	e.obsMu.RLock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.RUnlock()

	for _, observer := range observers {
		observer.OnEvent(event)
	}
}
