package transaction

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
)

// txIDCounter is an atomic counter for generating sequential transaction numbers
var txIDCounter uint64

// Status is the reported outcome of ending a transaction.
// Ending a transaction that was never begun is a no-op, not an error.
type Status string

const (
	StatusCommitted  Status = "committed"
	StatusRolledBack Status = "rolled_back"
	StatusNoActive   Status = "no_active_transaction"
)

// Applied reports whether the call actually ended a transaction
func (s Status) Applied() bool {
	return s == StatusCommitted || s == StatusRolledBack
}

// Snapshot is the single pending undo slot of a table: a deep copy of its rows
// taken at begin. It lives only in memory.
type Snapshot struct {
	ID        string     // Unique transaction identifier (UUID)
	TxID      uint64     // Sequential number, handy in logs
	Table     string     // Table the snapshot belongs to
	Rows      []data.Row // Deep copy of the rows at begin
	StartTime time.Time  // When the transaction began
}

// NewSnapshot captures a deep copy of rows for table
func NewSnapshot(table string, rows []data.Row) *Snapshot {
	return &Snapshot{
		ID:        uuid.New().String(),
		TxID:      atomic.AddUint64(&txIDCounter, 1),
		Table:     table,
		Rows:      data.CopyRows(rows),
		StartTime: time.Now(),
	}
}

// Restore returns a fresh deep copy of the captured rows
func (s *Snapshot) Restore() []data.Row {
	return data.CopyRows(s.Rows)
}
