package engine

import "time"

// EventType represents the lifecycle phases of an engine operation
type EventType string

const (
	EventOpStart EventType = "op_start"
	EventOpEnd   EventType = "op_end"
)

// Event represents a lifecycle event of one engine operation
type Event struct {
	Type      EventType     // Type of event
	Op        string        // Operation name, e.g. "insert", "commit"
	Table     string        // Table the operation targets (empty for listTables)
	TxID      string        // Transaction ID, set by beginTransaction
	Timestamp time.Time     // When the event occurred
	Duration  time.Duration // Operation duration (op_end only)
	Err       error         // Failure (op_end only)
	Data      interface{}   // Op-specific data (e.g. affected row count, transaction status)
}

// Observer interface for event subscribers
// Observers receive an op_start and an op_end event for every engine operation
type Observer interface {
	OnEvent(event Event)
}
