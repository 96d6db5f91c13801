package engine

import (
	"context"
	"log/slog"
)

// LoggingObserver is a simple observer that logs completed operations using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer (slog.Default when logger is nil)
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface.
// Start events are logged at Debug; failures at Warn.
func (lo *LoggingObserver) OnEvent(event Event) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("event", string(event.Type)),
		slog.String("op", event.Op),
		slog.String("table", event.Table),
	}
	if event.TxID != "" {
		attrs = append(attrs, slog.String("tx_id", event.TxID))
	}

	if event.Type == EventOpEnd {
		level = slog.LevelInfo
		attrs = append(attrs, slog.Duration("duration", event.Duration))
		if event.Data != nil {
			attrs = append(attrs, slog.Any("data", event.Data))
		}
		if event.Err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", event.Err))
		}
	}

	lo.logger.LogAttrs(context.Background(), level, "engine_op", attrs...)
}
