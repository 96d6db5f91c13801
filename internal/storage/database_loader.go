package storage

import (
	"fmt"
	"log/slog"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/storage/manager"
)

// LoadDirectory loads every table file with extension ext found in dir
func LoadDirectory(dir, ext string, logger *slog.Logger) ([]*LoadedTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := manager.ListTableFiles(dir, ext)
	if err != nil {
		return nil, err
	}

	tables := make([]*LoadedTable, 0, len(names))
	for _, name := range names {
		table, err := LoadTable(name, manager.TablePath(dir, name, ext), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", name, err)
		}
		tables = append(tables, table)
	}

	logger.Info("data directory loaded",
		slog.String("path", dir),
		slog.Int("table_count", len(tables)),
	)

	return tables, nil
}
