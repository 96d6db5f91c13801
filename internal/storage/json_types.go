package storage

import (
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
)

// Format identifies which on-disk shape a table file used
type Format int

const (
	// FormatLegacy is a bare JSON array of records
	FormatLegacy Format = iota + 1
	// FormatCurrent is an object holding "schema" and "rows"
	FormatCurrent
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatCurrent:
		return "current"
	}
	return "unknown"
}

// TableFile is the current on-disk shape of a table
type TableFile struct {
	Schema *schema.Schema `json:"schema"`
	Rows   []data.Row     `json:"rows"`
}

// LoadedTable is the decoded state of a table file
type LoadedTable struct {
	Name   string
	Path   string
	Format Format
	Schema *schema.Schema // nil when the file binds no schema
	Rows   []data.Row
}
