package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/config"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/engine"
)

// Config returns the default configuration rooted in a fresh temp directory
func Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	return cfg
}

// NewEngine creates an engine over a fresh temp directory
func NewEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(Config(t), nil)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

// UsersSchema is {id: int, name: str, email: str}
func UsersSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New(
		schema.Column{Name: "id", Kind: schema.Integer},
		schema.Column{Name: "name", Kind: schema.Text},
		schema.Column{Name: "email", Kind: schema.Text},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

// UsersRows returns the sample user records
func UsersRows() []data.Row {
	return []data.Row{
		data.RowOf("id", int64(1), "name", "alice", "email", "alice@example.com"),
		data.RowOf("id", int64(2), "name", "bob", "email", "bob@example.com"),
		data.RowOf("id", int64(3), "name", "charlie", "email", "charlie@example.com"),
	}
}

// CreateUsersTable creates "users" with UsersSchema and inserts UsersRows keyed on id
func CreateUsersTable(t *testing.T, eng *engine.Engine) {
	t.Helper()
	if err := eng.CreateTable("users", UsersSchema(t)); err != nil {
		t.Fatalf("CreateTable users: %v", err)
	}
	for _, row := range UsersRows() {
		if err := eng.Insert("users", row, "id"); err != nil {
			t.Fatalf("Insert users: %v", err)
		}
	}
}

// WriteTableFile writes raw content as table name's file in dir and returns its path
func WriteTableFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name+".mdb")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ConfigFor returns the default configuration rooted at dir
func ConfigFor(dir string) *config.Config {
	cfg := config.Default()
	cfg.Storage.DataDir = dir
	return cfg
}
