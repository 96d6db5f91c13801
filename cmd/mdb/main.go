// Command mdb manages MaestroDatabase tables from the command line.
// Each subcommand loads the table it names, applies one operation and exits;
// "shell" starts the interactive console.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/config"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/engine"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/logging"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/repl"
)

const version = "0.1.0"

// CLI defines the command-line interface for mdb.
var CLI struct {
	// Global flags
	Config   string `name:"config" short:"c" help:"YAML configuration file" type:"path"`
	DataDir  string `name:"data-dir" short:"d" help:"Override storage.data_dir"`
	LogLevel string `name:"log-level" help:"Override logging.level (debug, info, warn, error)"`
	Compress bool   `name:"compress" help:"Compress backups with xz"`

	Create  CreateCmd  `cmd:"" help:"Create a table, optionally with a schema (col:kind ...)"`
	Load    LoadCmd    `cmd:"" help:"Load a table file and report its format"`
	Drop    DropCmd    `cmd:"" help:"Delete a table and its file"`
	Insert  InsertCmd  `cmd:"" help:"Insert one JSON record"`
	Select  SelectCmd  `cmd:"" help:"Print the records matching JSON conditions"`
	Update  UpdateCmd  `cmd:"" help:"Update the records matching JSON conditions"`
	Delete  DeleteCmd  `cmd:"" help:"Delete the records matching JSON conditions"`
	Backup  BackupCmd  `cmd:"" help:"Write a timestamped backup of a table"`
	Export  ExportCmd  `cmd:"" help:"Export a table as CSV"`
	Tables  TablesCmd  `cmd:"" help:"List the tables in the data directory"`
	Shell   ShellCmd   `cmd:"" help:"Start the interactive console"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CreateCmd creates a table.
type CreateCmd struct {
	Table   string   `arg:"" help:"Table name"`
	Columns []string `arg:"" optional:"" help:"Schema columns as name:kind"`
}

func (c *CreateCmd) Run(eng *engine.Engine) error {
	sch, err := repl.ParseSchema(strings.Join(c.Columns, " "))
	if err != nil {
		return err
	}
	if err := eng.CreateTable(c.Table, sch); err != nil {
		return err
	}
	fmt.Printf("Created %s at %s\n", c.Table, eng.TablePath(c.Table))
	return nil
}

// LoadCmd loads a table.
type LoadCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *LoadCmd) Run(eng *engine.Engine) error {
	format, err := eng.LoadTable(c.Table)
	if err != nil {
		return err
	}
	rows, err := eng.Select(c.Table, data.Row{})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d row(s), %s format\n", c.Table, len(rows), format)
	return nil
}

// DropCmd drops a table.
type DropCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *DropCmd) Run(eng *engine.Engine) error {
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	if err := eng.DropTable(c.Table); err != nil {
		return err
	}
	fmt.Printf("Dropped %s\n", c.Table)
	return nil
}

// InsertCmd inserts one record.
type InsertCmd struct {
	Table  string `arg:"" help:"Table name"`
	Record string `arg:"" help:"JSON object"`
	Key    string `name:"key" short:"k" help:"Reject the record if this column's value already exists"`
}

func (c *InsertCmd) Run(eng *engine.Engine) error {
	record, err := singleObject(c.Record)
	if err != nil {
		return err
	}
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	if err := eng.Insert(c.Table, record, c.Key); err != nil {
		return err
	}
	fmt.Println("1 row inserted")
	return nil
}

// SelectCmd prints matching records.
type SelectCmd struct {
	Table string `arg:"" help:"Table name"`
	Where string `arg:"" optional:"" help:"JSON conditions (all must match)"`
}

func (c *SelectCmd) Run(eng *engine.Engine) error {
	conditions, err := optionalObject(c.Where)
	if err != nil {
		return err
	}
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	rows, err := eng.Select(c.Table, conditions)
	if err != nil {
		return err
	}
	repl.PrintResult(os.Stdout, &repl.Result{
		Message: fmt.Sprintf("%d row(s)", len(rows)),
		Columns: repl.ColumnsOf(rows),
		Rows:    rows,
	})
	return nil
}

// UpdateCmd updates matching records.
type UpdateCmd struct {
	Table string `arg:"" help:"Table name"`
	Where string `arg:"" help:"JSON conditions"`
	Set   string `arg:"" help:"JSON object of new column values"`
}

func (c *UpdateCmd) Run(eng *engine.Engine) error {
	conditions, err := singleObject(c.Where)
	if err != nil {
		return err
	}
	updates, err := singleObject(c.Set)
	if err != nil {
		return err
	}
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	n, err := eng.Update(c.Table, conditions, updates)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) updated\n", n)
	return nil
}

// DeleteCmd deletes matching records.
type DeleteCmd struct {
	Table string `arg:"" help:"Table name"`
	Where string `arg:"" optional:"" help:"JSON conditions; omit to delete every record"`
}

func (c *DeleteCmd) Run(eng *engine.Engine) error {
	conditions, err := optionalObject(c.Where)
	if err != nil {
		return err
	}
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	n, err := eng.Delete(c.Table, conditions)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) deleted\n", n)
	return nil
}

// BackupCmd backs up a table.
type BackupCmd struct {
	Table string `arg:"" help:"Table name"`
}

func (c *BackupCmd) Run(eng *engine.Engine) error {
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	info, err := eng.BackupTable(c.Table)
	if err != nil {
		return err
	}
	fmt.Printf("Backup: %s\n", info.Path)
	fmt.Printf("  Size:   %d bytes\n", info.Bytes)
	fmt.Printf("  BLAKE3: %s\n", info.Digest)
	return nil
}

// ExportCmd exports a table as CSV.
type ExportCmd struct {
	Table string `arg:"" help:"Table name"`
	Out   string `arg:"" help:"Output CSV path" type:"path"`
}

func (c *ExportCmd) Run(eng *engine.Engine) error {
	if _, err := eng.LoadTable(c.Table); err != nil {
		return err
	}
	n, err := eng.ExportCSV(c.Table, c.Out)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("Table is empty, nothing exported")
		return nil
	}
	fmt.Printf("Exported %d row(s) to %s\n", n, c.Out)
	return nil
}

// TablesCmd lists tables on disk.
type TablesCmd struct{}

func (c *TablesCmd) Run(eng *engine.Engine) error {
	names, err := eng.AvailableTables()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Printf("No tables in %s\n", eng.DataDir())
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// ShellCmd starts the console with every table loaded.
type ShellCmd struct{}

func (c *ShellCmd) Run(eng *engine.Engine) error {
	if _, err := eng.LoadAll(); err != nil {
		return err
	}
	return repl.Start(eng)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mdb version %s\n", version)
	return nil
}

func singleObject(s string) (data.Row, error) {
	objs, tail, err := repl.ParseObjects(s)
	if err != nil {
		return data.Row{}, err
	}
	if len(objs) != 1 || tail != "" {
		return data.Row{}, fmt.Errorf("expected a single JSON object, got %q", s)
	}
	return objs[0], nil
}

func optionalObject(s string) (data.Row, error) {
	if s == "" {
		return data.Row{}, nil
	}
	return singleObject(s)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.DataDir != "" {
		cfg.Storage.DataDir = CLI.DataDir
	}
	if CLI.LogLevel != "" {
		cfg.Logging.Level = CLI.LogLevel
	}
	if CLI.Compress {
		cfg.Backup.Compress = true
	}
	return cfg, cfg.Validate()
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mdb"),
		kong.Description("MaestroDatabase - JSON file record store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := loadConfig()
	ctx.FatalIfErrorf(err)

	logger, closeFn := logging.SetupLogger(cfg)
	defer closeFn()
	slog.SetDefault(logger)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		closeFn()
		ctx.FatalIfErrorf(err)
	}
	eng.AddObserver(engine.NewLoggingObserver(logger))

	err = ctx.Run(eng)
	if err != nil && !errors.Is(err, repl.ErrQuit) {
		closeFn()
		ctx.FatalIfErrorf(err)
	}
}
