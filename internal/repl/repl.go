// Package repl is the interactive shell over an engine.
//
// Every line is "<verb> [table] [arguments]". Records and conditions are JSON
// objects; several may follow one another on the same line:
//
//	create users id:int name:str
//	insert users {"id": 1, "name": "ada"} key=id
//	update users {"id": 1} {"name": "grace"}
package repl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/schema"
	"github.com/MaestroDelFuego/MaestroDatabase/internal/engine"
)

const prompt = "mdb> "

// ErrQuit is returned by Exec for exit commands
var ErrQuit = errors.New("quit")

// Result is what a command produced: a message, rows, or both
type Result struct {
	Message string
	Columns []string
	Rows    []data.Row
}

// Shell executes command lines against an engine
type Shell struct {
	eng *engine.Engine
}

func New(eng *engine.Engine) *Shell {
	return &Shell{eng: eng}
}

// Start runs the readline loop on the terminal until exit or EOF
func Start(eng *engine.Engine) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := New(eng)
	fmt.Println("Welcome to MaestroDatabase")
	fmt.Println("Type 'help' for commands, 'exit' or '\\q' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		res, err := sh.Exec(line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		PrintResult(os.Stdout, res)
	}
}

// Exec runs one command line
func (s *Shell) Exec(line string) (*Result, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	verb = strings.ToLower(verb)
	rest = strings.TrimSpace(rest)

	switch verb {
	case "exit", "quit", `\q`:
		return nil, ErrQuit
	case "help", `\help`:
		return &Result{Message: helpText}, nil
	case "tables", "ls":
		return s.tables()
	}

	table, args, _ := strings.Cut(rest, " ")
	args = strings.TrimSpace(args)
	if table == "" {
		return nil, fmt.Errorf("%s: table name required", verb)
	}

	switch verb {
	case "create":
		return s.create(table, args)
	case "load":
		format, err := s.eng.LoadTable(table)
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Loaded %s (%s format)", table, format)}, nil
	case "drop":
		if err := s.eng.DropTable(table); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Dropped %s", table)}, nil
	case "insert":
		return s.insert(table, args)
	case "select":
		return s.selectRows(table, args)
	case "update":
		return s.update(table, args)
	case "delete":
		return s.deleteRows(table, args)
	case "begin":
		txID, err := s.eng.BeginTransaction(table)
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Transaction %s started on %s", txID, table)}, nil
	case "commit":
		status, err := s.eng.Commit(table)
		if err != nil {
			return nil, err
		}
		return &Result{Message: string(status)}, nil
	case "rollback":
		status, err := s.eng.Rollback(table)
		if err != nil {
			return nil, err
		}
		return &Result{Message: string(status)}, nil
	case "backup":
		info, err := s.eng.BackupTable(table)
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Backup written to %s (%d bytes, blake3 %s)", info.Path, info.Bytes, info.Digest)}, nil
	case "export":
		if args == "" {
			return nil, errors.New("export: output path required")
		}
		n, err := s.eng.ExportCSV(table, args)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return &Result{Message: "Table is empty, nothing exported"}, nil
		}
		return &Result{Message: fmt.Sprintf("Exported %d row(s) to %s", n, args)}, nil
	case "schema":
		sch, err := s.eng.Schema(table)
		if err != nil {
			return nil, err
		}
		if sch == nil {
			return &Result{Message: "(no schema)"}, nil
		}
		return &Result{Message: sch.String()}, nil
	}

	return nil, fmt.Errorf("unknown command %q (type 'help')", verb)
}

func (s *Shell) tables() (*Result, error) {
	loaded := s.eng.ListTables()
	onDisk, err := s.eng.AvailableTables()
	if err != nil {
		return nil, err
	}

	open := make(map[string]bool, len(loaded))
	for _, name := range loaded {
		open[name] = true
	}

	res := &Result{Columns: []string{"table", "loaded"}}
	for _, name := range onDisk {
		res.Rows = append(res.Rows, data.RowOf("table", name, "loaded", open[name]))
		delete(open, name)
	}
	// loaded tables whose file was removed outside the engine
	for _, name := range loaded {
		if open[name] {
			res.Rows = append(res.Rows, data.RowOf("table", name, "loaded", true))
		}
	}
	if len(res.Rows) == 0 {
		return &Result{Message: "No tables"}, nil
	}
	return res, nil
}

func (s *Shell) create(table, args string) (*Result, error) {
	sch, err := ParseSchema(args)
	if err != nil {
		return nil, err
	}
	if err := s.eng.CreateTable(table, sch); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Created %s", table)}, nil
}

func (s *Shell) insert(table, args string) (*Result, error) {
	objs, tail, err := ParseObjects(args)
	if err != nil {
		return nil, err
	}
	if len(objs) != 1 {
		return nil, errors.New("insert: expected one JSON record")
	}

	keyColumn := ""
	if tail != "" {
		k, ok := strings.CutPrefix(tail, "key=")
		if !ok || k == "" {
			return nil, fmt.Errorf("insert: unexpected %q", tail)
		}
		keyColumn = k
	}

	if err := s.eng.Insert(table, objs[0], keyColumn); err != nil {
		return nil, err
	}
	return &Result{Message: "1 row inserted"}, nil
}

func (s *Shell) selectRows(table, args string) (*Result, error) {
	conditions, err := optionalConditions("select", args)
	if err != nil {
		return nil, err
	}
	rows, err := s.eng.Select(table, conditions)
	if err != nil {
		return nil, err
	}
	return &Result{
		Message: fmt.Sprintf("%d row(s)", len(rows)),
		Columns: ColumnsOf(rows),
		Rows:    rows,
	}, nil
}

func (s *Shell) update(table, args string) (*Result, error) {
	objs, tail, err := ParseObjects(args)
	if err != nil {
		return nil, err
	}
	if len(objs) != 2 || tail != "" {
		return nil, errors.New("update: expected <conditions> <updates> as two JSON objects")
	}
	n, err := s.eng.Update(table, objs[0], objs[1])
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d row(s) updated", n)}, nil
}

func (s *Shell) deleteRows(table, args string) (*Result, error) {
	conditions, err := optionalConditions("delete", args)
	if err != nil {
		return nil, err
	}
	n, err := s.eng.Delete(table, conditions)
	if err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%d row(s) deleted", n)}, nil
}

func optionalConditions(verb, args string) (data.Row, error) {
	objs, tail, err := ParseObjects(args)
	if err != nil {
		return data.Row{}, err
	}
	if len(objs) > 1 || tail != "" {
		return data.Row{}, fmt.Errorf("%s: expected at most one JSON conditions object", verb)
	}
	if len(objs) == 0 {
		return data.Row{}, nil
	}
	return objs[0], nil
}

// ParseObjects decodes consecutive JSON objects from the start of s.
// tail is whatever non-JSON text follows them.
func ParseObjects(s string) (objs []data.Row, tail string, err error) {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "{") {
		dec := json.NewDecoder(strings.NewReader(s))
		var row data.Row
		if err := dec.Decode(&row); err != nil {
			return nil, "", fmt.Errorf("invalid JSON object: %w", err)
		}
		objs = append(objs, row)
		s = strings.TrimSpace(s[dec.InputOffset():])
	}
	return objs, s, nil
}

// ParseSchema parses "col:kind col:kind ..." into a schema; empty input means no schema
func ParseSchema(s string) (*schema.Schema, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}

	cols := make([]schema.Column, 0, len(fields))
	for _, f := range fields {
		name, kindName, ok := strings.Cut(f, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("column %q: expected name:kind", f)
		}
		kind, err := schema.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, schema.Column{Name: name, Kind: kind})
	}
	return schema.New(cols...)
}

// ColumnsOf returns the union of the rows' columns in order of first appearance
func ColumnsOf(rows []data.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for _, col := range row.Columns() {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// PrintResult renders res as a message followed by an aligned table
func PrintResult(w io.Writer, res *Result) {
	if res == nil {
		return
	}

	if len(res.Rows) > 0 || len(res.Columns) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		// Header
		fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))

		// Separator
		sep := make([]string, len(res.Columns))
		for i := range sep {
			sep[i] = "---"
		}
		fmt.Fprintln(tw, strings.Join(sep, "\t"))

		// Rows
		for _, row := range res.Rows {
			var line bytes.Buffer
			for i, col := range res.Columns {
				val, ok := row.Get(col)
				if !ok || val == nil {
					line.WriteString("NULL")
				} else {
					line.WriteString(data.Format(val))
				}
				if i < len(res.Columns)-1 {
					line.WriteByte('\t')
				}
			}
			fmt.Fprintln(tw, line.String())
		}
		tw.Flush()
	}

	if res.Message != "" {
		fmt.Fprintln(w, res.Message)
	}
}

const helpText = `commands:
  create <table> [col:kind ...]          kinds: int float str bool any
  load <table>                           read <table> from the data directory
  drop <table>                           unload and delete the table file
  insert <table> {record} [key=<col>]
  select <table> [{conditions}]
  update <table> {conditions} {updates}
  delete <table> [{conditions}]
  begin | commit | rollback <table>
  backup <table>
  export <table> <path.csv>
  schema <table>
  tables
  exit | quit | \q`
