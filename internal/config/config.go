// Package config defines the JSON configuration of a legalbi run: where the
// source database is, which tables to extract and with which rules, where the
// audit log goes and where the extracts are written.
//
// A file only needs to carry what differs from Default. Tables named after a
// built-in star-schema table inherit that table's contract for every part the
// entry omits.
//
// Example (trimmed):
//
//	{
//	  "job":    "legalbi",
//	  "source": { "kind": "postgres", "params": { "host": "db", "dbname": "juridico" } },
//	  "tables": [ { "name": "dim_pessoa" }, { "name": "fato_processos", "dedup_policy": "keep-last" } ],
//	  "audit":  { "kind": "db", "table": "log_extractions" },
//	  "output": { "dir": "csvs" }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/josefarias3108/projeto-jus/internal/publish/s3"
	"github.com/josefarias3108/projeto-jus/internal/schema"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	// Job names the run in metrics and log lines.
	Job string `json:"job"`

	Source     Source     `json:"source"`
	Tables     []Table    `json:"tables"`
	Validation Validation `json:"validation"`
	Audit      Audit      `json:"audit"`
	Output     Output     `json:"output"`
	Publish    Publish    `json:"publish"`
}

// Source identifies the relational database tables are extracted from.
type Source struct {
	// Kind selects the storage backend: "postgres", "mysql", "mssql" or "sqlite".
	Kind string `json:"kind"`

	// DSN is passed to the backend as-is. When empty it is assembled from
	// Params (see ResolveDSN).
	DSN string `json:"dsn"`

	// Params holds discrete connection parameters: host, port, dbname, user,
	// password, sslmode.
	Params Options `json:"params"`
}

// Table configures the extraction of one table. Only Name is required for
// built-in tables.
type Table struct {
	Name string `json:"name"`

	// Query overrides the generated SELECT. It must return every field of the
	// contract; column order does not matter.
	Query string `json:"query,omitempty"`
	Args  []any  `json:"args,omitempty"`

	Fields       []schema.Field     `json:"fields,omitempty"`
	KeyColumns   []string           `json:"key_columns,omitempty"`
	References   []schema.Reference `json:"references,omitempty"`
	Defaults     map[string]string  `json:"defaults,omitempty"`
	DedupPolicy  string             `json:"dedup_policy,omitempty"`
	PreferFields []string           `json:"prefer_fields,omitempty"`
}

// Validation holds run-wide validation settings.
type Validation struct {
	// SampleSize caps the rejected rows kept per table for the audit details.
	SampleSize int `json:"sample_size"`

	// MaxRejectRatio is the share of rejected rows above which a table is
	// flagged as failed. 1.0 never flags.
	MaxRejectRatio float64 `json:"max_reject_ratio"`
}

// Audit selects where audit records are appended.
type Audit struct {
	// Kind is "db" (a table, in the source database unless DSN is set) or
	// "file" (JSON lines).
	Kind string `json:"kind"`

	// Table is the audit table name for kind "db".
	Table string `json:"table"`

	// DSN points the "db" store at a different database of the source kind.
	DSN string `json:"dsn"`

	// Path is the JSON lines file for kind "file". Defaults to
	// <output.dir>/log_extractions.jsonl.
	Path string `json:"path"`
}

// Output controls where extracts are written.
type Output struct {
	Dir string `json:"dir"`

	// BOM prefixes every CSV with a UTF-8 byte order mark for spreadsheet tools.
	BOM bool `json:"bom"`

	// XLSX, when set, is the name of a workbook written next to the CSVs with
	// one sheet per table.
	XLSX string `json:"xlsx"`

	// Report is the audit report CSV written at the end of a run.
	Report string `json:"report"`
}

// Publish configures optional uploads of the committed extracts.
type Publish struct {
	S3 s3.Config `json:"s3"`
}

// Audit kinds.
const (
	AuditDB   = "db"
	AuditFile = "file"
)

// Default returns the configuration used when no file is present: every
// built-in table from a postgres source, audit in the source database.
func Default() Config {
	star := schema.StarSchema()
	tables := make([]Table, len(star))
	for i, c := range star {
		tables[i] = Table{Name: c.Name}
	}
	return Config{
		Job:        "legalbi",
		Source:     Source{Kind: "postgres", Params: Options{}},
		Tables:     tables,
		Validation: Validation{SampleSize: 5, MaxRejectRatio: 1.0},
		Audit:      Audit{Kind: AuditDB, Table: "log_extractions"},
		Output:     Output{Dir: "csvs", Report: "relatorio_logs.csv"},
	}
}

// Load reads path over Default. A missing file yields the defaults unless
// mustExist is set. Unknown keys are an error.
func Load(path string, mustExist bool) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// Contract returns the validation contract of t. Parts t leaves empty are
// taken from the built-in contract of the same name, if any.
func (t Table) Contract() (schema.Contract, error) {
	c, ok := schema.Builtin(t.Name)
	if !ok {
		if len(t.Fields) == 0 {
			return schema.Contract{}, fmt.Errorf("table %q: not a built-in table and no fields configured", t.Name)
		}
		c = schema.Contract{Name: t.Name}
	}
	if len(t.Fields) > 0 {
		c.Fields = t.Fields
	}
	if t.KeyColumns != nil {
		c.KeyColumns = t.KeyColumns
	}
	if t.References != nil {
		c.References = t.References
	}
	if t.Defaults != nil {
		c.Defaults = t.Defaults
	}
	return c, nil
}

// AuditPath returns the JSON lines file used by the "file" audit store.
func (c Config) AuditPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return filepath.Join(c.Output.Dir, "log_extractions.jsonl")
}

// ReportPath returns the audit report location, or "" when disabled.
func (c Config) ReportPath() string {
	return c.outputPath(c.Output.Report)
}

// WorkbookPath returns the xlsx location, or "" when disabled.
func (c Config) WorkbookPath() string {
	return c.outputPath(c.Output.XLSX)
}

func (c Config) outputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}
