package storage

import (
	"context"
	"fmt"
	"sync"
)

// Column is a backend-neutral column definition. Type is one of the schema
// kinds ("int", "text", "bool", "date", "timestamp", "money", "decimal");
// each backend maps it onto its own SQL type.
type Column struct {
	Name    string
	Type    string
	NotNull bool
}

// TableDef is a backend-neutral table definition.
type TableDef struct {
	Name    string
	Columns []Column
}

// DDLBootstrapper creates the table described by td when it does not exist,
// using the backend's own syntax and type mapping.
type DDLBootstrapper func(ctx context.Context, repo Repository, td TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind. It is typically called from backend packages' init functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for the repository's dialect and
// invokes it. Callers do not need to know which backend they are using.
func EnsureTable(ctx context.Context, repo Repository, td TableDef) error {
	kind := repo.Dialect().Name()
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, td)
}

// ColumnDefs renders `"name" TYPE [NOT NULL]` fragments for td using the
// dialect's quoting and the backend's kind → SQL type mapping.
func ColumnDefs(d Dialect, td TableDef, sqlType func(kind string) string) []string {
	out := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		def := d.QuoteIdent(c.Name) + " " + sqlType(c.Type)
		if c.NotNull {
			def += " NOT NULL"
		}
		out[i] = def
	}
	return out
}
