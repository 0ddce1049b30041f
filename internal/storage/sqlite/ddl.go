package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// sqlType maps a schema kind onto a SQLite column affinity.
func sqlType(kind string) string {
	switch kind {
	case "int", "bool":
		return "INTEGER"
	case "money", "decimal":
		return "NUMERIC"
	case "date", "timestamp":
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for td.
func BuildCreateTableSQL(td storage.TableDef) (string, error) {
	if strings.TrimSpace(td.Name) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		storage.QuoteQualified(dialect{}, td.Name),
		strings.Join(storage.ColumnDefs(dialect{}, td, sqlType), ",\n  "),
	), nil
}

// EnsureTable creates td when it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, td storage.TableDef) error {
	stmt, err := BuildCreateTableSQL(td)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}
