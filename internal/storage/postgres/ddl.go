package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// MapType normalizes a schema kind into a Postgres SQL type.
//
//	"int"              -> BIGINT
//	"bool"             -> BOOLEAN
//	"date"             -> DATE
//	"timestamp"        -> TIMESTAMPTZ
//	"money"            -> NUMERIC(18,2)
//	"decimal"          -> NUMERIC
//	everything else    -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	case "money":
		return "NUMERIC(18,2)"
	case "decimal":
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL builds a CREATE TABLE IF NOT EXISTS statement for td.
func BuildCreateTableSQL(td storage.TableDef) (string, error) {
	if strings.TrimSpace(td.Name) == "" {
		return "", fmt.Errorf("postgres ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		storage.QuoteQualified(dialect{}, td.Name),
		strings.Join(storage.ColumnDefs(dialect{}, td, MapType), ",\n  "),
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
