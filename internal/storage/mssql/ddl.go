package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// MapType normalizes a schema kind into a SQL Server column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int":
		return "BIGINT"
	case "bool":
		return "BIT"
	case "date":
		return "DATE"
	case "timestamp":
		return "DATETIME2"
	case "money":
		return "DECIMAL(18,2)"
	case "decimal":
		return "DECIMAL(38,10)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// BuildCreateTableSQL builds a guarded CREATE TABLE statement; SQL Server has
// no CREATE TABLE IF NOT EXISTS, so existence is checked with OBJECT_ID.
func BuildCreateTableSQL(td storage.TableDef) (string, error) {
	name := strings.TrimSpace(td.Name)
	if name == "" {
		return "", fmt.Errorf("mssql ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("mssql ddl: at least one column is required")
	}
	quoted := storage.QuoteQualified(dialect{}, name)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
		strings.ReplaceAll(quoted, "'", "''"),
		quoted,
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
