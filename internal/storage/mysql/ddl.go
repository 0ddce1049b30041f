package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// MapType normalizes a schema kind into a MySQL column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int":
		return "BIGINT"
	case "bool":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp":
		return "DATETIME(6)"
	case "money":
		return "DECIMAL(18,2)"
	case "decimal":
		return "DECIMAL(38,10)"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL builds a CREATE TABLE IF NOT EXISTS statement for td.
func BuildCreateTableSQL(td storage.TableDef) (string, error) {
	if strings.TrimSpace(td.Name) == "" {
		return "", fmt.Errorf("mysql ddl: table name must not be empty")
	}
	if len(td.Columns) == 0 {
		return "", fmt.Errorf("mysql ddl: at least one column is required")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
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
