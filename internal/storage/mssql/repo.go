// Package mssql implements a Microsoft SQL Server repository using
// go-mssqldb. Bulk inserts go through the driver's bulk copy API
// (mssql.CopyIn) inside a transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql: ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Query runs a read statement and returns the full result set.
func (r *Repository) Query(ctx context.Context, query string, args ...any) (*storage.ResultSet, error) {
	rs, err := storage.QueryDB(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mssql: query: %w", err)
	}
	return rs, nil
}

// Exec executes a statement that returns no rows.
func (r *Repository) Exec(ctx context.Context, sql string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

// CopyFrom bulk-copies rows into table. The final argument-less Exec flushes
// the batch and reports the number of rows copied.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: prepare bulk copy: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql: CopyFrom: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Ping verifies the server is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Dialect reports SQL Server quoting and placeholder rules.
func (r *Repository) Dialect() storage.Dialect { return dialect{} }

type dialect struct{}

func (dialect) Name() string { return "mssql" }

// QuoteIdent brackets an identifier, doubling any closing bracket.
func (dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
