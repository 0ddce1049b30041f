// Package storage contains storage-agnostic contracts and utilities.
//
// Backends (postgres, mysql, mssql, sqlite) implement Repository and register
// a factory for their kind at init time. Callers obtain a Repository through
// New and never import a driver directly; see package storage/all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal surface the pipeline needs from a database: read
// queries for extraction, statements for DDL, and bulk inserts for the audit
// log.
type Repository interface {
	// Query runs a read statement and materializes the full result set.
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)
	// Exec runs a statement that returns no rows (typically DDL).
	Exec(ctx context.Context, sql string, args ...any) error
	// CopyFrom inserts rows aligned to columns using the backend's most
	// efficient primitive and returns the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// Dialect describes the backend's SQL syntax.
	Dialect() Dialect
	// Close releases the connection pool.
	Close()
}

// ResultSet is a fully read query result. Values are the raw driver values.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. It is typically
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
