// Package extract reads star-schema tables from the source repository into
// the in-memory table model, aligned to each table's contract.
package extract

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/storage"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

var (
	// ErrUnavailable marks a failure caused by the source store being
	// unreachable. It is fatal to a run.
	ErrUnavailable = errors.New("source unavailable")
	// ErrSchemaMismatch marks a result set lacking contract columns. It only
	// fails the table concerned.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// pingTimeout bounds the reachability probe after a failed query.
const pingTimeout = 5 * time.Second

// Extractor runs read queries against a source repository.
type Extractor struct {
	repo storage.Repository
}

// New returns an Extractor reading from repo.
func New(repo storage.Repository) *Extractor {
	return &Extractor{repo: repo}
}

// BuildQuery renders the default statement for c: every contract column,
// ordered by the key columns and then by all remaining columns so row order
// never depends on the engine's storage layout.
func BuildQuery(d storage.Dialect, c schema.Contract) string {
	cols := c.Columns()
	order := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))
	for _, k := range c.KeyColumns {
		if !seen[strings.ToLower(k)] && c.Index(k) >= 0 {
			seen[strings.ToLower(k)] = true
			order = append(order, d.QuoteIdent(c.Fields[c.Index(k)].Name))
		}
	}
	for _, col := range cols {
		if !seen[strings.ToLower(col)] {
			seen[strings.ToLower(col)] = true
			order = append(order, d.QuoteIdent(col))
		}
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(storage.QuoteAll(d, cols), ", "),
		storage.QuoteQualified(d, c.Name),
		strings.Join(order, ", "),
	)
}

// Extract reads table c. An empty query selects BuildQuery's statement;
// otherwise query and args are passed to the repository unchanged.
//
// A failed query is classified by pinging the store: an unreachable store
// (or a cancelled context) yields an error wrapping ErrUnavailable, anything
// else is a table-level error.
func (e *Extractor) Extract(ctx context.Context, c schema.Contract, query string, args []any) (*transformer.Table, error) {
	if strings.TrimSpace(query) == "" {
		query = BuildQuery(e.repo.Dialect(), c)
	}
	rs, err := e.repo.Query(ctx, query, args...)
	if err != nil {
		return nil, e.classify(ctx, c.Name, err)
	}

	pos := make([]int, len(c.Fields))
	var missing []string
	for i, f := range c.Fields {
		pos[i] = -1
		for j, col := range rs.Columns {
			if strings.EqualFold(col, f.Name) {
				pos[i] = j
				break
			}
		}
		if pos[i] < 0 {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("extract %s: %w: missing columns %s", c.Name, ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	t := &transformer.Table{Contract: c, Rows: make([]*transformer.Row, 0, len(rs.Rows))}
	for n, src := range rs.Rows {
		v := make([]any, len(pos))
		for i, j := range pos {
			v[i] = driverValue(src[j])
		}
		t.Rows = append(t.Rows, &transformer.Row{Line: n + 1, V: v})
	}
	return t, nil
}

func (e *Extractor) classify(ctx context.Context, table string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("extract %s: %w: %w", table, ErrUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if perr := e.repo.Ping(pingCtx); perr != nil {
		return fmt.Errorf("extract %s: %w: %w", table, ErrUnavailable, err)
	}
	return fmt.Errorf("extract %s: %w", table, err)
}

// driverValue unwraps driver.Valuer values (such as pgx numerics) and turns
// byte slices into strings.
func driverValue(v any) any {
	if vr, ok := v.(driver.Valuer); ok {
		if dv, err := vr.Value(); err == nil {
			v = dv
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
