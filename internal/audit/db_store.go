package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// DefaultTable is the audit table name used when none is configured.
const DefaultTable = "log_extractions"

// columns is the audit table layout, in insert order.
var columns = []storage.Column{
	{Name: "run_id", Type: schema.KindText, NotNull: true},
	{Name: "seq", Type: schema.KindInt, NotNull: true},
	{Name: "logged_at", Type: schema.KindTimestamp, NotNull: true},
	{Name: "table_name", Type: schema.KindText},
	{Name: "action", Type: schema.KindText, NotNull: true},
	{Name: "rows_extracted", Type: schema.KindInt},
	{Name: "rows_exported", Type: schema.KindInt},
	{Name: "rejected", Type: schema.KindInt},
	{Name: "nulls_found", Type: schema.KindInt},
	{Name: "nulls_filled", Type: schema.KindInt},
	{Name: "duplicates_removed", Type: schema.KindInt},
	{Name: "status", Type: schema.KindText, NotNull: true},
	{Name: "details", Type: schema.KindText},
	{Name: "file_name", Type: schema.KindText},
	{Name: "checksum", Type: schema.KindText},
}

// TableDef returns the audit table definition for name.
func TableDef(name string) storage.TableDef {
	return storage.TableDef{Name: name, Columns: columns}
}

func columnNames() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

// DBStore writes audit records to a table in any storage backend. It does not
// own the repository; closing the store leaves repo open.
type DBStore struct {
	repo  storage.Repository
	table string
}

// NewDBStore creates the audit table when missing and returns a store on it.
func NewDBStore(ctx context.Context, repo storage.Repository, table string) (*DBStore, error) {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	if err := storage.EnsureTable(ctx, repo, TableDef(table)); err != nil {
		return nil, fmt.Errorf("audit: ensure table %s: %w", table, err)
	}
	return &DBStore{repo: repo, table: table}, nil
}

// Append inserts rec as a single row.
func (s *DBStore) Append(ctx context.Context, rec Record) error {
	row := []any{
		rec.RunID, int64(rec.Seq), rec.LoggedAt.UTC(), rec.Table, string(rec.Action),
		int64(rec.RowsExtracted), int64(rec.RowsExported), int64(rec.Rejected),
		int64(rec.NullsFound), int64(rec.NullsFilled), int64(rec.Duplicates),
		string(rec.Status), rec.Details, rec.File, rec.Checksum,
	}
	if _, err := s.repo.CopyFrom(ctx, s.table, columnNames(), [][]any{row}); err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}

// Records reads back one run's records ordered by seq.
func (s *DBStore) Records(ctx context.Context, runID string) ([]Record, error) {
	d := s.repo.Dialect()
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s",
		strings.Join(storage.QuoteAll(d, columnNames()), ", "),
		storage.QuoteQualified(d, s.table),
		d.QuoteIdent("run_id"), d.Placeholder(1),
		d.QuoteIdent("seq"),
	)
	rs, err := s.repo.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("audit: read: %w", err)
	}
	out := make([]Record, 0, len(rs.Rows))
	for _, v := range rs.Rows {
		rec, err := decodeRow(v)
		if err != nil {
			return nil, fmt.Errorf("audit: decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close is a no-op; the repository belongs to the caller.
func (s *DBStore) Close() error { return nil }

func decodeRow(v []any) (Record, error) {
	if len(v) != len(columns) {
		return Record{}, fmt.Errorf("got %d columns, want %d", len(v), len(columns))
	}
	ts, err := asTime(v[2])
	if err != nil {
		return Record{}, err
	}
	return Record{
		RunID:         asString(v[0]),
		Seq:           asInt(v[1]),
		LoggedAt:      ts,
		Table:         asString(v[3]),
		Action:        Action(asString(v[4])),
		RowsExtracted: asInt(v[5]),
		RowsExported:  asInt(v[6]),
		Rejected:      asInt(v[7]),
		NullsFound:    asInt(v[8]),
		NullsFilled:   asInt(v[9]),
		Duplicates:    asInt(v[10]),
		Status:        Status(asString(v[11])),
		Details:       asString(v[12]),
		File:          asString(v[13]),
		Checksum:      asString(v[14]),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int32:
		return int(t)
	case int:
		return t
	default:
		n, _ := strconv.Atoi(asString(v))
		return n
	}
}

// asTime accepts native times and the text forms drivers fall back to.
func asTime(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	s := asString(v)
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized logged_at %q", s)
}
