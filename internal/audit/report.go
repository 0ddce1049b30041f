package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var reportHeader = []string{
	"run_id", "seq", "logged_at", "table", "action",
	"rows_extracted", "rows_exported", "rejected",
	"nulls_found", "nulls_filled", "duplicates_removed",
	"status", "details", "file", "checksum",
}

// WriteReport renders recs as a CSV report at path. The file is written to a
// temporary sibling and renamed so readers never see a partial report.
func WriteReport(path string, recs []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("report: create: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(reportHeader)
	for _, r := range recs {
		_ = w.Write([]string{
			r.RunID,
			strconv.Itoa(r.Seq),
			r.LoggedAt.UTC().Format(time.RFC3339),
			r.Table,
			string(r.Action),
			strconv.Itoa(r.RowsExtracted),
			strconv.Itoa(r.RowsExported),
			strconv.Itoa(r.Rejected),
			strconv.Itoa(r.NullsFound),
			strconv.Itoa(r.NullsFilled),
			strconv.Itoa(r.Duplicates),
			string(r.Status),
			r.Details,
			r.File,
			r.Checksum,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("report: write: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("report: close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}
