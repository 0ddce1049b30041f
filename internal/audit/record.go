// Package audit persists one record per pipeline event (run start, table
// validation and extraction, errors, run end) to an append-only store and
// renders a run's records as a CSV report.
package audit

import (
	"context"
	"time"
)

// Action is the pipeline event a record describes.
type Action string

const (
	ActionStart      Action = "START"
	ActionValidation Action = "VALIDATION"
	ActionExtraction Action = "EXTRACTION"
	ActionError      Action = "ERROR"
	ActionEnd        Action = "END"
)

// Status grades the outcome of an event.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Record is one audit log entry. RunID, Seq and LoggedAt are assigned by
// Logger.
type Record struct {
	RunID         string    `json:"run_id"`
	Seq           int       `json:"seq"`
	LoggedAt      time.Time `json:"logged_at"`
	Table         string    `json:"table,omitempty"`
	Action        Action    `json:"action"`
	RowsExtracted int       `json:"rows_extracted"`
	RowsExported  int       `json:"rows_exported"`
	Rejected      int       `json:"rejected"`
	NullsFound    int       `json:"nulls_found"`
	NullsFilled   int       `json:"nulls_filled"`
	Duplicates    int       `json:"duplicates_removed"`
	Status        Status    `json:"status"`
	Details       string    `json:"details,omitempty"`
	File          string    `json:"file,omitempty"`
	Checksum      string    `json:"checksum,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Records returns the records of one run ordered by Seq.
	Records(ctx context.Context, runID string) ([]Record, error)
	Close() error
}
