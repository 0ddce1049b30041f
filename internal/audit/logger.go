package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger stamps records with the run id, a per-run sequence number and the
// current time before appending them to a Store.
type Logger struct {
	store Store
	runID string
	now   func() time.Time

	mu  sync.Mutex
	seq int
}

// NewLogger returns a Logger for a new run. An empty runID is replaced by a
// random UUID.
func NewLogger(store Store, runID string) *Logger {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Logger{store: store, runID: runID, now: time.Now}
}

// WithClock overrides the time source; it is meant for tests.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// RunID identifies the run in every record.
func (l *Logger) RunID() string { return l.runID }

// Log stamps and appends rec, returning the stored form.
func (l *Logger) Log(ctx context.Context, rec Record) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	rec.RunID = l.runID
	rec.Seq = l.seq
	// Microseconds survive every backend's timestamp type.
	rec.LoggedAt = l.now().UTC().Truncate(time.Microsecond)
	if rec.Status == "" {
		rec.Status = StatusSuccess
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Records returns the run's records from the store.
func (l *Logger) Records(ctx context.Context) ([]Record, error) {
	return l.store.Records(ctx, l.runID)
}

// Close closes the underlying store.
func (l *Logger) Close() error { return l.store.Close() }
