package audit

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josefarias3108/projeto-jus/internal/storage"
	_ "github.com/josefarias3108/projeto-jus/internal/storage/sqlite"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func logSampleRun(t *testing.T, l *Logger) {
	t.Helper()
	ctx := context.Background()
	_, err := l.Log(ctx, Record{Action: ActionStart, Details: "run started"})
	require.NoError(t, err)
	_, err = l.Log(ctx, Record{
		Table: "dim_juiz", Action: ActionValidation, Status: StatusWarning,
		RowsExtracted: 10, Rejected: 2, NullsFound: 3, NullsFilled: 1, Duplicates: 1,
		Details: "null required column nome=2",
	})
	require.NoError(t, err)
	_, err = l.Log(ctx, Record{
		Table: "dim_juiz", Action: ActionExtraction,
		RowsExtracted: 10, RowsExported: 7, File: "dim_juiz.csv", Checksum: "00ff00ff00ff00ff",
	})
	require.NoError(t, err)
}

func TestDBStore_SQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(repo.Close)

	store, err := NewDBStore(ctx, repo, "")
	require.NoError(t, err)
	// A second bootstrap must be harmless.
	_, err = NewDBStore(ctx, repo, DefaultTable)
	require.NoError(t, err)

	l := NewLogger(store, "run-1").WithClock(fixedClock())
	logSampleRun(t, l)
	other := NewLogger(store, "run-2").WithClock(fixedClock())
	_, err = other.Log(ctx, Record{Action: ActionStart})
	require.NoError(t, err)

	recs, err := l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].Seq, recs[1].Seq, recs[2].Seq})
	assert.Equal(t, ActionStart, recs[0].Action)
	assert.Equal(t, StatusSuccess, recs[0].Status)
	assert.Equal(t, StatusWarning, recs[1].Status)
	assert.Equal(t, 2, recs[1].Rejected)
	assert.Equal(t, 1, recs[1].Duplicates)
	assert.Equal(t, "dim_juiz.csv", recs[2].File)
	assert.Equal(t, 7, recs[2].RowsExported)
	assert.True(t, recs[0].LoggedAt.Equal(time.Date(2024, 5, 10, 12, 0, 1, 0, time.UTC)), "logged_at = %v", recs[0].LoggedAt)
}

func TestFileStore_AppendAndFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit", "log_extractions.jsonl")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	l := NewLogger(store, "").WithClock(fixedClock())
	assert.NotEmpty(t, l.RunID())
	logSampleRun(t, l)
	_, err = NewLogger(store, "someone-else").Log(context.Background(), Record{Action: ActionStart})
	require.NoError(t, err)

	recs, err := l.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, l.RunID(), recs[2].RunID)
	assert.Equal(t, "00ff00ff00ff00ff", recs[2].Checksum)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"action":"VALIDATION"`)
}

func TestFileStore_MissingFileHasNoRecords(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)
	recs, err := store.Records(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = NewFileStore("")
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "a.jsonl"))
	require.NoError(t, err)
	l := NewLogger(store, "run-9").WithClock(fixedClock())
	logSampleRun(t, l)
	recs, err := l.Records(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "csvs", "relatorio_logs.csv")
	require.NoError(t, WriteReport(path, recs))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, reportHeader, rows[0])
	assert.Equal(t, []string{
		"run-9", "2", "2024-05-10T12:00:02Z", "dim_juiz", "VALIDATION",
		"10", "0", "2", "3", "1", "1", "WARNING", "null required column nome=2", "", "",
	}, rows[2])

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary report must be renamed away")
}

func TestAsTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 5, 10, 12, 0, 1, 500, time.UTC)
	for _, in := range []any{
		want,
		"2024-05-10T12:00:01.0000005Z",
		"2024-05-10 12:00:01.0000005 +0000 UTC",
		[]byte("2024-05-10 12:00:01.0000005"),
	} {
		got, err := asTime(in)
		require.NoError(t, err, "input %v", in)
		assert.True(t, got.Equal(want), "asTime(%v) = %v", in, got)
	}
	_, err := asTime("yesterday")
	assert.Error(t, err)
}
