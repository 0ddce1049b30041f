package mysql

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Repository{db: db}, mock
}

func TestQuery_ReadsAllRows(t *testing.T) {
	t.Parallel()

	r, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id_advogado", "nome", "oab"}).
		AddRow(int64(1), []byte("Carla Dias"), "SP-123").
		AddRow(int64(2), "Davi Reis", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id_advogado`, `nome`, `oab` FROM `dim_advogado`")).WillReturnRows(rows)

	rs, err := r.Query(context.Background(), "SELECT `id_advogado`, `nome`, `oab` FROM `dim_advogado`")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rs.Rows) != 2 || len(rs.Columns) != 3 {
		t.Fatalf("unexpected result set: %+v", rs)
	}
	if b, ok := rs.Rows[0][1].([]byte); !ok || string(b) != "Carla Dias" {
		t.Fatalf("row[0][1] = %#v", rs.Rows[0][1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQuery_WrapsDriverError(t *testing.T) {
	t.Parallel()

	r, mock := newMockRepo(t)
	boom := errors.New("Table 'legalbi.dim_juiz' doesn't exist")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err := r.Query(context.Background(), "SELECT 1")
	if !errors.Is(err, boom) {
		t.Fatalf("Query error = %v, want wrapped %v", err, boom)
	}
}

func TestCopyFrom_MultiRowInsertInTx(t *testing.T) {
	t.Parallel()

	r, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `log_extractions` (`run_id`, `seq`) VALUES (?, ?), (?, ?)")).
		WithArgs("r1", int64(1), "r1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := r.CopyFrom(context.Background(), "log_extractions", []string{"run_id", "seq"}, [][]any{
		{"r1", int64(1)},
		{"r1", int64(2)},
	})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom = %d, want 2", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCopyFrom_RollsBackOnError(t *testing.T) {
	t.Parallel()

	r, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	if _, err := r.CopyFrom(context.Background(), "t", []string{"a"}, [][]any{{1}}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBuildInsert_RowLengthMismatch(t *testing.T) {
	t.Parallel()

	if _, _, err := buildInsert("t", []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildCreateTableSQL(storage.TableDef{Name: "log_extractions", Columns: []storage.Column{
		{Name: "logged_at", Type: "timestamp", NotNull: true},
		{Name: "valor", Type: "money"},
	}})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS `log_extractions`", "`logged_at` DATETIME(6) NOT NULL", "`valor` DECIMAL(18,2)"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %s", want, got)
		}
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected DSN parse error")
	}
}
