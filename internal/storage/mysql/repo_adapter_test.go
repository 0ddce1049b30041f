package mysql

import (
	"context"
	"testing"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

// TestMySQLStorageRegistrationUsesNewRepositoryHook verifies that the
// "mysql" storage backend registered in init() uses the newRepository hook
// and that wrappedRepo correctly delegates Close.
func TestMySQLStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(ctx, storage.Config{Kind: "mysql", DSN: "etl:secret@tcp(localhost:3306)/legalbi"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != "etl:secret@tcp(localhost:3306)/legalbi" {
		t.Errorf("hook cfg.DSN = %q", gotCfg.DSN)
	}

	repo.Close()
	if !closed {
		t.Fatalf("wrappedRepo.Close did not invoke closeFn")
	}
}
