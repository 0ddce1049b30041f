package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josefarias3108/projeto-jus/internal/storage"
)

var seed = []string{
	`CREATE TABLE dim_pessoa (id_pessoa INTEGER, nome TEXT, papel TEXT, data_nascimento TEXT,
		cpf TEXT, endereco TEXT, cidade TEXT, estado TEXT)`,
	`INSERT INTO dim_pessoa VALUES (1, 'Joao', 'autor', '1980-01-02', NULL, NULL, NULL, NULL)`,
	`CREATE TABLE dim_juiz (id_juiz INTEGER, nome TEXT, vara TEXT)`,
	`INSERT INTO dim_juiz VALUES (100, 'Ana', '1a Vara Civel'), (101, NULL, '2a Vara Civel')`,
}

// writeFixture seeds a SQLite source and writes a config extracting two
// tables from it into dir/out.
func writeFixture(t *testing.T, mutate func(cfg map[string]any)) (cfgPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "juridico.db")

	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dbPath})
	require.NoError(t, err)
	for _, stmt := range seed {
		require.NoError(t, repo.Exec(context.Background(), stmt))
	}
	repo.Close()

	outDir = filepath.Join(dir, "out")
	cfg := map[string]any{
		"source": map[string]any{"kind": "sqlite", "dsn": dbPath},
		"tables": []any{
			map[string]any{"name": "dim_pessoa"},
			map[string]any{"name": "dim_juiz"},
		},
		"audit":  map[string]any{"kind": "file"},
		"output": map[string]any{"dir": outDir},
	}
	if mutate != nil {
		mutate(cfg)
	}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	cfgPath = filepath.Join(dir, "legalbi.json")
	require.NoError(t, os.WriteFile(cfgPath, b, 0o644))
	return cfgPath, outDir
}

func testOptions(cfgPath string) options {
	return options{
		configPath:     cfgPath,
		configSet:      true,
		envFile:        filepath.Join(filepath.Dir(cfgPath), "missing.env"),
		metricsBackend: "none",
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(cfg map[string]any)
		want   int
	}{
		{name: "clean run", want: exitOK},
		{name: "reject ratio exceeded", mutate: func(cfg map[string]any) {
			cfg["validation"] = map[string]any{"max_reject_ratio": 0.1}
		}, want: exitTableFailed},
		{name: "table-level query error", mutate: func(cfg map[string]any) {
			cfg["tables"] = []any{map[string]any{"name": "dim_juiz", "query": "SELECT * FROM juizes_antigos"}}
		}, want: exitTableFailed},
		{name: "invalid config", mutate: func(cfg map[string]any) {
			cfg["audit"] = map[string]any{"kind": "kafka"}
		}, want: exitFatal},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfgPath, _ := writeFixture(t, tt.mutate)
			assert.Equal(t, tt.want, run(context.Background(), testOptions(cfgPath)))
		})
	}
}

func TestRun_WritesExtractsAndAudit(t *testing.T) {
	t.Parallel()

	cfgPath, out := writeFixture(t, nil)
	require.Equal(t, exitOK, run(context.Background(), testOptions(cfgPath)))

	b, err := os.ReadFile(filepath.Join(out, "dim_juiz.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id_juiz,nome,vara\n100,Ana,1a Vara Civel\n", string(b))
	assert.FileExists(t, filepath.Join(out, "dim_pessoa.csv"))
	assert.FileExists(t, filepath.Join(out, "log_extractions.jsonl"))
	assert.FileExists(t, filepath.Join(out, "relatorio_logs.csv"))
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()

	cfgPath, out := writeFixture(t, nil)
	opts := testOptions(cfgPath)
	opts.validate = true
	assert.Equal(t, exitOK, run(context.Background(), opts))
	assert.NoDirExists(t, out)
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	t.Parallel()

	opts := testOptions(filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, exitFatal, run(context.Background(), opts))
}

func TestRun_UnreachableSource(t *testing.T) {
	t.Parallel()

	cfgPath, out := writeFixture(t, func(cfg map[string]any) {
		cfg["source"] = map[string]any{"kind": "sqlite", "dsn": filepath.Join(t.TempDir(), "missing", "dir", "x.db")}
	})
	assert.Equal(t, exitFatal, run(context.Background(), testOptions(cfgPath)))
	assert.NoFileExists(t, filepath.Join(out, "dim_juiz.csv"))
}

func TestMetricsBackendName(t *testing.T) {
	t.Setenv("METRICS_BACKEND", "")
	assert.Equal(t, "none", metricsBackendName(options{}))

	t.Setenv("METRICS_BACKEND", "datadog")
	assert.Equal(t, "datadog", metricsBackendName(options{}))
	assert.Equal(t, "pushgateway", metricsBackendName(options{metricsBackend: "pushgateway"}))
	assert.Equal(t, "none", metricsBackendName(options{metricsBackend: "none"}))
}
