package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/josefarias3108/projeto-jus/internal/audit"
	"github.com/josefarias3108/projeto-jus/internal/config"
	"github.com/josefarias3108/projeto-jus/internal/export"
	"github.com/josefarias3108/projeto-jus/internal/metrics"
	"github.com/josefarias3108/projeto-jus/internal/metrics/datadog"
	"github.com/josefarias3108/projeto-jus/internal/metrics/prompush"
	"github.com/josefarias3108/projeto-jus/internal/pipeline"
	"github.com/josefarias3108/projeto-jus/internal/publish/s3"
	"github.com/josefarias3108/projeto-jus/internal/storage"

	// register all backends with the storage factory.
	_ "github.com/josefarias3108/projeto-jus/internal/storage/all"
)

const defaultConfigPath = "configs/legalbi.json"

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 1
	exitTableFailed = 2
)

type options struct {
	configPath     string
	configSet      bool // -config given explicitly; the file must then exist
	envFile        string
	validate       bool
	verbose        bool
	metricsBackend string
	pushGatewayURL string
	statsdAddr     string
}

// newRepository opens storage backends; tests may replace it.
var newRepository = storage.New

// run loads the configuration, wires the run and maps its outcome to an exit
// code.
func run(ctx context.Context, opts options) int {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		log.Printf("config: %v", err)
		return exitFatal
	}
	cfg, err := config.Load(opts.configPath, opts.configSet)
	if err != nil {
		log.Printf("config: %v", err)
		return exitFatal
	}
	config.ApplyEnv(&cfg)

	issues := config.ValidateConfig(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", opts.configPath)
		return exitFatal
	}
	if opts.validate {
		log.Printf("Configuration is valid: %v", opts.configPath)
		return exitOK
	}

	if flush := setupMetrics(cfg.Job, opts); flush != nil {
		defer flush()
	}

	start := time.Now()
	res, err := execute(ctx, cfg, opts.verbose)
	if err != nil {
		log.Printf("run failed: %v", err)
		return exitFatal
	}
	if opts.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	if res.Failed() {
		for _, t := range res.Tables {
			switch {
			case t.Err != nil:
				log.Printf("summary: table=%s failed: %v", t.Table, t.Err)
			case t.Exceeded:
				log.Printf("summary: table=%s rejected %d of %d rows", t.Table, t.Report.Rejected, t.Report.Extracted)
			}
		}
		for _, e := range res.Errors {
			log.Printf("summary: %v", e)
		}
		return exitTableFailed
	}
	return exitOK
}

// execute opens the source, the audit store, the stager and the optional
// publisher, then runs the pipeline.
func execute(ctx context.Context, cfg config.Config, verbose bool) (pipeline.Result, error) {
	dsn, err := cfg.Source.ResolveDSN()
	if err != nil {
		return pipeline.Result{}, err
	}
	source, err := newRepository(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: dsn})
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("source: %w", err)
	}
	defer source.Close()

	store, closeStore, err := openAuditStore(ctx, cfg, source)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("audit: %w", err)
	}
	defer closeStore()

	stager, err := export.NewStager(cfg.Output.Dir, cfg.Output.BOM)
	if err != nil {
		return pipeline.Result{}, err
	}

	r := &pipeline.Runner{
		Config:  cfg,
		Source:  source,
		Audit:   audit.NewLogger(store, ""),
		Stager:  stager,
		Verbose: verbose,
	}
	if cfg.Publish.S3.Enabled() {
		pub, err := s3.New(ctx, cfg.Publish.S3)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("publish: %w", err)
		}
		r.Publisher = pub
	}
	return r.Run(ctx)
}

// openAuditStore returns the configured audit store. The "db" store shares
// the source connection unless audit.dsn points elsewhere.
func openAuditStore(ctx context.Context, cfg config.Config, source storage.Repository) (audit.Store, func(), error) {
	switch cfg.Audit.Kind {
	case config.AuditFile:
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		s, err := audit.NewFileStore(cfg.AuditPath())
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.AuditDB:
		repo, closeRepo := source, func() {}
		if cfg.Audit.DSN != "" {
			r, err := newRepository(ctx, storage.Config{Kind: cfg.Source.Kind, DSN: cfg.Audit.DSN})
			if err != nil {
				return nil, nil, err
			}
			repo, closeRepo = r, r.Close
		}
		s, err := audit.NewDBStore(ctx, repo, cfg.Audit.Table)
		if err != nil {
			closeRepo()
			return nil, nil, err
		}
		return s, func() { _ = s.Close(); closeRepo() }, nil
	default:
		return nil, nil, errors.New("unsupported audit kind " + cfg.Audit.Kind)
	}
}

// metricsBackendName picks the backend: flag, then METRICS_BACKEND, then "none".
func metricsBackendName(opts options) string {
	if opts.metricsBackend != "" {
		return opts.metricsBackend
	}
	if env := os.Getenv("METRICS_BACKEND"); env != "" {
		return env
	}
	return "none"
}

// setupMetrics installs the selected backend and returns its flush func, or
// nil when metrics are disabled. Flag → env → default.
func setupMetrics(job string, opts options) func() {
	backendName := metricsBackendName(opts)
	var (
		b   metrics.Backend
		err error
	)
	switch backendName {
	case "pushgateway":
		gwURL := opts.pushGatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err = prompush.NewBackend(job, gwURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		}
	case "datadog":
		addr := opts.statsdAddr
		if addr == "" {
			addr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err = datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "legalbi.", GlobalTags: []string{"job:" + job}})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, backendName, job)
		}
	case "", "none":
		if opts.verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return nil
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return nil
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backendName, err)
		return nil
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
