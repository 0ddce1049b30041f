// Package pipeline runs one extraction: every configured table is extracted,
// validated against its contract and staged as CSV, in dependency order, with
// an audit record for each step. Extracts are committed together at the end
// so a fatal error never leaves a half-written set of files behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/josefarias3108/projeto-jus/internal/audit"
	"github.com/josefarias3108/projeto-jus/internal/config"
	"github.com/josefarias3108/projeto-jus/internal/export"
	"github.com/josefarias3108/projeto-jus/internal/extract"
	"github.com/josefarias3108/projeto-jus/internal/metrics"
	"github.com/josefarias3108/projeto-jus/internal/storage"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
	"github.com/josefarias3108/projeto-jus/internal/transformer/builtin"
)

// ErrDependency marks a table skipped because a table it references failed
// earlier in the run.
var ErrDependency = errors.New("dependency failed")

// Publisher ships committed files somewhere after the run. s3.Publisher
// implements it.
type Publisher interface {
	Publish(ctx context.Context, runID string, files []export.File) ([]string, error)
}

// Runner wires one run. Source, Audit and Stager are required.
type Runner struct {
	Config    config.Config
	Source    storage.Repository
	Audit     *audit.Logger
	Stager    *export.Stager
	Publisher Publisher // optional
	Verbose   bool
}

// TableResult is the outcome for one configured table.
type TableResult struct {
	Table  string
	Report *transformer.Report // nil when the table failed before validation
	File   export.File
	Err    error
	// Exceeded is set when the reject ratio is above
	// validation.max_reject_ratio. The table is still exported.
	Exceeded bool
}

// Failed reports whether the table needs attention.
func (t TableResult) Failed() bool { return t.Err != nil || t.Exceeded }

// Result summarizes a completed run.
type Result struct {
	RunID     string
	Tables    []TableResult
	Files     []export.File
	Published []string
	// Errors holds post-commit failures (workbook, publish) that did not
	// invalidate the committed extracts.
	Errors []error
}

// Failed reports whether any table failed or a post-commit step failed.
func (r Result) Failed() bool {
	if len(r.Errors) > 0 {
		return true
	}
	for _, t := range r.Tables {
		if t.Failed() {
			return true
		}
	}
	return false
}

// Rejected totals rejected rows across tables.
func (r Result) Rejected() int {
	n := 0
	for _, t := range r.Tables {
		if t.Report != nil {
			n += t.Report.Rejected
		}
	}
	return n
}

// fatalError aborts the run.
type fatalError struct {
	step string
	err  error
}

func (e *fatalError) Error() string { return e.step + ": " + e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Run executes the configured tables in order. A non-nil error means the run
// was aborted: nothing was committed and the staged files were removed.
// Table-level failures do not abort; they are reported in Result.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.Config
	res := Result{RunID: r.Audit.RunID()}
	started := time.Now()

	if _, err := r.Audit.Log(ctx, audit.Record{
		Action:  audit.ActionStart,
		Details: fmt.Sprintf("job=%s source=%s tables=%d", cfg.Job, r.Source.Dialect().Name(), len(cfg.Tables)),
	}); err != nil {
		return res, fmt.Errorf("audit: %w", err)
	}
	log.Printf("run %s: started job=%s tables=%d", res.RunID, cfg.Job, len(cfg.Tables))

	ext := extract.New(r.Source)
	needed := referencedKeys(cfg.Tables)
	keySets := map[string]transformer.KeySet{}
	failed := map[string]bool{}
	var staged []*transformer.Table

	for _, tc := range cfg.Tables {
		tr, t, err := r.runTable(ctx, ext, tc, keySets, failed)
		var fe *fatalError
		if errors.As(err, &fe) {
			return res, r.abort(ctx, err)
		}
		if err != nil {
			tr.Err = err
			failed[tc.Name] = true
			log.Printf("summary: table=%s status=error err=%v", tc.Name, err)
			metrics.RecordTable(cfg.Job, tc.Name, "error")
			if _, aerr := r.Audit.Log(ctx, audit.Record{
				Table:   tc.Name,
				Action:  audit.ActionError,
				Status:  audit.StatusError,
				Details: err.Error(),
			}); aerr != nil {
				return res, r.abort(ctx, &fatalError{"audit", aerr})
			}
			res.Tables = append(res.Tables, tr)
			continue
		}
		for _, key := range needed[tc.Name] {
			keySets[builtin.KeySetName(tc.Name, key)] = transformer.CollectKeys(t, key)
		}
		staged = append(staged, t)
		res.Tables = append(res.Tables, tr)
	}

	commitStart := time.Now()
	files, err := r.Stager.Commit()
	metrics.RecordStep(cfg.Job, "", "commit", err, time.Since(commitStart))
	if err != nil {
		return res, r.abort(ctx, &fatalError{"commit", err})
	}
	res.Files = files

	if path := cfg.WorkbookPath(); path != "" && len(staged) > 0 {
		if err := export.WriteWorkbook(path, staged); err != nil {
			res.Errors = append(res.Errors, err)
			r.logRunError(ctx, err)
		} else if r.Verbose {
			log.Printf("run %s: workbook %s", res.RunID, path)
		}
	}

	if r.Publisher != nil && len(files) > 0 {
		pubStart := time.Now()
		uris, err := r.Publisher.Publish(ctx, res.RunID, files)
		metrics.RecordStep(cfg.Job, "", "publish", err, time.Since(pubStart))
		res.Published = uris
		if err != nil {
			res.Errors = append(res.Errors, err)
			r.logRunError(ctx, err)
		}
	}

	nFailed := 0
	for _, t := range res.Tables {
		if t.Failed() {
			nFailed++
		}
	}
	status := audit.StatusSuccess
	switch {
	case res.Failed():
		status = audit.StatusError
	case res.Rejected() > 0:
		status = audit.StatusWarning
	}
	if _, err := r.Audit.Log(ctx, audit.Record{
		Action:       audit.ActionEnd,
		Status:       status,
		RowsExported: exportedRows(files),
		Rejected:     res.Rejected(),
		Details: fmt.Sprintf("tables=%d failed=%d files=%d duration=%s",
			len(res.Tables), nFailed, len(files), time.Since(started).Round(time.Millisecond)),
	}); err != nil {
		return res, fmt.Errorf("audit: %w", err)
	}
	log.Printf("summary: run=%s tables=%d failed=%d rejected=%d files=%d",
		res.RunID, len(res.Tables), nFailed, res.Rejected(), len(files))

	if err := r.writeReport(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// runTable extracts, validates and stages one table. Errors wrapped in
// fatalError abort the run; any other error fails only this table.
func (r *Runner) runTable(ctx context.Context, ext *extract.Extractor, tc config.Table,
	keySets map[string]transformer.KeySet, failed map[string]bool) (TableResult, *transformer.Table, error) {
	job := r.Config.Job
	tr := TableResult{Table: tc.Name}

	c, err := tc.Contract()
	if err != nil {
		return tr, nil, err
	}
	for _, ref := range c.References {
		if failed[ref.Table] {
			return tr, nil, fmt.Errorf("%s: %w: %s", c.Name, ErrDependency, ref.Table)
		}
	}

	start := time.Now()
	t, err := ext.Extract(ctx, c, tc.Query, tc.Args)
	metrics.RecordStep(job, c.Name, "extract", err, time.Since(start))
	if err != nil {
		if errors.Is(err, extract.ErrUnavailable) {
			return tr, nil, &fatalError{"extract", err}
		}
		return tr, nil, err
	}
	if r.Verbose {
		log.Printf("extract: table=%s rows=%d took=%s", c.Name, len(t.Rows), time.Since(start))
	}

	start = time.Now()
	rep := transformer.NewReport(c.Name, len(t.Rows), r.Config.Validation.SampleSize)
	chain, err := builtin.Standard(c, builtin.Options{
		DedupPolicy:  tc.DedupPolicy,
		PreferFields: tc.PreferFields,
		KeySets:      keySets,
	})
	if err != nil {
		metrics.RecordStep(job, c.Name, "validate", err, time.Since(start))
		return tr, nil, err
	}
	chain.Apply(t, rep)
	metrics.RecordStep(job, c.Name, "validate", nil, time.Since(start))
	tr.Report = rep
	tr.Exceeded = rep.Ratio() > r.Config.Validation.MaxRejectRatio

	vstatus := audit.StatusSuccess
	switch {
	case tr.Exceeded:
		vstatus = audit.StatusError
	case rep.Rejected > 0:
		vstatus = audit.StatusWarning
	}
	if _, err := r.Audit.Log(ctx, audit.Record{
		Table:         c.Name,
		Action:        audit.ActionValidation,
		Status:        vstatus,
		RowsExtracted: rep.Extracted,
		RowsExported:  len(t.Rows),
		Rejected:      rep.Rejected,
		NullsFound:    rep.NullsFound,
		NullsFilled:   rep.NullsFilled,
		Duplicates:    rep.Duplicates,
		Details:       validationDetails(rep, tr.Exceeded, r.Config.Validation.MaxRejectRatio),
	}); err != nil {
		return tr, nil, &fatalError{"audit", err}
	}
	if r.Verbose {
		for _, s := range rep.Samples {
			log.Printf("validate reject: table=%s line=%d stage=%s reason=%s raw=%v", c.Name, s.Line, s.Stage, s.Reason, s.Values)
		}
	}

	start = time.Now()
	f, err := r.Stager.Stage(t)
	metrics.RecordStep(job, c.Name, "stage", err, time.Since(start))
	if err != nil {
		return tr, nil, &fatalError{"stage", err}
	}
	tr.File = f

	if _, err := r.Audit.Log(ctx, audit.Record{
		Table:         c.Name,
		Action:        audit.ActionExtraction,
		RowsExtracted: rep.Extracted,
		RowsExported:  f.Rows,
		Rejected:      rep.Rejected,
		NullsFound:    rep.NullsFound,
		NullsFilled:   rep.NullsFilled,
		Duplicates:    rep.Duplicates,
		File:          f.Name,
		Checksum:      f.Checksum,
		Details:       fmt.Sprintf("bytes=%d", f.Bytes),
	}); err != nil {
		return tr, nil, &fatalError{"audit", err}
	}

	metrics.RecordRows(job, c.Name, "extracted", rep.Extracted)
	metrics.RecordRows(job, c.Name, "exported", f.Rows)
	metrics.RecordRows(job, c.Name, "rejected", rep.Rejected)
	metrics.RecordRows(job, c.Name, "duplicates", rep.Duplicates)
	metrics.RecordRows(job, c.Name, "nulls_found", rep.NullsFound)
	metrics.RecordRows(job, c.Name, "nulls_filled", rep.NullsFilled)
	metrics.RecordTable(job, c.Name, strings.ToLower(string(vstatus)))

	log.Printf("summary: table=%s extracted=%d exported=%d rejected=%d duplicates=%d nulls_found=%d nulls_filled=%d",
		c.Name, rep.Extracted, f.Rows, rep.Rejected, rep.Duplicates, rep.NullsFound, rep.NullsFilled)
	if tr.Exceeded {
		log.Printf("summary: table=%s reject ratio %.3f exceeds %.3f", c.Name, rep.Ratio(), r.Config.Validation.MaxRejectRatio)
	}
	return tr, t, nil
}

// abort discards staged files and records the fatal error. The context may
// already be cancelled, so audit writes use a detached one.
func (r *Runner) abort(ctx context.Context, err error) error {
	r.Stager.Discard()
	log.Printf("run %s: aborted: %v", r.Audit.RunID(), err)
	actx := context.WithoutCancel(ctx)
	if _, aerr := r.Audit.Log(actx, audit.Record{
		Action:  audit.ActionError,
		Status:  audit.StatusError,
		Details: "fatal: " + err.Error(),
	}); aerr != nil {
		log.Printf("audit: cannot record fatal error: %v", aerr)
		return err
	}
	if rerr := r.writeReport(actx); rerr != nil {
		log.Printf("audit: %v", rerr)
	}
	return err
}

func (r *Runner) logRunError(ctx context.Context, err error) {
	log.Printf("run %s: %v", r.Audit.RunID(), err)
	if _, aerr := r.Audit.Log(ctx, audit.Record{
		Action:  audit.ActionError,
		Status:  audit.StatusError,
		Details: err.Error(),
	}); aerr != nil {
		log.Printf("audit: %v", aerr)
	}
}

func (r *Runner) writeReport(ctx context.Context) error {
	path := r.Config.ReportPath()
	if path == "" {
		return nil
	}
	recs, err := r.Audit.Records(ctx)
	if err != nil {
		return fmt.Errorf("audit report: %w", err)
	}
	if err := audit.WriteReport(path, recs); err != nil {
		return fmt.Errorf("audit report: %w", err)
	}
	if r.Verbose {
		log.Printf("run %s: audit report %s (%d records)", r.Audit.RunID(), path, len(recs))
	}
	return nil
}

// referencedKeys maps each table to the key columns other tables reference.
func referencedKeys(tables []config.Table) map[string][]string {
	out := map[string][]string{}
	for _, tc := range tables {
		c, err := tc.Contract()
		if err != nil {
			continue
		}
		for _, ref := range c.References {
			if !contains(out[ref.Table], ref.Key) {
				out[ref.Table] = append(out[ref.Table], ref.Key)
			}
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func validationDetails(rep *transformer.Report, exceeded bool, limit float64) string {
	var parts []string
	if s := rep.Summary(); s != "" {
		parts = append(parts, s)
	}
	for _, s := range rep.Samples {
		parts = append(parts, fmt.Sprintf("line %d: %s %v", s.Line, s.Reason, s.Values))
	}
	if exceeded {
		parts = append(parts, fmt.Sprintf("reject ratio %.3f above %.3f", rep.Ratio(), limit))
	}
	return strings.Join(parts, "; ")
}

func exportedRows(files []export.File) int {
	n := 0
	for _, f := range files {
		n += f.Rows
	}
	return n
}
