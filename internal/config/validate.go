package config

import (
	"fmt"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer/builtin"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding worth surfacing that does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "source.kind",
// "tables[4].references[1].table").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var knownSourceKinds = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
	"sqlite":   {},
}

// ValidateConfig performs static validation of c without touching any
// database. Table rules are checked against the contracts they resolve to, so
// a reference to a table that is not extracted earlier in the same run is
// caught here rather than as a run of orphan rejections.
func ValidateConfig(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{SeverityError, "job", "job must not be empty; it labels metrics and log lines"})
	}
	issues = append(issues, validateSource(c.Source)...)
	issues = append(issues, validateTables(c.Tables)...)
	issues = append(issues, validateValidation(c.Validation)...)
	issues = append(issues, validateAudit(c.Audit)...)
	issues = append(issues, validateOutput(c.Output)...)
	issues = append(issues, validatePublish(c.Publish)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	}
	if _, ok := knownSourceKinds[s.Kind]; !ok {
		issues = append(issues, Issue{SeverityWarning, "source.kind",
			fmt.Sprintf("unknown source kind %q; ensure a matching backend is registered", s.Kind)})
		return issues
	}
	if _, err := s.ResolveDSN(); err != nil {
		issues = append(issues, Issue{SeverityError, "source.dsn", err.Error()})
	}
	return issues
}

func validateTables(ts []Table) []Issue {
	var issues []Issue
	if len(ts) == 0 {
		return append(issues, Issue{SeverityError, "tables", "no tables configured; nothing to extract"})
	}

	// fields of every table seen so far, for reference checks
	seen := map[string]schema.Contract{}
	for i, t := range ts {
		base := fmt.Sprintf("tables[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			issues = append(issues, Issue{SeverityError, base + ".name", "table name must not be empty"})
			continue
		}
		if _, dup := seen[t.Name]; dup {
			issues = append(issues, Issue{SeverityError, base + ".name",
				fmt.Sprintf("table %q is configured more than once", t.Name)})
			continue
		}
		c, err := t.Contract()
		if err != nil {
			issues = append(issues, Issue{SeverityError, base + ".fields", err.Error()})
			continue
		}
		issues = append(issues, validateContract(base, c, seen)...)
		if !builtin.ValidPolicy(t.DedupPolicy) {
			issues = append(issues, Issue{SeverityError, base + ".dedup_policy",
				fmt.Sprintf("unsupported dedup policy %q; use %s, %s or %s", t.DedupPolicy, builtin.KeepFirst, builtin.KeepLast, builtin.MostComplete)})
		}
		for j, f := range t.PreferFields {
			if c.Index(f) < 0 {
				issues = append(issues, Issue{SeverityError, fmt.Sprintf("%s.prefer_fields[%d]", base, j),
					fmt.Sprintf("unknown column %q", f)})
			}
		}
		seen[t.Name] = c
	}
	return issues
}

func validateContract(base string, c schema.Contract, earlier map[string]schema.Contract) []Issue {
	var issues []Issue
	names := map[string]struct{}{}
	for j, f := range c.Fields {
		p := fmt.Sprintf("%s.fields[%d]", base, j)
		key := strings.ToLower(f.Name)
		if _, dup := names[key]; dup {
			issues = append(issues, Issue{SeverityError, p + ".name", fmt.Sprintf("duplicate column %q", f.Name)})
		}
		names[key] = struct{}{}
		if !schema.KnownKind(f.Type) {
			issues = append(issues, Issue{SeverityError, p + ".type", fmt.Sprintf("unsupported type %q", f.Type)})
		}
	}

	if len(c.KeyColumns) == 0 {
		issues = append(issues, Issue{SeverityWarning, base + ".key_columns",
			"no key columns; only exact duplicate rows will be removed"})
	}
	for j, k := range c.KeyColumns {
		if c.Index(k) < 0 {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("%s.key_columns[%d]", base, j),
				fmt.Sprintf("unknown column %q", k)})
		}
	}

	for j, r := range c.References {
		p := fmt.Sprintf("%s.references[%d]", base, j)
		if c.Index(r.Column) < 0 {
			issues = append(issues, Issue{SeverityError, p + ".column", fmt.Sprintf("unknown column %q", r.Column)})
		}
		dim, ok := earlier[r.Table]
		if !ok {
			issues = append(issues, Issue{SeverityError, p + ".table",
				fmt.Sprintf("table %q is not extracted before %s", r.Table, c.Name)})
			continue
		}
		if dim.Index(r.Key) < 0 {
			issues = append(issues, Issue{SeverityError, p + ".key",
				fmt.Sprintf("table %q has no column %q", r.Table, r.Key)})
		}
	}

	if _, err := builtin.NewDefaults(c); err != nil {
		issues = append(issues, Issue{SeverityError, base + ".defaults", err.Error()})
	}
	return issues
}

func validateValidation(v Validation) []Issue {
	var issues []Issue
	if v.SampleSize < 0 {
		issues = append(issues, Issue{SeverityError, "validation.sample_size", "sample_size must not be negative"})
	}
	if v.MaxRejectRatio < 0 || v.MaxRejectRatio > 1 {
		issues = append(issues, Issue{SeverityError, "validation.max_reject_ratio",
			fmt.Sprintf("max_reject_ratio=%g; must be within [0, 1]", v.MaxRejectRatio)})
	}
	return issues
}

func validateAudit(a Audit) []Issue {
	var issues []Issue
	switch a.Kind {
	case AuditDB:
		if strings.TrimSpace(a.Table) == "" {
			issues = append(issues, Issue{SeverityError, "audit.table", "audit.table must not be empty for kind db"})
		}
	case AuditFile:
	default:
		issues = append(issues, Issue{SeverityError, "audit.kind",
			fmt.Sprintf("unsupported audit kind %q; use %q or %q", a.Kind, AuditDB, AuditFile)})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{SeverityError, "output.dir", "output.dir must not be empty"})
	}
	if o.Report == "" {
		issues = append(issues, Issue{SeverityWarning, "output.report", "no audit report will be written"})
	}
	if o.XLSX != "" && !strings.HasSuffix(strings.ToLower(o.XLSX), ".xlsx") {
		issues = append(issues, Issue{SeverityWarning, "output.xlsx", "workbook name does not end in .xlsx"})
	}
	return issues
}

func validatePublish(p Publish) []Issue {
	var issues []Issue
	s := p.S3
	if !s.Enabled() {
		return issues
	}
	if s.Region == "" && s.Endpoint == "" {
		issues = append(issues, Issue{SeverityWarning, "publish.s3.region",
			"no region or endpoint; relying on the ambient AWS configuration"})
	}
	if (s.AccessKeyID == "") != (s.SecretAccessKey == "") {
		issues = append(issues, Issue{SeverityError, "publish.s3",
			"LEGALBI_S3_ACCESS_KEY_ID and LEGALBI_S3_SECRET_ACCESS_KEY must be set together"})
	}
	return issues
}
