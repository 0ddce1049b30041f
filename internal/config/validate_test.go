package config

import (
	"strings"
	"testing"

	"github.com/josefarias3108/projeto-jus/internal/schema"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validConfig() Config {
	c := Default()
	c.Source = Source{Kind: "sqlite", DSN: "file:juridico.db", Params: Options{}}
	return c
}

func TestValidateConfig_DefaultsWithSourceAreClean(t *testing.T) {
	t.Parallel()

	issues := ValidateConfig(validConfig())
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateConfig_DefaultSourceNeedsConnection(t *testing.T) {
	t.Parallel()

	issues := ValidateConfig(Default())
	if !hasIssue(t, issues, SeverityError, "source.dsn", "params.host") {
		t.Fatalf("expected source.dsn error, got %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false")
	}
}

func TestValidateConfig_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityError, "job", "must not be empty"},
		{"unknown source kind", func(c *Config) { c.Source.Kind = "oracle" }, SeverityWarning, "source.kind", "unknown source kind"},
		{"no tables", func(c *Config) { c.Tables = nil }, SeverityError, "tables", "no tables"},
		{"duplicate table", func(c *Config) { c.Tables = append(c.Tables, Table{Name: schema.TableJuiz}) },
			SeverityError, "tables[5].name", "more than once"},
		{"fact before its dimensions", func(c *Config) {
			c.Tables = []Table{{Name: schema.TableProcessos}, {Name: schema.TablePessoa}}
		}, SeverityError, "tables[0].references[0].table", "not extracted before"},
		{"bad dedup policy", func(c *Config) { c.Tables[0].DedupPolicy = "random" }, SeverityError, "tables[0].dedup_policy", "unsupported dedup policy"},
		{"unknown prefer field", func(c *Config) { c.Tables[0].PreferFields = []string{"nope"} }, SeverityError, "tables[0].prefer_fields[0]", "unknown column"},
		{"default on required column", func(c *Config) { c.Tables[0].Defaults = map[string]string{"nome": "x"} },
			SeverityError, "tables[0].defaults", "required column"},
		{"unknown key column", func(c *Config) { c.Tables[1].KeyColumns = []string{"oab_id"} }, SeverityError, "tables[1].key_columns[0]", "unknown column"},
		{"no key columns", func(c *Config) { c.Tables[1].KeyColumns = []string{} }, SeverityWarning, "tables[1].key_columns", "exact duplicate"},
		{"unsupported field type", func(c *Config) {
			c.Tables[2].Fields = []schema.Field{{Name: "id_juiz", Type: "uuid"}}
		}, SeverityError, "tables[2].fields[0].type", "unsupported type"},
		{"custom table without fields", func(c *Config) { c.Tables = append(c.Tables, Table{Name: "dim_vara"}) },
			SeverityError, "tables[5].fields", "no fields configured"},
		{"ratio out of range", func(c *Config) { c.Validation.MaxRejectRatio = 1.5 }, SeverityError, "validation.max_reject_ratio", "within [0, 1]"},
		{"negative sample", func(c *Config) { c.Validation.SampleSize = -1 }, SeverityError, "validation.sample_size", "negative"},
		{"bad audit kind", func(c *Config) { c.Audit.Kind = "kafka" }, SeverityError, "audit.kind", "unsupported audit kind"},
		{"db audit without table", func(c *Config) { c.Audit.Table = "" }, SeverityError, "audit.table", "must not be empty"},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }, SeverityError, "output.dir", "must not be empty"},
		{"no report", func(c *Config) { c.Output.Report = "" }, SeverityWarning, "output.report", "no audit report"},
		{"half of the s3 keys", func(c *Config) {
			c.Publish.S3.Bucket = "extracts"
			c.Publish.S3.AccessKeyID = "AKIA"
		}, SeverityError, "publish.s3", "set together"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tt.mutate(&c)
			issues := ValidateConfig(c)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "output.dir", Message: "output.dir must not be empty"}
	if got, want := iss.Error(), "error at output.dir: output.dir must not be empty"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
