package transformer

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultSampleSize is how many rejected rows a Report keeps when the caller
// does not say otherwise.
const DefaultSampleSize = 5

// Rejection describes one excluded row.
type Rejection struct {
	Line   int    `json:"line"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
	Values []any  `json:"values"`
}

// Report aggregates row-level validation outcomes for one table. Row failures
// never abort a run; they are tallied here instead.
type Report struct {
	Table       string
	Extracted   int
	NullsFound  int
	NullsFilled int
	Duplicates  int // exact duplicate rows dropped
	Rejected    int // rows excluded by a rule
	Reasons     map[string]int
	Samples     []Rejection

	sampleSize int
}

// NewReport returns an empty report for a table with extracted source rows.
// sampleSize <= 0 selects DefaultSampleSize.
func NewReport(table string, extracted, sampleSize int) *Report {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Report{
		Table:      table,
		Extracted:  extracted,
		Reasons:    map[string]int{},
		sampleSize: sampleSize,
	}
}

// Reject records that row was excluded at stage for reason. The caller is
// responsible for removing the row from the table.
func (r *Report) Reject(row *Row, stage, reason string) {
	r.Rejected++
	r.Reasons[reason]++
	if len(r.Samples) < r.sampleSize {
		vals := append([]any(nil), row.V...)
		r.Samples = append(r.Samples, Rejection{Line: row.Line, Stage: stage, Reason: reason, Values: vals})
	}
}

// Ratio is the share of extracted rows that were rejected.
func (r *Report) Ratio() float64 {
	if r.Extracted == 0 {
		return 0
	}
	return float64(r.Rejected) / float64(r.Extracted)
}

// Summary renders the reasons as "reason=n" pairs sorted by descending count
// then reason, e.g. "null required column id_juiz=2; orphan id_pessoa=1".
func (r *Report) Summary() string {
	if len(r.Reasons) == 0 {
		return ""
	}
	keys := make([]string, 0, len(r.Reasons))
	for k := range r.Reasons {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if r.Reasons[keys[i]] != r.Reasons[keys[j]] {
			return r.Reasons[keys[i]] > r.Reasons[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, r.Reasons[k])
	}
	return strings.Join(parts, "; ")
}
