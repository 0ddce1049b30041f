package storage

import "strings"

// Dialect captures the few syntax differences the pipeline cares about.
type Dialect interface {
	// Name is the storage kind, e.g. "postgres".
	Name() string
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent(id string) string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder(n int) string
}

// QuoteQualified quotes a possibly schema-qualified name such as
// "public.fato_processos" segment by segment.
func QuoteQualified(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, d.QuoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}

// QuoteAll quotes every identifier in ids.
func QuoteAll(d Dialect, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = d.QuoteIdent(id)
	}
	return out
}
