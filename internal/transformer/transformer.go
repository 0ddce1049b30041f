// Package transformer holds the in-memory table model the validator works on
// and the Transformer contract implemented by package builtin.
package transformer

import "github.com/josefarias3108/projeto-jus/internal/schema"

// Row is one extracted record. V is aligned to the table contract's fields.
// Line is the 1-based position in the extraction result and is what rejection
// samples refer to.
type Row struct {
	Line int
	V    []any
}

// Table is an extracted table: its contract and the rows still in play.
type Table struct {
	Contract schema.Contract
	Rows     []*Row
}

// Keep retains the rows for which fn returns true, preserving order.
func (t *Table) Keep(fn func(*Row) bool) {
	out := t.Rows[:0]
	for _, r := range t.Rows {
		if fn(r) {
			out = append(out, r)
		}
	}
	for i := len(out); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = out
}

// Transformer rewrites or filters a table in place and records what it did
// in rep.
type Transformer interface {
	Apply(t *Table, rep *Report)
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order.
func (c Chain) Apply(t *Table, rep *Report) {
	for _, tr := range c {
		tr.Apply(t, rep)
	}
}
