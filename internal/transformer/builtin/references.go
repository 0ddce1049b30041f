package builtin

import (
	"fmt"

	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// References rejects rows whose foreign key does not resolve to a key of the
// referenced dimension. KeySets maps a table name to the cleaned key set of
// that table's referenced column, as built by transformer.CollectKeys.
// A reference whose table has no key set is skipped; callers check
// dependencies before running the chain.
type References struct {
	KeySets map[string]transformer.KeySet
}

// KeySetName is the KeySets map key for table.key.
func KeySetName(table, key string) string { return table + "." + key }

func (rf References) Apply(t *transformer.Table, rep *transformer.Report) {
	type check struct {
		idx    int
		set    transformer.KeySet
		reason string
	}
	var checks []check
	for _, ref := range t.Contract.References {
		idx := t.Contract.Index(ref.Column)
		set, ok := rf.KeySets[KeySetName(ref.Table, ref.Key)]
		if idx < 0 || !ok {
			continue
		}
		checks = append(checks, check{
			idx:    idx,
			set:    set,
			reason: fmt.Sprintf("orphan %s -> %s.%s", ref.Column, ref.Table, ref.Key),
		})
	}
	if len(checks) == 0 {
		return
	}
	t.Keep(func(r *transformer.Row) bool {
		for _, c := range checks {
			v := r.V[c.idx]
			if v == nil {
				continue
			}
			if !c.set.Has(v) {
				rep.Reject(r, "references", c.reason)
				return false
			}
		}
		return true
	})
}
