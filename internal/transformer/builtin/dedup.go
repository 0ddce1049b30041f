package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Dedup policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup removes duplicates in two passes.
//
// Rows identical in every column are exact duplicates: all but the first are
// dropped and counted in Report.Duplicates, as they carry no information.
//
// Rows that differ but share the natural key (Keys, or the contract's key
// columns when Keys is empty) are conflicts. One winner per key is chosen by
// Policy and the others are rejected:
//
//   - "keep-first"   : keep the earliest occurrence (default)
//   - "keep-last"    : keep the latest occurrence
//   - "most-complete": keep the row with the most non-null values, weighted
//     by PreferFields; ties break by keep-first
//
// Output keeps the winners in their original relative order.
type DeDup struct {
	Keys         []string
	Policy       string
	PreferFields []string
}

// ValidPolicy reports whether p names a supported policy; "" is accepted and
// means keep-first.
func ValidPolicy(p string) bool {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "", KeepFirst, KeepLast, MostComplete:
		return true
	}
	return false
}

func (d DeDup) Apply(t *transformer.Table, rep *transformer.Report) {
	if len(t.Rows) == 0 {
		return
	}

	all := make([]int, len(t.Contract.Fields))
	for i := range all {
		all[i] = i
	}
	seen := make(map[string]struct{}, len(t.Rows))
	t.Keep(func(r *transformer.Row) bool {
		k := transformer.CompositeKey(r, all)
		if _, dup := seen[k]; dup {
			rep.Duplicates++
			return false
		}
		seen[k] = struct{}{}
		return true
	})

	keys := d.Keys
	if len(keys) == 0 {
		keys = t.Contract.KeyColumns
	}
	idxs := make([]int, 0, len(keys))
	for _, k := range keys {
		if i := t.Contract.Index(k); i >= 0 {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = KeepFirst
	}
	prefer := make(map[int]struct{}, len(d.PreferFields))
	for _, f := range d.PreferFields {
		if i := t.Contract.Index(f); i >= 0 {
			prefer[i] = struct{}{}
		}
	}
	scoreOf := func(r *transformer.Row) int {
		score, bonus := 0, 0
		for i, v := range r.V {
			if v == nil {
				continue
			}
			score++
			if _, ok := prefer[i]; ok {
				bonus++
			}
		}
		return score*10 + bonus
	}

	type slot struct {
		index int
		score int
	}
	winners := make(map[string]slot, len(t.Rows))
	for i, r := range t.Rows {
		key := transformer.CompositeKey(r, idxs)
		prev, exists := winners[key]
		switch policy {
		case KeepLast:
			winners[key] = slot{index: i}
		case MostComplete:
			s := slot{index: i, score: scoreOf(r)}
			if !exists || s.score > prev.score {
				winners[key] = s
			}
		default:
			if !exists {
				winners[key] = slot{index: i}
			}
		}
	}

	win := make([]bool, len(t.Rows))
	for _, s := range winners {
		win[s.index] = true
	}
	var losers []*transformer.Row
	kept := make([]*transformer.Row, 0, len(winners))
	for i, r := range t.Rows {
		if win[i] {
			kept = append(kept, r)
		} else {
			losers = append(losers, r)
		}
	}
	// Report conflicts in source order regardless of policy.
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].Line < losers[j].Line })
	for _, r := range losers {
		rep.Reject(r, "dedup", fmt.Sprintf("duplicate key %s", strings.Join(keys, ",")))
	}
	t.Rows = kept
}
