package transformer

import (
	"fmt"
	"strings"
	"time"
)

// keySep joins composite key parts; it cannot appear in normalized text.
const keySep = '\x1f'

// KeySet is the set of key values present in a cleaned table.
type KeySet map[string]struct{}

// Has reports whether v is in the set.
func (s KeySet) Has(v any) bool {
	_, ok := s[KeyString(v)]
	return ok
}

// CollectKeys returns the values of column across the rows of t. Columns are
// matched case-insensitively; an unknown column yields an empty set.
func CollectKeys(t *Table, column string) KeySet {
	set := KeySet{}
	idx := t.Contract.Index(column)
	if idx < 0 {
		return set
	}
	for _, r := range t.Rows {
		if v := r.V[idx]; v != nil {
			set[KeyString(v)] = struct{}{}
		}
	}
	return set
}

// KeyString renders a canonical value for use in map keys.
func KeyString(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}

// CompositeKey joins the values at idxs into a single map key.
func CompositeKey(r *Row, idxs []int) string {
	var b strings.Builder
	for i, idx := range idxs {
		if i > 0 {
			b.WriteByte(keySep)
		}
		b.WriteString(KeyString(r.V[idx]))
	}
	return b.String()
}
