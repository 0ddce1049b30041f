package builtin

import (
	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Enum rejects rows whose value falls outside a field's allowed set. Values
// are compared on their exact exported text; nulls are left to Require.
type Enum struct{}

func (Enum) Apply(t *transformer.Table, rep *transformer.Report) {
	type check struct {
		idx   int
		field schema.Field
		set   map[string]struct{}
	}
	var checks []check
	for i, f := range t.Contract.Fields {
		if len(f.Enum) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(f.Enum))
		for _, s := range f.Enum {
			set[s] = struct{}{}
		}
		checks = append(checks, check{idx: i, field: f, set: set})
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
			if _, ok := c.set[schema.Format(c.field, v)]; !ok {
				rep.Reject(r, "enum", "value outside enum in "+c.field.Name)
				return false
			}
		}
		return true
	})
}
