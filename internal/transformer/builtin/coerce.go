package builtin

import (
	"fmt"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Coerce converts every value to its field's canonical type. A row with any
// value that does not convert is rejected.
type Coerce struct{}

func (Coerce) Apply(t *transformer.Table, rep *transformer.Report) {
	fields := t.Contract.Fields
	t.Keep(func(r *transformer.Row) bool {
		for i, f := range fields {
			v, err := schema.Parse(f, r.V[i])
			if err != nil {
				rep.Reject(r, "coerce", fmt.Sprintf("invalid %s in %s", f.Kind(), f.Name))
				return false
			}
			r.V[i] = v
		}
		return true
	})
}
