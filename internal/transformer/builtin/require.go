package builtin

import "github.com/josefarias3108/projeto-jus/internal/transformer"

// Require rejects any row missing a value for a required field.
type Require struct{}

func (Require) Apply(t *transformer.Table, rep *transformer.Report) {
	fields := t.Contract.Fields
	t.Keep(func(r *transformer.Row) bool {
		for i, f := range fields {
			if f.Required && r.V[i] == nil {
				rep.Reject(r, "require", "null required column "+f.Name)
				return false
			}
		}
		return true
	})
}
