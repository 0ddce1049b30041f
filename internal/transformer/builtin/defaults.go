package builtin

import (
	"fmt"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Defaults fills nulls in optional columns with fixed values. Required
// columns are never filled; a null there is a rejection, not a repair.
type Defaults struct {
	values map[int]any
}

// NewDefaults parses the contract's default texts into canonical values.
func NewDefaults(c schema.Contract) (Defaults, error) {
	d := Defaults{values: map[int]any{}}
	for col, text := range c.Defaults {
		idx := c.Index(col)
		if idx < 0 {
			return Defaults{}, fmt.Errorf("default for unknown column %s.%s", c.Name, col)
		}
		f := c.Fields[idx]
		if f.Required {
			return Defaults{}, fmt.Errorf("default for required column %s.%s", c.Name, col)
		}
		v, err := schema.Parse(f, text)
		if err != nil {
			return Defaults{}, fmt.Errorf("default for %s.%s: %w", c.Name, col, err)
		}
		d.values[idx] = v
	}
	return d, nil
}

func (d Defaults) Apply(t *transformer.Table, rep *transformer.Report) {
	if len(d.values) == 0 {
		return
	}
	for _, r := range t.Rows {
		for idx, v := range d.values {
			if r.V[idx] == nil {
				r.V[idx] = v
				rep.NullsFilled++
			}
		}
	}
}
