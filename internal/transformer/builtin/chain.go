package builtin

import (
	"fmt"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Options tunes the standard chain for one table.
type Options struct {
	DedupPolicy  string
	PreferFields []string
	KeySets      map[string]transformer.KeySet
}

// Standard builds the validation chain in its fixed order: Normalize, Coerce,
// Defaults, Require, Enum, DeDup, References.
func Standard(c schema.Contract, opt Options) (transformer.Chain, error) {
	if !ValidPolicy(opt.DedupPolicy) {
		return nil, fmt.Errorf("%s: unsupported dedup policy %q", c.Name, opt.DedupPolicy)
	}
	defaults, err := NewDefaults(c)
	if err != nil {
		return nil, err
	}
	return transformer.Chain{
		Normalize{},
		Coerce{},
		defaults,
		Require{},
		Enum{},
		DeDup{Keys: c.KeyColumns, Policy: opt.DedupPolicy, PreferFields: opt.PreferFields},
		References{KeySets: opt.KeySets},
	}, nil
}
