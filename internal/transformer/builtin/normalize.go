// Package builtin contains the validation transformers applied to every
// extracted table.
package builtin

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// Normalize cleans text values: non-breaking spaces become plain spaces, the
// text is put in Unicode NFC form and trimmed, and blank strings become null.
// Null cells are counted into Report.NullsFound after cleaning.
type Normalize struct{}

var nbsp = runes.Map(func(r rune) rune {
	if r == '\u00a0' {
		return ' '
	}
	return r
})

func (Normalize) Apply(t *transformer.Table, rep *transformer.Report) {
	tr := transform.Chain(nbsp, norm.NFC)
	for _, r := range t.Rows {
		for i, v := range r.V {
			switch s := v.(type) {
			case string:
				r.V[i] = cleanText(tr, s)
			case []byte:
				r.V[i] = cleanText(tr, string(s))
			}
			if r.V[i] == nil {
				rep.NullsFound++
			}
		}
	}
}

func cleanText(tr transform.Transformer, s string) any {
	if out, _, err := transform.String(tr, s); err == nil {
		s = out
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
