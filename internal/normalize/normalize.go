// Package normalize folds free text into a canonical comparable form.
//
// Pipeline: drop invalid UTF-8, NFKC, Unicode case folding, strip format
// characters, fold fullwidth forms, collapse whitespace runs and trim.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Fold returns the canonical form of s. Fold("  Joe's  CAFE ") == "joe's cafe".
func Fold(s string) string {
	s = strings.ToValidUTF8(s, "")
	if strings.TrimSpace(s) == "" {
		return ""
	}

	tr := chainPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		folded = strings.ToLower(s)
	}

	return strings.Join(strings.Fields(folded), " ")
}
