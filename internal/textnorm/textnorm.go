// Package textnorm folds model output to plain ASCII.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String decomposes s (NFKD), drops every code point without a plain-ASCII
// form and trims surrounding whitespace. It never fails: if the transform
// errors, s is returned unchanged.
func String(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(nonASCII)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

// Value normalizes strings and passes every other value through.
func Value(v any) any {
	if s, ok := v.(string); ok {
		return String(s)
	}
	return v
}

func nonASCII(r rune) bool {
	return r > unicode.MaxASCII
}
