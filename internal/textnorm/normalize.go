// Package textnorm provides the diacritic- and punctuation-insensitive
// comparison primitive every advising component matches subjects and topics
// with.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and drops combining marks, so "Cálculo"
// and "Calculo" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s, removes diacritics, drops everything that is not
// a letter, digit or space, and trims surrounding whitespace. It is total
// (never fails) and idempotent; all subject/topic comparisons go through it.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the input.
		out = s
	}

	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.TrimSpace(b.String())
}

// Equivalent reports whether two strings are equal after normalization.
// Empty or blank strings are never considered equivalent to anything.
func Equivalent(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
