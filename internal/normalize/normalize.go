// Package normalize provides the canonical text key used to join product
// names across receipts and stores, plus the OCR-error corrector that runs
// before key generation. It is intentionally small and deterministic:
//
//   - No logging in the library (callers decide how/what to log)
//   - Pure, total functions: every input yields a string, never an error
//   - Unicode-aware folding via golang.org/x/text (NFD + combining-mark strip)
//   - Idempotent: Key(Key(s)) == Key(s) for all s
//
// Two strings with the same key are candidate-identical; an empty key means
// the input had no usable characters and the caller must decide what to do.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks (accents), and
// recomposes. "Crème" → "Creme", "maïs" → "mais".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key canonicalizes a raw product or store name into the comparison key:
// lower-cased, accents stripped, every character outside [a-z0-9] folded to a
// space, internal whitespace collapsed, trimmed. Possibly empty for
// all-garbage input.
func Key(s string) string {
	s = strings.ToLower(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CompactKey is Key with the spaces removed. Useful for prefix checks where
// OCR may have split or joined words ("coca cola" vs "cocacola").
func CompactKey(s string) string {
	return strings.ReplaceAll(Key(s), " ", "")
}
