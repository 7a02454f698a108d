// OCR-error correction. Receipt OCR output is not arbitrary noise: the same
// few corruption shapes recur: digit/letter confusion inside size fields,
// spurious spaces inserted mid-token, brand names glued together. A small
// ordered rule table covers these shapes, stays auditable, and is trivially
// extensible when a new shop's printer introduces a new misread.
package normalize

import (
	"regexp"
	"strings"
)

// vocabRepairs fixes known brand/vocabulary misreads before any structural
// work. Patterns run in order against the lower-cased input; all matches are
// replaced.
var vocabRepairs = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bmijito\b`), "mojito"},
	{regexp.MustCompile(`\bc0ca\b`), "coca"},
	{regexp.MustCompile(`\bco1a\b`), "cola"},
	{regexp.MustCompile(`\bsprlte\b`), "sprite"},
	{regexp.MustCompile(`\bfanla\b`), "fanta"},
	{regexp.MustCompile(`\bpr1mus\b`), "primus"},
	{regexp.MustCompile(`\bsk0l\b`), "skol"},
	{regexp.MustCompile(`\bnestl[e3]\b`), "nestle"},
	{regexp.MustCompile(`\bmaggl\b`), "maggi"},
	{regexp.MustCompile(`\bhulle\b`), "huile"},
	{regexp.MustCompile(`\blalt\b`), "lait"},
}

// confusableDigits maps glyphs the OCR engine reads in place of digits.
// The repair only fires inside size tokens (glyph + 2 digits + unit suffix),
// so ordinary words are never touched.
var confusableDigits = map[byte]byte{
	's': '5', 'a': '4', 'e': '3', 'o': '0', 'l': '1', 'i': '1',
}

// sizeGlyphRE matches a confusable glyph immediately followed by a two-digit
// number and a known unit suffix, tolerating OCR-inserted spaces inside the
// unit ("e30 m l", "s00ml", "a00 gr").
var sizeGlyphRE = regexp.MustCompile(`(?i)\b([saeoli])(\d{2})\s*(m\s*l|c\s*l|k\s*g|m\s*g|g\s*r|g|l)\b`)

// explodedSizeRE matches an ordinary numeric size whose unit got exploded
// into single letters ("330 m l" → "330ml").
var explodedSizeRE = regexp.MustCompile(`(?i)\b(\d{2,4})\s*(m\s+l|c\s+l|k\s+g|m\s+g|g\s+r)\b`)

// splitLeadRE matches a single leading letter the OCR split off its word
// ("S prite …" → "Sprite …").
var splitLeadRE = regexp.MustCompile(`^\s*([A-Za-z])\s+(\p{Ll}{3,})\b`)

// gluedBrands rebuilds brand names the OCR concatenated without spaces.
var gluedBrands = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bcocacola\b`), "Coca Cola"},
	{regexp.MustCompile(`(?i)\bfantaorange\b`), "Fanta Orange"},
	{regexp.MustCompile(`(?i)\beaumineral[e]?\b`), "Eau Minerale"},
	{regexp.MustCompile(`(?i)\blaitconcentre\b`), "Lait Concentre"},
}

// CorrectOCR repairs recurring OCR corruption in a receipt line. It applies,
// in order: vocabulary repairs, size-token glyph repair, then the structural
// reconstruction rules (first matching rule wins). Unrecognized input passes
// through unchanged; the function never fails.
//
// "S prite e30 m l" → "Sprite 330ml".
func CorrectOCR(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	text = applyVocabRepairs(text)
	text = repairSizeTokens(text)
	text = reconstruct(text)
	return strings.Join(strings.Fields(text), " ")
}

func applyVocabRepairs(text string) string {
	lower := strings.ToLower(text)
	changed := false
	for _, v := range vocabRepairs {
		if v.re.MatchString(lower) {
			lower = v.re.ReplaceAllString(lower, v.repl)
			changed = true
		}
	}
	if !changed {
		return text
	}
	// Vocabulary repair loses the original casing; the sanitizer re-cases
	// display names afterwards, so lower-case output is acceptable here.
	return lower
}

func repairSizeTokens(text string) string {
	return sizeGlyphRE.ReplaceAllStringFunc(text, func(tok string) string {
		m := sizeGlyphRE.FindStringSubmatch(tok)
		glyph := strings.ToLower(m[1])[0]
		digit, ok := confusableDigits[glyph]
		if !ok {
			return tok
		}
		unit := strings.ToLower(strings.Join(strings.Fields(m[3]), ""))
		return string(digit) + m[2] + unit
	})
}

// reconstruction rules, ordered; the first whose pattern matches is applied
// and the rest are skipped.
var reconstructionRules = []struct {
	match   *regexp.Regexp
	rebuild func(string) string
}{
	{
		match: splitLeadRE,
		rebuild: func(s string) string {
			return splitLeadRE.ReplaceAllStringFunc(s, func(tok string) string {
				m := splitLeadRE.FindStringSubmatch(tok)
				return m[1] + m[2]
			})
		},
	},
	{
		match: explodedSizeRE,
		rebuild: func(s string) string {
			return explodedSizeRE.ReplaceAllStringFunc(s, func(tok string) string {
				m := explodedSizeRE.FindStringSubmatch(tok)
				unit := strings.ToLower(strings.Join(strings.Fields(m[2]), ""))
				return m[1] + unit
			})
		},
	},
	{
		match: regexp.MustCompile(`(?i)\b(cocacola|fantaorange|eaumineral[e]?|laitconcentre)\b`),
		rebuild: func(s string) string {
			for _, g := range gluedBrands {
				s = g.re.ReplaceAllString(s, g.repl)
			}
			return s
		},
	},
}

func reconstruct(text string) string {
	for _, r := range reconstructionRules {
		if r.match.MatchString(text) {
			return r.rebuild(text)
		}
	}
	return text
}

// LooksCorrupted reports whether a cleaned display name still shows OCR
// damage: a long run of consonants with no vowel, digits embedded mid-word,
// or single stray letters scattered through the string. The sanitizer uses
// this to decide between reconstruction and the unknown-item fallback.
func LooksCorrupted(name string) bool {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return true
	}

	stray := 0
	for _, f := range fields {
		if len(f) == 1 && f[0] >= 'a' && f[0] <= 'z' {
			stray++
			continue
		}
		if consonantRunRE.MatchString(strings.ToLower(f)) {
			return true
		}
		if midWordDigitRE.MatchString(f) && !sizeTokenRE.MatchString(strings.ToLower(f)) {
			return true
		}
	}
	// More than half the tokens being stray single letters means the word was
	// exploded beyond what the reconstruction rules recognize.
	return stray*2 > len(fields)
}

var (
	consonantRunRE = regexp.MustCompile(`[bcdfghjklmnpqrstvwxz]{5,}`)
	midWordDigitRE = regexp.MustCompile(`\p{L}\d+\p{L}`)
	sizeTokenRE    = regexp.MustCompile(`^\d+(ml|cl|l|g|gr|kg|mg)$`)
)
