// In-receipt duplicate merging. OCR regularly emits one physical product
// line as two receipt lines with slightly different spellings and near-equal
// prices ("Coca 1L" / "Coca-Cola 1L"). Merging happens per receipt, in
// memory, before anything reaches the price index.
package sanitize

import (
	"fmt"
	"strings"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/normalize"
)

// mergeTolerance is the price window inside which two lines of the same
// product group are considered one physical line: max(10% of the larger
// price, one currency unit).
func mergeTolerance(a, b float64) float64 {
	larger := a
	if b > larger {
		larger = b
	}
	tol := 0.10 * larger
	if tol < 1 {
		tol = 1
	}
	return tol
}

// sameProductKey reports whether two normalized keys identify the same
// product despite OCR spacing differences: equal keys, or one compact key
// being a prefix of the other ("coca" vs "cocacola").
func sameProductKey(a, b string) bool {
	if a == b {
		return true
	}
	ca := strings.ReplaceAll(a, " ", "")
	cb := strings.ReplaceAll(b, " ", "")
	if len(ca) < 3 || len(cb) < 3 {
		return false
	}
	return strings.HasPrefix(ca, cb) || strings.HasPrefix(cb, ca)
}

// dedupeItems merges near-duplicate sanitized lines. Within a product group,
// items whose unit prices sit inside the merge tolerance are combined:
// quantities and total prices are summed (keeping receipt totals stable),
// unit prices averaged, and the better-looking name kept; a name containing
// a space beats a concatenated one.
func dedupeItems(items []domain.SanitizedItem, currency string) ([]domain.SanitizedItem, []string) {
	if len(items) < 2 {
		return items, nil
	}

	var (
		out   []domain.SanitizedItem
		notes []string
	)
	used := make([]bool, len(items))

	for i := range items {
		if used[i] {
			continue
		}
		acc := items[i]
		mergedCount := 1

		for j := i + 1; j < len(items); j++ {
			if used[j] {
				continue
			}
			cand := items[j]
			if !sameProductKey(acc.NameNormalized, cand.NameNormalized) {
				continue
			}
			if acc.IsReturn != cand.IsReturn {
				continue
			}
			diff := acc.UnitPrice - cand.UnitPrice
			if diff < 0 {
				diff = -diff
			}
			if diff > mergeTolerance(acc.UnitPrice, cand.UnitPrice) {
				continue
			}

			// Weighted-average unit price so repeated merges stay stable.
			n := float64(mergedCount)
			acc.UnitPrice = (acc.UnitPrice*n + cand.UnitPrice) / (n + 1)
			acc.Quantity += cand.Quantity
			acc.TotalPrice += cand.TotalPrice
			acc.Name = betterName(acc.Name, cand.Name)
			acc.NameNormalized = normalize.Key(acc.Name)
			if cand.Confidence > acc.Confidence {
				acc.Confidence = cand.Confidence
			}
			used[j] = true
			mergedCount++
			notes = append(notes, fmt.Sprintf("merged duplicate line %q into %q", cand.Name, acc.Name))
		}
		used[i] = true
		out = append(out, acc)
	}
	return out, notes
}

// betterName prefers a spaced name over a concatenated one, then the longer
// of the two.
func betterName(a, b string) string {
	aSpaced := strings.Contains(strings.TrimSpace(a), " ")
	bSpaced := strings.Contains(strings.TrimSpace(b), " ")
	switch {
	case aSpaced && !bSpaced:
		return a
	case bSpaced && !aSpaced:
		return b
	case len(b) > len(a):
		return b
	default:
		return a
	}
}
