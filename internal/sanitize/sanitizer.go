// Package sanitize turns untrusted, OCR-derived receipt line items into
// SanitizedItems fit for the price index, or rejects them with a stable
// reason. Rejection is a routine, high-frequency outcome here, so it is
// modeled as a result value, never as an error: one bad line must not abort
// a receipt, and callers decide what to surface.
//
// The per-item pipeline short-circuits on first failure:
//
//  1. garbage filter (empty, too short, noise shapes)
//  2. discount/system-line filter (with product-size guard)
//  3. regional-language translation (Lingala/Swahili → French pivot)
//  4. name cleaning (codes/sizes stripped, OCR repair, casing, fallback)
//  5. quantity sign handling (returns)
//  6. price validation (hard bounds reject/clamp, typical ranges warn)
//  7. category normalization onto the closed enum
//  8. key re-normalization from the final cleaned name
//
// A Sanitizer has no mutable state and is safe for concurrent use; the
// hosting model schedules many receipts in parallel.
package sanitize

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/normalize"
)

// UnknownItemName is the sentinel display name used when a line's price data
// is worth keeping but its name could not be repaired.
const UnknownItemName = "Article non identifié"

// Options configures a Sanitizer for one receipt.
type Options struct {
	// Currency selects the hard price bounds (e.g. "USD", "CDF").
	Currency string
	// StrictMode rejects out-of-bounds prices instead of clamping them.
	StrictMode bool
	// AllowReturns keeps negative quantities for lines that textually
	// indicate a return; otherwise quantities are absolute-valued.
	AllowReturns bool
}

// Result is the outcome of sanitizing a single item: either a valid
// SanitizedItem or a rejection reason, plus non-fatal warnings either way.
type Result struct {
	Valid    bool
	Item     domain.SanitizedItem
	Reason   string
	Warnings []string
}

// RejectedItem pairs an input name with the reason it was dropped.
type RejectedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report is the outcome of a batch run: surviving items (deduplicated within
// the receipt), rejected lines, and human-readable notes about what was
// modified along the way.
type Report struct {
	Valid    []domain.SanitizedItem `json:"valid_items"`
	Rejected []RejectedItem         `json:"invalid_items"`
	Notes    []string               `json:"modifications,omitempty"`
}

// Sanitizer applies the cleaning pipeline. Stateless; construct once per
// receipt with the receipt's options.
type Sanitizer struct {
	opts   Options
	bounds priceBounds
	caser  cases.Caser
}

// New returns a Sanitizer for the given options. An empty currency falls
// back to permissive default bounds.
func New(opts Options) *Sanitizer {
	return &Sanitizer{
		opts:   opts,
		bounds: boundsFor(opts.Currency),
		caser:  cases.Title(language.French),
	}
}

// Sanitize runs the full per-item pipeline. It never panics and never
// returns an error: every input yields either a valid item or a reason.
func (s *Sanitizer) Sanitize(item domain.RawItem) Result {
	var warnings []string

	// 1. Garbage filter.
	if bad, reason := isGarbage(item.Name); bad {
		return Result{Reason: reason}
	}

	// 2. Discount / system-line filter.
	if isSystemLine(item.Name) {
		return Result{Reason: ReasonSystemLine}
	}

	// 3. Regional-language translation. A translated name is already canonical
	// French and skips cleaning; title-casing would mangle it.
	name := item.Name
	if translated, ok := translateRegional(name); ok {
		warnings = append(warnings, fmt.Sprintf("translated %q to %q", name, translated))
		name = translated
	} else {
		// 4. Name cleaning.
		name = s.cleanName(name)
		if name == UnknownItemName {
			warnings = append(warnings, fmt.Sprintf("unrecoverable name %q, kept as unknown item", item.Name))
		}
	}

	// 5. Quantity sign handling.
	qty := item.Quantity
	isReturn := false
	if qty < 0 {
		if s.opts.AllowReturns && indicatesReturn(item.Name) {
			isReturn = true
		} else {
			qty = math.Abs(qty)
		}
	}
	if qty == 0 {
		qty = 1
	}

	// 6. Price validation.
	price := item.UnitPrice
	if price <= 0 || !s.bounds.contains(price) {
		if s.opts.StrictMode || price <= 0 {
			return Result{Reason: ReasonInvalidPrice}
		}
		clamped := s.bounds.clamp(price)
		warnings = append(warnings, fmt.Sprintf("price %.2f clamped to %.2f", price, clamped))
		price = clamped
	}

	// 8. Key re-normalization happens on the final cleaned name.
	key := normalize.Key(name)
	if key == "" {
		name = UnknownItemName
		key = normalize.Key(name)
	}
	if warn := checkTypicalRange(key, s.opts.Currency, price); warn != "" {
		warnings = append(warnings, warn)
	}

	total := item.TotalPrice
	if total == 0 {
		total = price * math.Abs(qty)
	}

	return Result{
		Valid: true,
		Item: domain.SanitizedItem{
			Name:           name,
			NameNormalized: key,
			Quantity:       qty,
			UnitPrice:      price,
			TotalPrice:     total,
			Unit:           strings.TrimSpace(item.Unit),
			Category:       normalizeCategory(item.Category), // 7
			Confidence:     item.Confidence,
			IsReturn:       isReturn,
		},
		Warnings: warnings,
	}
}

// SanitizeAll sanitizes a whole receipt and merges near-duplicate lines (the
// OCR engine regularly splits one physical line into two). The merge keeps
// total spend stable: quantities and totals are summed, unit prices
// averaged, and the better-looking name wins.
func (s *Sanitizer) SanitizeAll(items []domain.RawItem) Report {
	var rep Report
	for _, raw := range items {
		res := s.Sanitize(raw)
		rep.Notes = append(rep.Notes, res.Warnings...)
		if !res.Valid {
			rep.Rejected = append(rep.Rejected, RejectedItem{Name: raw.Name, Reason: res.Reason})
			continue
		}
		rep.Valid = append(rep.Valid, res.Item)
	}
	merged, notes := dedupeItems(rep.Valid, s.opts.Currency)
	rep.Valid = merged
	rep.Notes = append(rep.Notes, notes...)
	return rep
}

var (
	// embeddedCodeRE strips reference codes from display names.
	embeddedCodeRE = regexp.MustCompile(`(?i)\b(?:ref|sku|art|cod|code)\s*[:#.-]?\s*\d+\b|\b\d{5,}\b`)
	// embeddedSizeRE strips size tokens from display names; the size stays in
	// the raw text for matching but clutters the shown name.
	embeddedSizeRE = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:ml|cl|l|g|gr|kg|mg)\b`)
)

// cleanName strips codes and size tokens, repairs OCR damage, and title-cases
// the result. When the name still looks corrupted after one more
// reconstruction attempt, it falls back to the unknown-item sentinel: price
// data is still useful even with an imperfect name.
func (s *Sanitizer) cleanName(name string) string {
	name = embeddedCodeRE.ReplaceAllString(name, " ")
	name = normalize.CorrectOCR(name)
	display := embeddedSizeRE.ReplaceAllString(name, " ")
	display = strings.Join(strings.Fields(display), " ")
	if display == "" {
		display = name
	}
	display = s.caser.String(strings.ToLower(display))

	if !normalize.LooksCorrupted(normalize.Key(display)) {
		return display
	}
	repaired := normalize.CorrectOCR(display)
	if repaired != display && !normalize.LooksCorrupted(normalize.Key(repaired)) {
		return s.caser.String(strings.ToLower(repaired))
	}
	return UnknownItemName
}
