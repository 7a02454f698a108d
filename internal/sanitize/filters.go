// Garbage and system-line detection. These filters run first in the
// sanitization pipeline: anything they reject never reaches the price index.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Rejection reasons reported per item. Stable strings: the mobile app keys
// user-facing copy off them.
const (
	ReasonEmptyName    = "empty_name"
	ReasonNameTooShort = "name_too_short"
	ReasonGarbage      = "garbage_line"
	ReasonSystemLine   = "system_line"
	ReasonInvalidPrice = "invalid_price"
)

var (
	// barcodeRE: long digit runs are barcodes or ticket numbers, not products.
	barcodeRE = regexp.MustCompile(`^\s*\d{8,}\s*$`)
	// punctOnlyRE: separator lines like "-----" or "****".
	punctOnlyRE = regexp.MustCompile(`^[\s\p{P}\p{S}]+$`)
	// skuRE: reference/SKU codes ("REF 10492", "SKU#2231", "ART:49").
	skuRE = regexp.MustCompile(`(?i)^\s*(?:sku|ref|art|cod|code)\s*[:#.-]?\s*\d+\s*$`)

	// systemLineRE: totals, tax, payment and discount lines that belong to the
	// receipt frame rather than to any product.
	systemLineRE = regexp.MustCompile(`(?i)\b(?:sous[- ]?total|sub[- ]?total|total|montant|tva|taxe?|tax|remise|rabais|discount|promo(?:tion)?|paiement|payment|espe?ces|cash|carte|card|visa|mastercard|m-?pesa|airtel\s*money|orange\s*money|change|monnaie|rendu|solde|balance|ticket|facture|invoice)\b`)
	// percentDiscountRE: "-10%", "REMISE 5 %".
	percentDiscountRE = regexp.MustCompile(`-?\s*\d+(?:[.,]\d+)?\s*%`)

	// productSizeRE guards against false positives: a line carrying a real
	// size token ("Lait UHT 1L") is a product even if a fragment of it also
	// matches a tax keyword.
	productSizeRE = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:ml|cl|l|g|gr|kg|mg|pcs?|x\d+)\b`)
)

// isGarbage classifies obviously unusable lines: empty, too short, mostly
// non-alphabetic, or matching a known noise shape.
func isGarbage(name string) (bool, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return true, ReasonEmptyName
	}
	if barcodeRE.MatchString(trimmed) || punctOnlyRE.MatchString(trimmed) || skuRE.MatchString(trimmed) {
		return true, ReasonGarbage
	}

	letters, others := 0, 0
	for _, r := range trimmed {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			others++
		}
	}
	if letters < 2 {
		return true, ReasonNameTooShort
	}
	if others > letters {
		return true, ReasonGarbage
	}
	return false, ""
}

// isSystemLine reports whether the line is part of the receipt frame
// (total/tax/payment/discount). Lines that also look like a sized product
// are kept: "Lait UHT 1L" must not be mistaken for a tax line.
func isSystemLine(name string) bool {
	if productSizeRE.MatchString(name) {
		return false
	}
	return systemLineRE.MatchString(name) || percentDiscountRE.MatchString(name)
}

// indicatesReturn reports whether the line text marks a returned item.
func indicatesReturn(name string) bool {
	return returnRE.MatchString(name)
}

var returnRE = regexp.MustCompile(`(?i)\b(?:retour|rembours(?:e|ement)?|annul(?:e|ation)?|refund|return)\b`)
