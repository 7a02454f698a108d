// Price plausibility checks. Hard bounds are per-currency constants and part
// of the external contract; typical-price ranges are a soft signal only
// because the table can never be complete.
package sanitize

import (
	"fmt"
	"strings"
)

// priceBounds is the hard plausibility window for one currency.
type priceBounds struct {
	Min float64
	Max float64
}

// currencyBounds holds the hard per-currency price windows. A congolese-franc
// receipt legitimately carries seven-digit prices; a dollar receipt does not.
var currencyBounds = map[string]priceBounds{
	"USD": {Min: 0.01, Max: 10_000},
	"EUR": {Min: 0.01, Max: 10_000},
	"CDF": {Min: 50, Max: 50_000_000},
}

// defaultBounds applies when the currency is unknown; wide enough to accept
// anything either supported currency would.
var defaultBounds = priceBounds{Min: 0.01, Max: 50_000_000}

// boundsFor returns the hard bounds for a currency code.
func boundsFor(currency string) priceBounds {
	if b, ok := currencyBounds[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return b
	}
	return defaultBounds
}

// typicalRange is a soft expectation for a product family, keyed by a
// normalized-name prefix. Violations warn; they never reject, because the
// table is necessarily incomplete.
type typicalRange struct {
	Currency string
	Min      float64
	Max      float64
}

var typicalRanges = map[string]typicalRange{
	"coca":    {Currency: "USD", Min: 0.30, Max: 5},
	"sprite":  {Currency: "USD", Min: 0.30, Max: 5},
	"fanta":   {Currency: "USD", Min: 0.30, Max: 5},
	"eau":     {Currency: "USD", Min: 0.20, Max: 4},
	"pain":    {Currency: "USD", Min: 0.10, Max: 6},
	"riz":     {Currency: "USD", Min: 0.50, Max: 60},
	"huile":   {Currency: "USD", Min: 0.80, Max: 40},
	"lait":    {Currency: "USD", Min: 0.50, Max: 25},
	"sucre":   {Currency: "USD", Min: 0.40, Max: 30},
	"savon":   {Currency: "USD", Min: 0.20, Max: 15},
	"primus":  {Currency: "CDF", Min: 1_500, Max: 10_000},
	"skol":    {Currency: "CDF", Min: 1_500, Max: 10_000},
	"fufu":    {Currency: "CDF", Min: 500, Max: 100_000},
	"makemba": {Currency: "CDF", Min: 500, Max: 50_000},
}

// checkTypicalRange returns a warning when a price falls outside the known
// typical window for the product family, or "" when no table entry applies
// or the price looks normal.
func checkTypicalRange(nameKey, currency string, price float64) string {
	first := nameKey
	if i := strings.IndexByte(nameKey, ' '); i > 0 {
		first = nameKey[:i]
	}
	tr, ok := typicalRanges[first]
	if !ok || !strings.EqualFold(tr.Currency, currency) {
		return ""
	}
	if price < tr.Min || price > tr.Max {
		return fmt.Sprintf("price %.2f %s outside typical range [%.2f, %.2f] for %q",
			price, currency, tr.Min, tr.Max, first)
	}
	return ""
}

// clamp pins a price inside the hard bounds.
func (b priceBounds) clamp(p float64) float64 {
	if p < b.Min {
		return b.Min
	}
	if p > b.Max {
		return b.Max
	}
	return p
}

// contains reports whether p is inside the hard bounds.
func (b priceBounds) contains(p float64) bool {
	return p >= b.Min && p <= b.Max
}
