package sanitize

import (
	"math"
	"strings"
	"testing"

	"github.com/zandoapp/zando-backend/internal/domain"
)

func approxEq(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func hasNote(notes []string, frag string) bool {
	for _, n := range notes {
		if strings.Contains(n, frag) {
			return true
		}
	}
	return false
}

func TestSanitizeTranslatesRegionalName(t *testing.T) {
	s := New(Options{Currency: "USD"})
	res := s.Sanitize(domain.RawItem{Name: "pondu", Quantity: 1, UnitPrice: 2})
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.Item.Name != "Feuilles de manioc" {
		t.Errorf("Name = %q, want %q", res.Item.Name, "Feuilles de manioc")
	}
	if res.Item.NameNormalized != "feuilles de manioc" {
		t.Errorf("NameNormalized = %q", res.Item.NameNormalized)
	}
	if !hasNote(res.Warnings, "translated") {
		t.Errorf("expected translation warning, got %v", res.Warnings)
	}
}

func TestSanitizeStripsSizeFromDisplayName(t *testing.T) {
	s := New(Options{Currency: "CDF"})
	res := s.Sanitize(domain.RawItem{Name: "Primus 72cl", Quantity: 1, UnitPrice: 3500})
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.Item.Name != "Primus" {
		t.Errorf("Name = %q, want %q", res.Item.Name, "Primus")
	}
	if res.Item.NameNormalized != "primus" {
		t.Errorf("NameNormalized = %q, want %q", res.Item.NameNormalized, "primus")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
}

func TestSanitizeRejectsSystemLines(t *testing.T) {
	s := New(Options{Currency: "CDF"})
	for _, name := range []string{"TOTAL 4500", "TVA 16%", "REMISE -10%", "Paiement carte"} {
		res := s.Sanitize(domain.RawItem{Name: name, Quantity: 1, UnitPrice: 100})
		if res.Valid {
			t.Errorf("%q passed, want rejection", name)
			continue
		}
		if res.Reason != ReasonSystemLine {
			t.Errorf("%q reason = %q, want %q", name, res.Reason, ReasonSystemLine)
		}
	}
}

func TestSanitizeKeepsSizedProductDespiteKeyword(t *testing.T) {
	s := New(Options{Currency: "USD"})
	res := s.Sanitize(domain.RawItem{Name: "Lait UHT 1L", Quantity: 1, UnitPrice: 1.8})
	if !res.Valid {
		t.Fatalf("rejected sized product: %s", res.Reason)
	}
	if res.Item.Name != "Lait Uht" {
		t.Errorf("Name = %q", res.Item.Name)
	}
}

func TestSanitizeGarbageReasons(t *testing.T) {
	s := New(Options{Currency: "USD"})
	cases := []struct {
		name   string
		reason string
	}{
		{"", ReasonEmptyName},
		{"   ", ReasonEmptyName},
		{"###", ReasonGarbage},
		{"-----", ReasonGarbage},
		{"12345678901", ReasonGarbage},
		{"REF 10492", ReasonGarbage},
		{"A", ReasonNameTooShort},
	}
	for _, c := range cases {
		res := s.Sanitize(domain.RawItem{Name: c.name, Quantity: 1, UnitPrice: 5})
		if res.Valid {
			t.Errorf("%q passed, want rejection", c.name)
			continue
		}
		if res.Reason != c.reason {
			t.Errorf("%q reason = %q, want %q", c.name, res.Reason, c.reason)
		}
	}
}

func TestSanitizePriceBoundsStrictVsLenient(t *testing.T) {
	raw := domain.RawItem{Name: "Television", Quantity: 1, UnitPrice: 20_000}

	strict := New(Options{Currency: "USD", StrictMode: true}).Sanitize(raw)
	if strict.Valid || strict.Reason != ReasonInvalidPrice {
		t.Errorf("strict: valid=%v reason=%q, want invalid_price rejection", strict.Valid, strict.Reason)
	}

	lenient := New(Options{Currency: "USD"}).Sanitize(raw)
	if !lenient.Valid {
		t.Fatalf("lenient rejected: %s", lenient.Reason)
	}
	if !approxEq(lenient.Item.UnitPrice, 10_000) {
		t.Errorf("clamped price = %v, want 10000", lenient.Item.UnitPrice)
	}
	if !hasNote(lenient.Warnings, "clamped") {
		t.Errorf("expected clamp warning, got %v", lenient.Warnings)
	}
}

func TestSanitizeNonPositivePriceAlwaysRejects(t *testing.T) {
	for _, strict := range []bool{true, false} {
		s := New(Options{Currency: "USD", StrictMode: strict})
		for _, p := range []float64{0, -3.5} {
			res := s.Sanitize(domain.RawItem{Name: "Coca Cola", Quantity: 1, UnitPrice: p})
			if res.Valid || res.Reason != ReasonInvalidPrice {
				t.Errorf("strict=%v price=%v: valid=%v reason=%q", strict, p, res.Valid, res.Reason)
			}
		}
	}
}

func TestSanitizeReturnHandling(t *testing.T) {
	raw := domain.RawItem{Name: "Retour Coca 1L", Quantity: -1, UnitPrice: 1.5}

	allowed := New(Options{Currency: "USD", AllowReturns: true}).Sanitize(raw)
	if !allowed.Valid {
		t.Fatalf("rejected: %s", allowed.Reason)
	}
	if !allowed.Item.IsReturn || allowed.Item.Quantity != -1 {
		t.Errorf("IsReturn=%v Quantity=%v, want return with -1", allowed.Item.IsReturn, allowed.Item.Quantity)
	}

	denied := New(Options{Currency: "USD"}).Sanitize(raw)
	if !denied.Valid {
		t.Fatalf("rejected: %s", denied.Reason)
	}
	if denied.Item.IsReturn || denied.Item.Quantity != 1 {
		t.Errorf("IsReturn=%v Quantity=%v, want absolute quantity", denied.Item.IsReturn, denied.Item.Quantity)
	}

	// Negative quantity without any return wording is treated as OCR noise.
	noise := New(Options{Currency: "USD", AllowReturns: true}).
		Sanitize(domain.RawItem{Name: "Coca Cola", Quantity: -2, UnitPrice: 1.5})
	if !noise.Valid || noise.Item.IsReturn || noise.Item.Quantity != 2 {
		t.Errorf("noise: valid=%v IsReturn=%v Quantity=%v", noise.Valid, noise.Item.IsReturn, noise.Item.Quantity)
	}
}

func TestSanitizeZeroQuantityDefaultsToOne(t *testing.T) {
	s := New(Options{Currency: "USD"})
	res := s.Sanitize(domain.RawItem{Name: "Coca Cola", UnitPrice: 1.5})
	if !res.Valid || res.Item.Quantity != 1 {
		t.Fatalf("valid=%v Quantity=%v, want quantity 1", res.Valid, res.Item.Quantity)
	}
	if !approxEq(res.Item.TotalPrice, 1.5) {
		t.Errorf("TotalPrice = %v, want 1.5", res.Item.TotalPrice)
	}
}

func TestSanitizeUnrecoverableNameFallsBackToUnknown(t *testing.T) {
	s := New(Options{Currency: "USD"})
	res := s.Sanitize(domain.RawItem{Name: "xk2cd9fgh", Quantity: 1, UnitPrice: 3})
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.Item.Name != UnknownItemName {
		t.Errorf("Name = %q, want %q", res.Item.Name, UnknownItemName)
	}
	if !hasNote(res.Warnings, "unrecoverable") {
		t.Errorf("expected unrecoverable warning, got %v", res.Warnings)
	}
}

func TestSanitizeTypicalRangeWarns(t *testing.T) {
	s := New(Options{Currency: "USD"})
	res := s.Sanitize(domain.RawItem{Name: "Coca 1L", Quantity: 1, UnitPrice: 8})
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if !hasNote(res.Warnings, "typical range") {
		t.Errorf("expected typical-range warning, got %v", res.Warnings)
	}
}

func TestSanitizeAllMergesSplitLines(t *testing.T) {
	s := New(Options{Currency: "USD"})
	rep := s.SanitizeAll([]domain.RawItem{
		{Name: "Coca 1L", Quantity: 1, UnitPrice: 1.50},
		{Name: "Coca-Cola 1L", Quantity: 1, UnitPrice: 1.52},
	})
	if len(rep.Valid) != 1 {
		t.Fatalf("got %d items, want 1 merged: %+v", len(rep.Valid), rep.Valid)
	}
	it := rep.Valid[0]
	if it.Quantity != 2 {
		t.Errorf("Quantity = %v, want 2", it.Quantity)
	}
	if !approxEq(it.UnitPrice, 1.51) {
		t.Errorf("UnitPrice = %v, want 1.51", it.UnitPrice)
	}
	if it.Name != "Coca-Cola" {
		t.Errorf("Name = %q, want the fuller spelling", it.Name)
	}
	if it.NameNormalized != "coca cola" {
		t.Errorf("NameNormalized = %q", it.NameNormalized)
	}
	if !hasNote(rep.Notes, "merged duplicate") {
		t.Errorf("expected merge note, got %v", rep.Notes)
	}
}

func TestSanitizeAllKeepsDistinctPricesApart(t *testing.T) {
	s := New(Options{Currency: "USD"})
	rep := s.SanitizeAll([]domain.RawItem{
		{Name: "Coca 1L", Quantity: 1, UnitPrice: 1.50},
		{Name: "Coca-Cola 1L", Quantity: 1, UnitPrice: 3.00},
	})
	if len(rep.Valid) != 2 {
		t.Fatalf("got %d items, want 2 distinct: %+v", len(rep.Valid), rep.Valid)
	}
}

func TestSanitizeAllPreservesReceiptTotal(t *testing.T) {
	s := New(Options{Currency: "USD"})
	raw := []domain.RawItem{
		{Name: "Coca 1L", Quantity: 1, UnitPrice: 1.50},
		{Name: "Coca-Cola 1L", Quantity: 2, UnitPrice: 1.52},
		{Name: "Pain", Quantity: 1, UnitPrice: 0.80},
		{Name: "Sprite 330ml", Quantity: 1, UnitPrice: 1.20},
	}
	var want float64
	for _, r := range raw {
		qty := r.Quantity
		if qty == 0 {
			qty = 1
		}
		want += r.UnitPrice * qty
	}

	rep := s.SanitizeAll(raw)
	var got float64
	for _, it := range rep.Valid {
		got += it.TotalPrice
	}
	if !approxEq(got, want) {
		t.Errorf("sum of totals = %v, want %v", got, want)
	}
}

func TestSanitizeAllReportsRejections(t *testing.T) {
	s := New(Options{Currency: "CDF"})
	rep := s.SanitizeAll([]domain.RawItem{
		{Name: "Primus 72cl", Quantity: 1, UnitPrice: 3500},
		{Name: "TOTAL", Quantity: 1, UnitPrice: 3500},
		{Name: "###", Quantity: 1, UnitPrice: 100},
	})
	if len(rep.Valid) != 1 || len(rep.Rejected) != 2 {
		t.Fatalf("valid=%d rejected=%d, want 1/2", len(rep.Valid), len(rep.Rejected))
	}
	reasons := map[string]string{}
	for _, r := range rep.Rejected {
		reasons[r.Name] = r.Reason
	}
	if reasons["TOTAL"] != ReasonSystemLine {
		t.Errorf("TOTAL reason = %q", reasons["TOTAL"])
	}
	if reasons["###"] != ReasonGarbage {
		t.Errorf("### reason = %q", reasons["###"])
	}
}

func TestDedupeRespectsReturnFlag(t *testing.T) {
	items := []domain.SanitizedItem{
		{Name: "Coca Cola", NameNormalized: "coca cola", Quantity: 1, UnitPrice: 1.5, TotalPrice: 1.5},
		{Name: "Coca Cola", NameNormalized: "coca cola", Quantity: -1, UnitPrice: 1.5, TotalPrice: 1.5, IsReturn: true},
	}
	out, _ := dedupeItems(items, "USD")
	if len(out) != 2 {
		t.Fatalf("got %d items, want sale and return kept apart", len(out))
	}
}
