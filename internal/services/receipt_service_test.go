package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/repo"
)

func newReceiptService(t *testing.T) (*ReceiptService, *captureNotifier) {
	t.Helper()
	db := newTestDB(t)
	n := &captureNotifier{}
	return &ReceiptService{
		DB:              db,
		Prices:          NewPriceService(db, nil),
		Compare:         NewCompareService(db, nil),
		Monitor:         newTestMonitor(db, n),
		Log:             zerolog.Nop(),
		DefaultCurrency: "CDF",
	}, n
}

func TestIngest_EmptyAndInvalid(t *testing.T) {
	svc, _ := newReceiptService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, "u1", IngestInput{StoreName: "Kin Marché"}); !errors.Is(err, ErrEmptyReceipt) {
		t.Fatalf("expected ErrEmptyReceipt, got %v", err)
	}

	_, err := svc.Ingest(ctx, "u1", IngestInput{
		StoreName: "Kin Marché",
		Currency:  "GBP",
		Items:     []domain.RawItem{{Name: "Primus", Quantity: 1, UnitPrice: 3500}},
	})
	if !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency, got %v", err)
	}

	// Only garbage lines: the result still carries the rejection reasons.
	res, err := svc.Ingest(ctx, "u1", IngestInput{
		StoreName: "Kin Marché",
		Items: []domain.RawItem{
			{Name: "TOTAL", Quantity: 1, UnitPrice: 9000},
			{Name: "###", Quantity: 1, UnitPrice: 100},
		},
	})
	if !errors.Is(err, ErrNoValidItems) {
		t.Fatalf("expected ErrNoValidItems, got %v", err)
	}
	if res == nil || len(res.Rejected) != 2 {
		t.Fatalf("expected per-item rejection reasons, got %+v", res)
	}
}

func TestIngest_FullPipeline(t *testing.T) {
	svc, _ := newReceiptService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, "u1", IngestInput{
		StoreName: "Kin Marché",
		City:      "Kinshasa",
		Currency:  "cdf",
		Items: []domain.RawItem{
			{Name: "Primus 72cl", Quantity: 2, UnitPrice: 3500, TotalPrice: 7000, Category: "Boissons"},
			{Name: "TVA 16%", Quantity: 1, UnitPrice: 1120},
			{Name: "pondu", Quantity: 1, UnitPrice: 2000},
		},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Currency != "CDF" {
		t.Fatalf("currency not normalized: %+v", res)
	}
	if res.ReceiptID == "" {
		t.Fatal("expected generated receipt ID")
	}
	if len(res.Items) != 2 || len(res.Rejected) != 1 {
		t.Fatalf("expected 2 valid + 1 rejected, got %d/%d", len(res.Items), len(res.Rejected))
	}
	// Regional name translated to the canonical French form.
	var sawTranslation bool
	for _, it := range res.Items {
		if it.Name == "Feuilles de manioc" {
			sawTranslation = true
		}
	}
	if !sawTranslation {
		t.Fatalf("pondu should surface as Feuilles de manioc: %+v", res.Items)
	}

	if res.Upserts == nil || res.Upserts.Created != 2 {
		t.Fatalf("expected 2 created products, got %+v", res.Upserts)
	}
	if len(res.Comparisons) != 2 {
		t.Fatalf("expected one comparison per item, got %d", len(res.Comparisons))
	}
	for _, c := range res.Comparisons {
		if c.PotentialSavings != 0 {
			t.Fatalf("fresh products cannot have savings: %+v", c)
		}
	}
}

func TestIngest_ReplayedUploadSkips(t *testing.T) {
	svc, _ := newReceiptService(t)
	ctx := context.Background()

	in := IngestInput{
		StoreName: "Kin Marché",
		City:      "Kinshasa",
		Items: []domain.RawItem{
			{Name: "Primus 72cl", Quantity: 1, UnitPrice: 3500, TotalPrice: 3500},
		},
	}
	if _, err := svc.Ingest(ctx, "u1", in); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := svc.Ingest(ctx, "u1", in)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Upserts.Skipped != 1 || res.Upserts.Created != 0 {
		t.Fatalf("identical re-upload must skip, got %+v", res.Upserts)
	}
}

func TestIngest_PriceDropNotifiesWatcher(t *testing.T) {
	svc, n := newReceiptService(t)
	ctx := context.Background()

	// u2 watches Primus in Kinshasa.
	watch := &domain.WatchedItem{
		UserID:             "u2",
		ItemNameNormalized: "primus",
		ItemName:           "Primus",
		City:               "Kinshasa",
		AlertType:          domain.AlertAnyDrop,
		BaselinePrice:      4000,
		LastNotifiedPrice:  4000,
		IsActive:           true,
	}
	if err := repo.CreateWatch(ctx, svc.DB, watch); err != nil {
		t.Fatalf("seed watch: %v", err)
	}

	// First receipt establishes the price; no prior minimum, no drop.
	if _, err := svc.Ingest(ctx, "u1", IngestInput{
		StoreName: "Kin Marché", City: "Kinshasa",
		Items: []domain.RawItem{{Name: "Primus 72cl", Quantity: 1, UnitPrice: 4000, TotalPrice: 4000}},
	}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if n.count() != 0 {
		t.Fatal("first observation must not notify")
	}

	// A cheaper observation elsewhere fires the watch.
	if _, err := svc.Ingest(ctx, "u3", IngestInput{
		StoreName: "Shoprite", City: "Kinshasa",
		Items: []domain.RawItem{{Name: "Primus 72cl", Quantity: 1, UnitPrice: 3500, TotalPrice: 3500}},
	}); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if n.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", n.count())
	}
	if n.sent[0].Data.NewPrice != 3500 || n.sent[0].Data.StoreName != "Shoprite" {
		t.Fatalf("payload wrong: %+v", n.sent[0])
	}
}
