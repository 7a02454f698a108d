package repo

import (
	"context"
	"testing"
	"time"

	"github.com/zandoapp/zando-backend/internal/domain"
)

func TestIndexStats(t *testing.T) {
	db := newRepoDB(t, &domain.PricePoint{})
	ctx := context.Background()

	count, max, err := IndexStats(ctx, db)
	if err != nil || count != 0 || max != nil {
		t.Fatalf("empty index: count=%d max=%v err=%v", count, max, err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		pp := point("riz", "kin marche", "Kin Marché", 10000, base.Add(time.Duration(i)*time.Hour))
		if err := InsertPricePoint(ctx, db, pp); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, max, err = IndexStats(ctx, db)
	if err != nil {
		t.Fatalf("IndexStats: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	if max == nil || !max.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("expected max %v, got %v", base.Add(2*time.Hour), max)
	}
}

func TestStoreStats(t *testing.T) {
	db := newRepoDB(t, &domain.PricePoint{})
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for _, pp := range []*domain.PricePoint{
		point("riz", "kin marche", "Kin Marché", 10000, base),
		point("sucre", "kin marche", "Kin Marché", 5000, base.Add(time.Hour)),
		point("riz", "shoprite", "Shoprite", 9500, base.Add(2*time.Hour)),
	} {
		if err := InsertPricePoint(ctx, db, pp); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, max, err := StoreStats(ctx, db, "kin marche")
	if err != nil {
		t.Fatalf("StoreStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows for store, got %d", count)
	}
	if max == nil || !max.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected max %v, got %v", base.Add(time.Hour), max)
	}

	count, max, err = StoreStats(ctx, db, "absent")
	if err != nil || count != 0 || max != nil {
		t.Fatalf("absent store: count=%d max=%v err=%v", count, max, err)
	}
}
