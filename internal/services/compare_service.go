// Package services – CompareService
//
// This file implements CompareService, the read side of the price index. It
// answers the per-receipt "where is this cheaper" question with one
// PriceComparison per item, and offers a fuzzy browsing mode that lists the
// latest price of similar products at every store.
package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/match"
	"github.com/zandoapp/zando-backend/internal/normalize"
	"github.com/zandoapp/zando-backend/internal/repo"
	"github.com/zandoapp/zando-backend/internal/sanitize"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CompareService computes price comparisons and cross-store alternatives.
type CompareService struct {
	DB     *gorm.DB
	Scorer *match.Scorer

	// Window restricts aggregation to recent observations. Zero means all
	// history.
	Window time.Duration
}

// NewCompareService constructs a CompareService with the default scorer and
// unlimited history.
func NewCompareService(db *gorm.DB, scorer *match.Scorer) *CompareService {
	if scorer == nil {
		scorer = match.NewScorer()
	}
	return &CompareService{DB: db, Scorer: scorer}
}

// StoreAlternative is one "similar product elsewhere" row returned by
// FindSimilarAcrossStores: the latest price of a fuzzy-matched product at
// one store, with the match score for ranking.
type StoreAlternative struct {
	ProductNameNormalized string    `json:"product_name_normalized"`
	DisplayName           string    `json:"display_name"`
	StoreName             string    `json:"store_name"`
	Price                 float64   `json:"price"`
	Currency              string    `json:"currency"`
	RecordedAt            time.Time `json:"recorded_at"`
	MatchScore            float64   `json:"match_score"`
}

// Compare builds one PriceComparison per item against the index. Known
// products are prefetched in one batched lookup; only those hit the stats
// aggregation. Items with no history degenerate to the current price being
// simultaneously best and average with zero savings, so callers never branch
// on missing data.
func (s *CompareService) Compare(ctx context.Context, items []domain.SanitizedItem, store domain.StoreContext) ([]domain.PriceComparison, error) {
	tr := otel.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "Compare",
		trace.WithAttributes(
			attribute.String("store", store.StoreNameNormalized),
			attribute.Int("items", len(items)),
		),
	)
	defer span.End()

	since := time.Time{}
	if s.Window > 0 {
		since = time.Now().UTC().Add(-s.Window)
	}

	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.NameNormalized)
	}
	products, err := repo.FindProductsByKeys(ctx, s.DB, keys)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PriceComparison, 0, len(items))
	for _, it := range items {
		product, known := products[it.NameNormalized]
		if !known {
			// No canonical product means no history to aggregate.
			out = append(out, buildComparison(it, store, &repo.PriceStats{}))
			continue
		}
		stats, err := repo.StatsForProduct(ctx, s.DB, it.NameNormalized, store.Currency, since)
		if err != nil {
			return nil, err
		}
		c := buildComparison(it, store, stats)
		c.DisplayName = product.DisplayName
		out = append(out, c)
	}
	return out, nil
}

// buildComparison derives the savings figures for one item.
func buildComparison(it domain.SanitizedItem, store domain.StoreContext, stats *repo.PriceStats) domain.PriceComparison {
	c := domain.PriceComparison{
		ItemName:       it.Name,
		NameNormalized: it.NameNormalized,
		Quantity:       it.Quantity,
		CurrentPrice:   it.UnitPrice,
		CurrentStore:   store.StoreName,
	}

	if stats.SampleSize == 0 {
		// Degenerate comparison: the current observation is the only data.
		c.MinPrice = it.UnitPrice
		c.AveragePrice = it.UnitPrice
		c.BestStore = store.StoreName
		return c
	}

	c.MinPrice = stats.MinPrice
	c.AveragePrice = stats.AveragePrice
	c.BestStore = stats.BestStore
	c.SampleSize = stats.SampleSize

	if diff := it.UnitPrice - stats.MinPrice; diff > 0 {
		c.PotentialSavings = diff * it.Quantity
		if it.UnitPrice > 0 {
			c.SavingsPercentage = diff / it.UnitPrice * 100
		}
	}
	return c
}

// FindSimilarAcrossStores relaxes exact-key matching: it fuzzy-matches the
// query against every canonical product and returns the latest price of each
// match at every store, ordered best match first, then cheapest.
func (s *CompareService) FindSimilarAcrossStores(ctx context.Context, queryKey, currency string) ([]StoreAlternative, error) {
	tr := otel.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "FindSimilarAcrossStores",
		trace.WithAttributes(attribute.String("query", queryKey)),
	)
	defer span.End()

	keys, err := repo.ListProductKeys(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	ranked := s.Scorer.Rank(queryKey, keys)

	out := make([]StoreAlternative, 0)
	for _, cand := range ranked {
		if cand.Score < s.Scorer.Threshold() {
			break
		}
		product, err := repo.GetProductByKey(ctx, s.DB, cand.Key)
		if err != nil {
			return nil, err
		}
		points, err := repo.LatestPricesPerStore(ctx, s.DB, cand.Key, currency)
		if err != nil {
			return nil, err
		}
		for _, pp := range points {
			out = append(out, StoreAlternative{
				ProductNameNormalized: pp.ProductNameNormalized,
				DisplayName:           product.DisplayName,
				StoreName:             pp.StoreName,
				Price:                 pp.Price,
				Currency:              pp.Currency,
				RecordedAt:            pp.RecordedAt,
				MatchScore:            cand.Score,
			})
		}
	}
	span.SetAttributes(attribute.Int("alternatives", len(out)))
	return out, nil
}

// CompareInput is a shopping list to price against the index without
// recording anything.
type CompareInput struct {
	StoreName string
	City      string
	Currency  string
	Items     []domain.RawItem
}

// CompareResult pairs the per-item comparisons with the sanitize outcome, so
// callers can surface why a line was dropped from the answer.
type CompareResult struct {
	StoreName   string                   `json:"store_name"`
	Currency    string                   `json:"currency"`
	Comparisons []domain.PriceComparison `json:"comparisons"`
	Rejected    []sanitize.RejectedItem  `json:"rejected_items,omitempty"`
	Notes       []string                 `json:"notes,omitempty"`
}

// CompareShoppingList sanitizes a raw item list and compares it against the
// index. Read-only: nothing is upserted, so shoppers can price a list before
// buying. Currency defaults and validation mirror receipt ingest.
func (s *CompareService) CompareShoppingList(ctx context.Context, in CompareInput, defaultCurrency string) (*CompareResult, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyReceipt
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if _, ok := supportedCurrencies[currency]; !ok {
		return nil, ErrUnsupportedCurrency
	}

	storeName := strings.TrimSpace(in.StoreName)
	store := domain.StoreContext{
		StoreName:           storeName,
		StoreNameNormalized: normalize.Key(storeName),
		Currency:            currency,
		City:                strings.TrimSpace(in.City),
	}

	report := sanitize.New(sanitize.Options{Currency: currency}).SanitizeAll(in.Items)
	result := &CompareResult{
		StoreName: storeName,
		Currency:  currency,
		Rejected:  report.Rejected,
		Notes:     report.Notes,
	}
	if len(report.Valid) == 0 {
		return result, ErrNoValidItems
	}

	comparisons, err := s.Compare(ctx, report.Valid, store)
	if err != nil {
		return nil, err
	}
	result.Comparisons = comparisons
	return result, nil
}

// ProductHistoryPage returns one page of a product's recorded observations,
// most recent first, plus the total count for pagination metadata.
func (s *CompareService) ProductHistoryPage(ctx context.Context, productKey, currency string, page, pageSize int) ([]domain.PricePoint, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountPricePointsForProduct(ctx, s.DB, productKey, currency)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.PricePoint{}, 0, nil
	}
	points, err := repo.ListPricePointsPage(ctx, s.DB, productKey, currency, offset, pageSize)
	return points, total, err
}
