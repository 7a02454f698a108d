// Package services – PriceService
//
// This file implements PriceService, the component that owns the write path
// of the price index. For every sanitized receipt line it resolves the
// canonical cross-store product (exact key match first, fuzzy match second,
// create last), applies the append-only upsert policy, and detects price
// drops worth handing to the watch monitor.
//
// Observability: the public method is OpenTelemetry-instrumented; spans
// include the store and per-receipt outcome counts.
package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/match"
	"github.com/zandoapp/zando-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// priceEpsilon bounds float comparison when deciding whether an observation
// repeats the latest known price at the same store.
const priceEpsilon = 1e-9

// PriceService records sanitized receipt items into the price index.
type PriceService struct {
	DB     *gorm.DB
	Scorer *match.Scorer
}

// NewPriceService constructs a PriceService with the default match scorer.
func NewPriceService(db *gorm.DB, scorer *match.Scorer) *PriceService {
	if scorer == nil {
		scorer = match.NewScorer()
	}
	return &PriceService{DB: db, Scorer: scorer}
}

// UpsertPrices applies the upsert policy to every item of one receipt inside
// a single transaction:
//
//   - Returned items never touch the index.
//   - Same store, same price as the latest observation: skipped.
//   - Known product (exact or fuzzy key match): a new PricePoint is appended.
//   - Unknown product: a canonical Product is created, then the point appended.
//
// A PriceDropEvent is emitted for every appended point whose price undercuts
// the product's previous all-time minimum in the receipt's currency.
func (s *PriceService) UpsertPrices(ctx context.Context, items []domain.SanitizedItem, store domain.StoreContext) (*domain.UpsertReport, error) {
	tr := otel.Tracer("services/PriceService")
	ctx, span := tr.Start(ctx, "UpsertPrices",
		trace.WithAttributes(
			attribute.String("store", store.StoreNameNormalized),
			attribute.String("currency", store.Currency),
			attribute.Int("items", len(items)),
		),
	)
	defer span.End()

	report := &domain.UpsertReport{Results: make([]domain.ItemUpsertResult, 0, len(items))}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One key listing per receipt; new products created below join the
		// candidate set so later lines of the same receipt can match them.
		keys, err := repo.ListProductKeys(ctx, tx)
		if err != nil {
			return err
		}

		for _, it := range items {
			res, drop, err := s.upsertOne(ctx, tx, it, store, keys)
			if err != nil {
				return err
			}
			report.Results = append(report.Results, *res)
			switch res.Outcome {
			case domain.UpsertCreated:
				report.Created++
				keys = append(keys, res.NameNormalized)
			case domain.UpsertUpdated:
				report.Updated++
			case domain.UpsertSkipped:
				report.Skipped++
			}
			if drop != nil {
				report.Drops = append(report.Drops, *drop)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("created", report.Created),
		attribute.Int("updated", report.Updated),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("drops", len(report.Drops)),
	)
	pricePointsTotal.Add(float64(report.Created + report.Updated))
	productsCreatedTotal.Add(float64(report.Created))
	return report, nil
}

// upsertOne handles a single item and reports the outcome plus an optional
// price-drop event.
func (s *PriceService) upsertOne(ctx context.Context, tx *gorm.DB, it domain.SanitizedItem, store domain.StoreContext, keys []string) (*domain.ItemUpsertResult, *domain.PriceDropEvent, error) {
	res := &domain.ItemUpsertResult{Name: it.Name, NameNormalized: it.NameNormalized}

	// Returned items are corrections of earlier purchases, not observations.
	if it.IsReturn {
		res.Outcome = domain.UpsertSkipped
		return res, nil, nil
	}

	product, err := s.resolveProduct(ctx, tx, it, keys, res)
	if err != nil {
		return nil, nil, err
	}

	if res.Outcome != domain.UpsertCreated {
		latest, err := repo.LatestPriceAtStore(ctx, tx, product.NameNormalized, store.StoreNameNormalized)
		switch {
		case err == nil:
			if math.Abs(latest.Price-it.UnitPrice) < priceEpsilon && latest.Currency == store.Currency {
				res.Outcome = domain.UpsertSkipped
				return res, nil, nil
			}
		case errors.Is(err, repo.ErrNotFound):
			// First observation at this store.
		default:
			return nil, nil, err
		}
		res.Outcome = domain.UpsertUpdated
	}

	now := time.Now().UTC()

	// Prior all-time minimum, read before the new point lands.
	var drop *domain.PriceDropEvent
	prevMin, err := repo.MinPriceBefore(ctx, tx, product.NameNormalized, store.Currency, now)
	switch {
	case err == nil:
		if it.UnitPrice < prevMin {
			drop = &domain.PriceDropEvent{
				ProductNameNormalized: product.NameNormalized,
				ItemName:              product.DisplayName,
				City:                  store.City,
				StoreName:             store.StoreName,
				PreviousMin:           prevMin,
				NewPrice:              it.UnitPrice,
				Currency:              store.Currency,
				ReceiptID:             store.ReceiptID,
				ObservedAt:            now,
			}
		}
	case errors.Is(err, repo.ErrNotFound):
		// No history, nothing to undercut.
	default:
		return nil, nil, err
	}

	point := &domain.PricePoint{
		ProductNameNormalized: product.NameNormalized,
		StoreName:             store.StoreName,
		StoreNameNormalized:   store.StoreNameNormalized,
		Price:                 it.UnitPrice,
		Currency:              store.Currency,
		RecordedAt:            now,
		ReceiptID:             store.ReceiptID,
		UserID:                store.UserID,
	}
	if err := repo.InsertPricePoint(ctx, tx, point); err != nil {
		return nil, nil, err
	}
	return res, drop, nil
}

// resolveProduct finds the canonical product for an item: exact key lookup,
// then learned alias lookup, then fuzzy match over the known keys, then
// creation. A successful fuzzy match is recorded as an alias so the same
// spelling skips the scorer next time. The chosen path is recorded on res.
func (s *PriceService) resolveProduct(ctx context.Context, tx *gorm.DB, it domain.SanitizedItem, keys []string, res *domain.ItemUpsertResult) (*domain.Product, error) {
	product, err := repo.GetProductByKey(ctx, tx, it.NameNormalized)
	if err == nil {
		s.maybeImproveDisplayName(ctx, tx, product, it.Name)
		return product, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if alias, err := repo.GetAlias(ctx, tx, it.NameNormalized); err == nil {
		product, err := repo.GetProductByKey(ctx, tx, alias.ProductNameNormalized)
		if err == nil {
			res.MatchedTo = product.NameNormalized
			res.MatchScore = alias.MatchScore
			res.NameNormalized = product.NameNormalized
			aliasMatchesTotal.Inc()
			// Hit counting is advisory; a failed bump never blocks the line.
			_ = repo.TouchAlias(ctx, tx, alias.Alias)
			s.maybeImproveDisplayName(ctx, tx, product, it.Name)
			return product, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		// The canonical product behind the alias is gone; fall through to
		// the scorer.
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if cand, ok := s.Scorer.BestMatch(it.NameNormalized, keys); ok {
		product, err := repo.GetProductByKey(ctx, tx, cand.Key)
		if err != nil {
			return nil, err
		}
		res.FuzzyMatched = true
		res.MatchedTo = product.NameNormalized
		res.MatchScore = cand.Score
		res.NameNormalized = product.NameNormalized
		fuzzyMatchesTotal.Inc()
		// Remember the spelling; losing the write only costs a rescore later.
		_ = repo.RecordAlias(ctx, tx, it.NameNormalized, cand.Key, cand.Score)
		s.maybeImproveDisplayName(ctx, tx, product, it.Name)
		return product, nil
	}

	product, err = repo.CreateProduct(ctx, tx, it.NameNormalized, it.Name, it.Category)
	if err != nil {
		return nil, err
	}
	res.Outcome = domain.UpsertCreated
	return product, nil
}

// maybeImproveDisplayName upgrades a product's display name when a receipt
// carries a clearly better spelling: spaced beats glued, longer beats
// shorter. Failures are ignored; the name is cosmetic.
func (s *PriceService) maybeImproveDisplayName(ctx context.Context, tx *gorm.DB, product *domain.Product, candidate string) {
	if candidate == "" || candidate == product.DisplayName {
		return
	}
	curSpaced := strings.Contains(product.DisplayName, " ")
	candSpaced := strings.Contains(candidate, " ")
	better := (candSpaced && !curSpaced) ||
		(candSpaced == curSpaced && len(candidate) > len(product.DisplayName))
	if !better {
		return
	}
	if err := repo.UpdateProductDisplayName(ctx, tx, product.NameNormalized, candidate); err == nil {
		product.DisplayName = candidate
	}
}
