// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the PricePoint
// model, the append-only price history.
//
// Price points are never updated or deleted: a price change at the same
// store inserts a new row, and "latest price" queries order by recorded_at.
// The service layer decides whether an observation is redundant before
// calling InsertPricePoint.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// PriceStats is the aggregate the comparison endpoint needs for one product:
// the cheapest observation, the mean, and where the minimum was seen.
type PriceStats struct {
	MinPrice     float64
	AveragePrice float64
	BestStore    string
	SampleSize   int
}

// InsertPricePoint appends one observation. The ID is a randomly generated
// UUID; RecordedAt defaults to now (UTC) when zero.
func InsertPricePoint(ctx context.Context, db *gorm.DB, pp *domain.PricePoint) error {
	if pp.ID == "" {
		pp.ID = uuid.NewString()
	}
	if pp.RecordedAt.IsZero() {
		pp.RecordedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(pp).Error
}

// LatestPriceAtStore returns the most recent observation of a product at a
// specific store, or ErrNotFound when the pair has no history. The upsert
// policy compares against this row to detect redundant observations.
func LatestPriceAtStore(ctx context.Context, db *gorm.DB, productKey, storeKey string) (*domain.PricePoint, error) {
	var pp domain.PricePoint
	err := db.WithContext(ctx).
		Where("product_name_normalized = ? AND store_name_normalized = ?", productKey, storeKey).
		Order("recorded_at desc").
		First(&pp).Error
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// MinPriceBefore returns the minimum price ever recorded for a product in a
// currency strictly before cutoff, or ErrNotFound when there is no prior
// history. The price-drop detector compares a fresh observation against this
// value.
func MinPriceBefore(ctx context.Context, db *gorm.DB, productKey, currency string, cutoff time.Time) (float64, error) {
	var row struct {
		Price float64
	}
	err := db.WithContext(ctx).
		Model(&domain.PricePoint{}).
		Select("price").
		Where("product_name_normalized = ? AND currency = ? AND recorded_at < ?", productKey, currency, cutoff).
		Order("price asc").
		Limit(1).
		Take(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Price, nil
}

// StatsForProduct computes min/average/sample-size for a product within a
// currency, restricted to observations recorded at or after `since` (zero
// time means all history). BestStore is the display name of the store where
// the minimum was first recorded. When the product has no qualifying
// history, SampleSize is 0 and the caller builds a degenerate comparison
// instead.
func StatsForProduct(ctx context.Context, db *gorm.DB, productKey, currency string, since time.Time) (*PriceStats, error) {
	base := db.WithContext(ctx).
		Model(&domain.PricePoint{}).
		Where("product_name_normalized = ? AND currency = ? AND recorded_at >= ?", productKey, currency, since)

	var agg struct {
		MinPrice float64
		AvgPrice float64
		N        int64
	}
	err := base.Session(&gorm.Session{}).
		Select("MIN(price) AS min_price, AVG(price) AS avg_price, COUNT(*) AS n").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	if agg.N == 0 {
		return &PriceStats{}, nil
	}

	var cheapest domain.PricePoint
	err = base.Session(&gorm.Session{}).
		Order("price asc, recorded_at asc").
		First(&cheapest).Error
	if err != nil {
		return nil, err
	}

	return &PriceStats{
		MinPrice:     agg.MinPrice,
		AveragePrice: agg.AvgPrice,
		BestStore:    cheapest.StoreName,
		SampleSize:   int(agg.N),
	}, nil
}

// ListPricePointsPage returns one page of a product's history within a
// currency, ordered most recent first. Offset/limit are row-based; callers
// translate page numbers.
func ListPricePointsPage(ctx context.Context, db *gorm.DB, productKey, currency string, offset, limit int) ([]domain.PricePoint, error) {
	var out []domain.PricePoint
	err := db.WithContext(ctx).
		Where("product_name_normalized = ? AND currency = ?", productKey, currency).
		Order("recorded_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPricePointsForProduct returns the number of observations for one
// product within a currency.
func CountPricePointsForProduct(ctx context.Context, db *gorm.DB, productKey, currency string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.PricePoint{}).
		Where("product_name_normalized = ? AND currency = ?", productKey, currency).
		Count(&total).Error
	return total, err
}

// LatestPricesPerStore returns, for one product and currency, the most
// recent observation at each store. SQLite-friendly: correlated subquery on
// the composite (product, store) index.
func LatestPricesPerStore(ctx context.Context, db *gorm.DB, productKey, currency string) ([]domain.PricePoint, error) {
	var out []domain.PricePoint
	err := db.WithContext(ctx).
		Where(`product_name_normalized = ? AND currency = ? AND recorded_at = (
			SELECT MAX(p2.recorded_at) FROM price_points p2
			WHERE p2.product_name_normalized = price_points.product_name_normalized
			  AND p2.store_name_normalized = price_points.store_name_normalized
			  AND p2.currency = price_points.currency
		)`, productKey, currency).
		Order("price asc").
		Find(&out).Error
	return out, err
}

// CountPricePoints returns the total number of observations in the index.
func CountPricePoints(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.PricePoint{}).Count(&total).Error
	return total, err
}
