// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// IndexStats returns aggregate metadata for the whole price index: the total
// number of observations and the most recent RecordedAt timestamp.
//
// When the index is empty, the returned count is 0 and maxRecordedAt is nil.
//
// Return values:
//   - count:         total price points in the index
//   - maxRecordedAt: pointer to the greatest RecordedAt, or nil if no rows
//   - err:           database error, if any
func IndexStats(ctx context.Context, db *gorm.DB) (count int64, maxRecordedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.PricePoint{})

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest recorded_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		RecordedAt time.Time
	}
	if err = q.Select("recorded_at").Order("recorded_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.RecordedAt, nil
}

// StoreStats returns aggregate metadata for one store's observations: how
// many price points the store has contributed and the timestamp of the most
// recent one. storeKey is the normalized store name.
//
// When the store has no observations, the returned count is 0 and
// maxRecordedAt is nil.
func StoreStats(ctx context.Context, db *gorm.DB, storeKey string) (count int64, maxRecordedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.PricePoint{}).Where("store_name_normalized = ?", storeKey)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest recorded_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		RecordedAt time.Time
	}
	if err = q.Select("recorded_at").Order("recorded_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.RecordedAt, nil
}
