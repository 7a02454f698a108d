// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model, the canonical cross-store product identities.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Fuzzy matching policy lives in the
// service layer; this file only answers exact-key and bulk-key queries.
//
// Error semantics:
//   - When a product is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// keyBatchSize caps the number of bind parameters per IN clause. SQLite's
// default variable limit is generous, but large receipts should not produce
// unbounded statements.
const keyBatchSize = 10

// CreateProduct inserts a new canonical product. The ID is a randomly
// generated UUID and timestamps are set by GORM. On a unique violation of
// the normalized key the raw gorm error is returned; callers racing on the
// same key should retry with GetProductByKey.
func CreateProduct(ctx context.Context, db *gorm.DB, key, displayName, category string) (*domain.Product, error) {
	p := &domain.Product{
		ID:             uuid.NewString(),
		NameNormalized: key,
		DisplayName:    displayName,
		Category:       category,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProductByKey fetches a single product by its normalized key, or
// ErrNotFound if missing.
func GetProductByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("name_normalized = ?", key).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProductsByKeys fetches all products whose normalized key is in keys,
// issuing batched IN queries of at most keyBatchSize parameters. The result
// is keyed by normalized name; absent keys are simply not present in the map.
func FindProductsByKeys(ctx context.Context, db *gorm.DB, keys []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(keys))
	for start := 0; start < len(keys); start += keyBatchSize {
		end := start + keyBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		var batch []domain.Product
		err := db.WithContext(ctx).
			Where("name_normalized IN ?", keys[start:end]).
			Find(&batch).Error
		if err != nil {
			return nil, err
		}
		for _, p := range batch {
			out[p.NameNormalized] = p
		}
	}
	return out, nil
}

// ListProductKeys returns every canonical normalized key, ordered
// alphabetically. The fuzzy matcher scores new receipt lines against this
// list when no exact key matches.
func ListProductKeys(ctx context.Context, db *gorm.DB) ([]string, error) {
	var keys []string
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Order("name_normalized asc").
		Pluck("name_normalized", &keys).Error
	return keys, err
}

// UpdateProductDisplayName replaces a product's display name, used when a
// later receipt carries a cleaner spelling of the same product. Returns
// ErrNotFound when the key has no row.
func UpdateProductDisplayName(ctx context.Context, db *gorm.DB, key, displayName string) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("name_normalized = ?", key).
		Update("display_name", displayName)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountProducts returns the total number of canonical products.
func CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Count(&total).Error
	return total, err
}
