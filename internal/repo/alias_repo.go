// Package repo – product alias persistence.
//
// Aliases record raw-name spellings the fuzzy matcher has already resolved
// to a canonical product. Once recorded, the same spelling resolves by a
// single indexed lookup on later receipts instead of rescoring every known
// key.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// GetAlias fetches the learned alias for a normalized raw name, or
// ErrNotFound when the spelling has never been resolved.
func GetAlias(ctx context.Context, db *gorm.DB, alias string) (*domain.ProductAlias, error) {
	var a domain.ProductAlias
	err := db.WithContext(ctx).
		Where("alias = ?", alias).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordAlias remembers that alias resolved to productKey with the given
// match score. A repeated resolution bumps the hit count and keeps the
// strongest score seen. Concurrent writers racing on the same alias are
// harmless; the loser of the insert race simply retries as an update.
func RecordAlias(ctx context.Context, db *gorm.DB, alias, productKey string, score float64) error {
	existing, err := GetAlias(ctx, db, alias)
	if err == nil {
		updates := map[string]any{
			"hits":       gorm.Expr("hits + 1"),
			"updated_at": time.Now().UTC(),
		}
		if score > existing.MatchScore {
			updates["match_score"] = score
		}
		return db.WithContext(ctx).
			Model(&domain.ProductAlias{}).
			Where("alias = ?", alias).
			Updates(updates).Error
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	a := &domain.ProductAlias{
		ID:                    uuid.NewString(),
		Alias:                 alias,
		ProductNameNormalized: productKey,
		MatchScore:            score,
		Hits:                  1,
		CreatedAt:             time.Now().UTC(),
		UpdatedAt:             time.Now().UTC(),
	}
	if insertErr := db.WithContext(ctx).Create(a).Error; insertErr != nil {
		return db.WithContext(ctx).
			Model(&domain.ProductAlias{}).
			Where("alias = ?", alias).
			Updates(map[string]any{
				"hits":       gorm.Expr("hits + 1"),
				"updated_at": time.Now().UTC(),
			}).Error
	}
	return nil
}

// TouchAlias bumps the hit count of an existing alias.
func TouchAlias(ctx context.Context, db *gorm.DB, alias string) error {
	return db.WithContext(ctx).
		Model(&domain.ProductAlias{}).
		Where("alias = ?", alias).
		Updates(map[string]any{
			"hits":       gorm.Expr("hits + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}
