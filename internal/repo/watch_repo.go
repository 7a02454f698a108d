// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// WatchedItem model, the per-user price watch subscriptions.
//
// Uniqueness of (user_id, item_name_normalized, city) is enforced by the
// schema; ErrDuplicate is surfaced on violation so the service layer can map
// it to a conflict response. The watch monitor mutates watch rows inside
// gorm transactions, so every function here takes the caller's handle.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// CreateWatch inserts a new watch subscription. The ID is a randomly
// generated UUID. Returns ErrDuplicate when the user already watches this
// item in this city.
func CreateWatch(ctx context.Context, db *gorm.DB, w *domain.WatchedItem) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetWatch fetches a watch by ID and owner, or ErrNotFound.
func GetWatch(ctx context.Context, db *gorm.DB, id, userID string) (*domain.WatchedItem, error) {
	var w domain.WatchedItem
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWatchesPage returns one page of a user's watches, most recent first.
func ListWatchesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.WatchedItem, error) {
	var out []domain.WatchedItem
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountWatches returns how many watches userID owns.
func CountWatches(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.WatchedItem{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListActiveWatchesForItem returns every active watch on the given normalized
// item key in the given city, across all users. The monitor fans a price-drop
// event out over this list.
func ListActiveWatchesForItem(ctx context.Context, db *gorm.DB, itemKey, city string) ([]domain.WatchedItem, error) {
	var out []domain.WatchedItem
	err := db.WithContext(ctx).
		Where("item_name_normalized = ? AND city = ? AND is_active = ?", itemKey, city, true).
		Find(&out).Error
	return out, err
}

// SaveWatch persists all mutable fields of an existing watch row. Intended
// for use inside the monitor's transaction after the row was loaded with
// GetWatchLocked.
func SaveWatch(ctx context.Context, db *gorm.DB, w *domain.WatchedItem) error {
	w.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(w).Error
}

// GetWatchLocked re-reads a watch row by ID inside the caller's transaction.
// With SQLite the transaction itself serializes writers; on databases with
// row locks this is where FOR UPDATE would go.
func GetWatchLocked(ctx context.Context, tx *gorm.DB, id string) (*domain.WatchedItem, error) {
	var w domain.WatchedItem
	err := tx.WithContext(ctx).
		Where("id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWatchActive pauses or resumes a watch, enforcing user ownership.
// Returns ErrNotFound when the watch does not exist or is not owned by
// userID.
func SetWatchActive(ctx context.Context, db *gorm.DB, id, userID string, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.WatchedItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWatch hard-deletes a watch, enforcing user ownership. Returns
// ErrNotFound when nothing was deleted.
func DeleteWatch(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.WatchedItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
