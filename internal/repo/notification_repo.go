// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// NotificationRecord model, the persisted history of sent price alerts.
//
// The daily notification cap is derived from this table, never from
// in-memory counters, so it survives restarts and stays correct across
// multiple server processes sharing one database.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// InsertNotification persists one sent-alert record. The ID is a randomly
// generated UUID; SentAt defaults to now (UTC) when zero.
func InsertNotification(ctx context.Context, db *gorm.DB, n *domain.NotificationRecord) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}

// CountNotificationsSince returns how many alerts were sent to userID at or
// after `since`. The monitor passes the start of the current UTC day to
// enforce the daily cap.
func CountNotificationsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationRecord{}).
		Where("user_id = ? AND sent_at >= ?", userID, since).
		Count(&total).Error
	return total, err
}

// ListNotificationsPage returns a paginated slice of a user's alert history,
// most recent first. Use CountNotifications for pagination metadata.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.NotificationRecord, error) {
	var out []domain.NotificationRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountNotifications returns the total number of alerts ever sent to userID.
func CountNotifications(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.NotificationRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}
