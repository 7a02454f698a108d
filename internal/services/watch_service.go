// Package services – WatchService
//
// This file implements WatchService, which owns the lifecycle of watch
// subscriptions: creation with alert-type validation, listing, pausing,
// deletion, and the user-visible notification history. Evaluation of price
// drops against watches lives in WatchMonitor.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/normalize"
	"github.com/zandoapp/zando-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WatchService provides CRUD operations on watch subscriptions.
type WatchService struct {
	DB *gorm.DB
}

// NewWatchService constructs a WatchService.
func NewWatchService(db *gorm.DB) *WatchService {
	return &WatchService{DB: db}
}

// CreateWatchInput carries a new subscription request.
type CreateWatchInput struct {
	ItemName       string
	City           string
	AlertType      string
	TargetPrice    *float64
	PercentageDrop *float64

	// BaselinePrice anchors percentage alerts. When zero, the current index
	// minimum for the item (if any) is used.
	BaselinePrice float64
	Currency      string
}

// Create validates and persists a new watch. Returns ErrDuplicateWatch when
// the user already watches this item in this city, ErrInvalidAlertType or
// ErrMissingTarget on bad alert configuration.
func (s *WatchService) Create(ctx context.Context, userID string, in CreateWatchInput) (*domain.WatchedItem, error) {
	tr := otel.Tracer("services/WatchService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("alert_type", in.AlertType),
		),
	)
	defer span.End()

	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return nil, ErrEmptyItemName
	}
	key := normalize.Key(name)
	if key == "" {
		return nil, ErrEmptyItemName
	}

	switch in.AlertType {
	case domain.AlertAnyDrop:
	case domain.AlertThreshold:
		if in.TargetPrice == nil || *in.TargetPrice <= 0 {
			return nil, ErrMissingTarget
		}
	case domain.AlertPercentage:
		if in.PercentageDrop == nil || *in.PercentageDrop <= 0 || *in.PercentageDrop > 100 {
			return nil, ErrMissingTarget
		}
	default:
		return nil, ErrInvalidAlertType
	}

	baseline := in.BaselinePrice
	if baseline <= 0 && in.Currency != "" {
		stats, err := repo.StatsForProduct(ctx, s.DB, key, in.Currency, time.Time{})
		if err != nil {
			return nil, err
		}
		if stats.SampleSize > 0 {
			baseline = stats.MinPrice
		}
	}

	w := &domain.WatchedItem{
		UserID:             userID,
		ItemNameNormalized: key,
		ItemName:           name,
		City:               strings.TrimSpace(in.City),
		AlertType:          in.AlertType,
		TargetPrice:        in.TargetPrice,
		PercentageDrop:     in.PercentageDrop,
		BaselinePrice:      baseline,
		LastNotifiedPrice:  baseline,
		CurrentPrice:       baseline,
		IsActive:           true,
	}
	if err := repo.CreateWatch(ctx, s.DB, w); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateWatch
		}
		return nil, err
	}
	return w, nil
}

// ListPage returns a page of the user's watches plus the total count for
// pagination metadata.
func (s *WatchService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.WatchedItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountWatches(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.WatchedItem{}, 0, nil
	}
	items, err := repo.ListWatchesPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get fetches one watch, enforcing ownership.
func (s *WatchService) Get(ctx context.Context, userID, watchID string) (*domain.WatchedItem, error) {
	w, err := repo.GetWatch(ctx, s.DB, watchID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWatchNotFound
		}
		return nil, err
	}
	return w, nil
}

// SetActive pauses or resumes a watch.
func (s *WatchService) SetActive(ctx context.Context, userID, watchID string, active bool) error {
	err := repo.SetWatchActive(ctx, s.DB, watchID, userID, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrWatchNotFound
	}
	return err
}

// Delete removes a watch permanently.
func (s *WatchService) Delete(ctx context.Context, userID, watchID string) error {
	err := repo.DeleteWatch(ctx, s.DB, watchID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrWatchNotFound
	}
	return err
}

// NotificationsPage returns a page of the user's alert history plus the
// total count for pagination metadata.
func (s *WatchService) NotificationsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.NotificationRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountNotifications(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.NotificationRecord{}, 0, nil
	}
	items, err := repo.ListNotificationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}
