// Package services – WatchMonitor
//
// This file implements the reactive state machine that turns price-drop
// events into user notifications. For every active watch on the dropped
// product it evaluates, inside one transaction per watch:
//
//  1. Eligibility gates: premium entitlement, cooldown, persisted daily cap,
//     quiet hours. A failed gate still persists currentPrice/currentStore so
//     the watch stays current for UI display and the next evaluation.
//  2. Trigger evaluation per alert type (any_drop / threshold / percentage).
//  3. On fire: notification bookkeeping is committed first, then delivery is
//     handed to the Notifier fire-and-forget. A missed push never re-triggers,
//     because lastNotifiedPrice and cooldownUntil were already advanced.
//
// Events are delivered at-least-once; replaying the same event is harmless
// because the cooldown and lastNotifiedPrice monotonicity absorb duplicates.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/notify"
	"github.com/zandoapp/zando-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Throttle defaults. DailyCap counts persisted NotificationRecords per UTC
// calendar day, never an in-memory counter.
const (
	DefaultCooldown       = 24 * time.Hour
	DefaultDailyCap       = 5
	DefaultQuietStartHour = 22
	DefaultQuietEndHour   = 7
)

// WatchMonitor evaluates price-drop events against watch subscriptions.
type WatchMonitor struct {
	DB           *gorm.DB
	Notifier     notify.Notifier
	Entitlements notify.EntitlementChecker
	Log          zerolog.Logger

	Cooldown       time.Duration
	DailyCap       int
	QuietStartHour int
	QuietEndHour   int
	// Location resolves "local hour" for quiet hours.
	Location *time.Location

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewWatchMonitor constructs a monitor with the default throttle settings.
func NewWatchMonitor(db *gorm.DB, n notify.Notifier, e notify.EntitlementChecker, log zerolog.Logger) *WatchMonitor {
	return &WatchMonitor{
		DB:             db,
		Notifier:       n,
		Entitlements:   e,
		Log:            log,
		Cooldown:       DefaultCooldown,
		DailyCap:       DefaultDailyCap,
		QuietStartHour: DefaultQuietStartHour,
		QuietEndHour:   DefaultQuietEndHour,
		Location:       time.UTC,
		now:            time.Now,
	}
}

// OnPriceDrop fans one price-drop event out over every active watch on the
// product in the event's city. Each watch is processed atomically and
// independently: one watch's failure does not abort the others. Returns the
// first persistence error encountered, after attempting all watches.
func (m *WatchMonitor) OnPriceDrop(ctx context.Context, ev domain.PriceDropEvent) error {
	tr := otel.Tracer("services/WatchMonitor")
	ctx, span := tr.Start(ctx, "OnPriceDrop",
		trace.WithAttributes(
			attribute.String("product", ev.ProductNameNormalized),
			attribute.String("city", ev.City),
			attribute.Float64("new_price", ev.NewPrice),
		),
	)
	defer span.End()

	watches, err := repo.ListActiveWatchesForItem(ctx, m.DB, ev.ProductNameNormalized, ev.City)
	if err != nil {
		return err
	}

	var firstErr error
	for i := range watches {
		if err := m.evaluateWatch(ctx, watches[i].ID, ev); err != nil {
			m.Log.Error().Err(err).Str("watch_id", watches[i].ID).Msg("watch evaluation failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	span.SetAttributes(attribute.Int("watches", len(watches)))
	return firstErr
}

// evaluateWatch runs gates, trigger, and bookkeeping for one watch under a
// transaction. The transaction serializes concurrent events for the same
// watch; the re-read inside it sees the latest committed state.
func (m *WatchMonitor) evaluateWatch(ctx context.Context, watchID string, ev domain.PriceDropEvent) error {
	var (
		fired   bool
		payload domain.NotificationPayload
		userID  string
	)

	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := repo.GetWatchLocked(ctx, tx, watchID)
		if err != nil {
			return err
		}
		userID = w.UserID

		// A watch created before the product's first scan carries no
		// baseline. Seed the price state from this observation instead of
		// evaluating against zero, which could never trigger any_drop or
		// percentage alerts. The seed itself is not a drop; the next
		// genuine drop evaluates against a real price.
		if w.BaselinePrice <= 0 {
			w.BaselinePrice = ev.NewPrice
			w.LastNotifiedPrice = ev.NewPrice
		}

		now := m.now().UTC()
		gate := m.gateFailure(ctx, tx, w, now)
		if gate == "" && !triggered(w, ev.NewPrice) {
			gate = "no_trigger"
		}
		if gate != "" {
			if gate != "no_trigger" {
				alertsSuppressedTotal.WithLabelValues(gate).Inc()
			}
			// Keep the watch current even when nothing fires.
			w.CurrentPrice = ev.NewPrice
			w.CurrentStore = ev.StoreName
			return repo.SaveWatch(ctx, tx, w)
		}

		rec := &domain.NotificationRecord{
			UserID:    w.UserID,
			WatchID:   w.ID,
			ItemName:  w.ItemName,
			OldPrice:  w.LastNotifiedPrice,
			NewPrice:  ev.NewPrice,
			StoreName: ev.StoreName,
			City:      ev.City,
			SentAt:    now,
		}
		if err := repo.InsertNotification(ctx, tx, rec); err != nil {
			return err
		}

		payload = buildAlertPayload(w, ev)
		cooldown := now.Add(m.Cooldown)
		w.LastNotifiedPrice = ev.NewPrice
		w.CurrentPrice = ev.NewPrice
		w.CurrentStore = ev.StoreName
		w.NotificationCount++
		w.LastNotificationAt = &now
		w.CooldownUntil = &cooldown
		if err := repo.SaveWatch(ctx, tx, w); err != nil {
			return err
		}
		alertsSentTotal.WithLabelValues(w.AlertType).Inc()
		fired = true
		return nil
	})
	if err != nil || !fired {
		return err
	}

	// Delivery happens after commit and never rolls anything back.
	if err := m.Notifier.Send(ctx, userID, payload); err != nil {
		m.Log.Warn().Err(err).Str("watch_id", watchID).Msg("push delivery failed")
	}
	return nil
}

// gateFailure returns the name of the first failed eligibility gate, or ""
// when all gates pass.
func (m *WatchMonitor) gateFailure(ctx context.Context, tx *gorm.DB, w *domain.WatchedItem, now time.Time) string {
	ok, err := m.Entitlements.CanReceiveAlerts(ctx, w.UserID)
	if err != nil {
		m.Log.Warn().Err(err).Str("user_id", w.UserID).Msg("entitlement check failed")
		return "entitlement"
	}
	if !ok {
		return "entitlement"
	}

	if w.CooldownUntil != nil && w.CooldownUntil.After(now) {
		return "cooldown"
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sent, err := repo.CountNotificationsSince(ctx, tx, w.UserID, dayStart)
	if err != nil {
		m.Log.Warn().Err(err).Str("user_id", w.UserID).Msg("daily cap count failed")
		return "daily_cap"
	}
	if sent >= int64(m.DailyCap) {
		return "daily_cap"
	}

	if m.inQuietHours(now) {
		return "quiet_hours"
	}
	return ""
}

// inQuietHours reports whether the local hour falls inside the configured
// quiet window. The window may wrap midnight: [22, 7) means 22:00 through
// 06:59.
func (m *WatchMonitor) inQuietHours(now time.Time) bool {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	h := now.In(loc).Hour()
	start, end := m.QuietStartHour, m.QuietEndHour
	if start == end {
		return false
	}
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// triggered evaluates the alert condition for a new price.
func triggered(w *domain.WatchedItem, newPrice float64) bool {
	switch w.AlertType {
	case domain.AlertAnyDrop:
		return newPrice < w.LastNotifiedPrice
	case domain.AlertThreshold:
		return w.TargetPrice != nil && newPrice <= *w.TargetPrice
	case domain.AlertPercentage:
		if w.PercentageDrop == nil || w.BaselinePrice <= 0 {
			return false
		}
		drop := (w.BaselinePrice - newPrice) / w.BaselinePrice * 100
		return drop >= *w.PercentageDrop
	default:
		return false
	}
}

// buildAlertPayload renders the push payload for a fired watch.
func buildAlertPayload(w *domain.WatchedItem, ev domain.PriceDropEvent) domain.NotificationPayload {
	savings := w.LastNotifiedPrice - ev.NewPrice
	if savings < 0 {
		savings = 0
	}
	return domain.NotificationPayload{
		Title: "Baisse de prix !",
		Body: fmt.Sprintf("%s est à %s chez %s",
			w.ItemName, formatPrice(ev.NewPrice, ev.Currency), ev.StoreName),
		Data: domain.NotificationData{
			ItemID:    w.ID,
			ItemName:  w.ItemName,
			OldPrice:  w.LastNotifiedPrice,
			NewPrice:  ev.NewPrice,
			StoreName: ev.StoreName,
			Savings:   savings,
			City:      ev.City,
		},
	}
}

// formatPrice renders an amount for notification text. CDF amounts are whole
// francs; other currencies keep two decimals.
func formatPrice(amount float64, currency string) string {
	if currency == "CDF" {
		return fmt.Sprintf("%.0f %s", amount, currency)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
