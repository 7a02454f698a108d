// Package notify defines the outbound push-delivery contract used by the
// watch monitor, plus the default implementations wired in development and
// tests. Real deployments swap in an FCM/APNs-backed Notifier; the monitor
// only sees the interface.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zandoapp/zando-backend/internal/domain"
)

// Notifier delivers a price alert to a user's devices. Implementations must
// be safe for concurrent use. Delivery is fire-and-forget from the monitor's
// point of view: an error is logged, never retried synchronously, and never
// rolls back the notification bookkeeping.
type Notifier interface {
	Send(ctx context.Context, userID string, payload domain.NotificationPayload) error
}

// LogNotifier writes alerts to the structured log instead of a push gateway.
// Default in development and CI.
type LogNotifier struct {
	Log zerolog.Logger
}

// Send implements Notifier.
func (n LogNotifier) Send(_ context.Context, userID string, payload domain.NotificationPayload) error {
	n.Log.Info().
		Str("user_id", userID).
		Str("item", payload.Data.ItemName).
		Float64("old_price", payload.Data.OldPrice).
		Float64("new_price", payload.Data.NewPrice).
		Str("store", payload.Data.StoreName).
		Str("title", payload.Title).
		Msg("price alert")
	return nil
}

// EntitlementChecker answers whether a user may receive watch alerts.
// The premium gate lives behind this interface so billing integration stays
// out of the monitor.
type EntitlementChecker interface {
	CanReceiveAlerts(ctx context.Context, userID string) (bool, error)
}

// AllowAll grants every user alert access. Default until billing ships.
type AllowAll struct{}

// CanReceiveAlerts implements EntitlementChecker.
func (AllowAll) CanReceiveAlerts(context.Context, string) (bool, error) { return true, nil }
