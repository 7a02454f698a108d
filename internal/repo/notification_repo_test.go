package repo

import (
	"context"
	"testing"
	"time"

	"github.com/zandoapp/zando-backend/internal/domain"
)

func TestInsertNotification_Defaults(t *testing.T) {
	db := newRepoDB(t, &domain.NotificationRecord{})

	n := &domain.NotificationRecord{
		UserID:   "u1",
		WatchID:  "w1",
		ItemName: "Primus 72cl",
		OldPrice: 4000,
		NewPrice: 3500,
	}
	if err := InsertNotification(context.Background(), db, n); err != nil {
		t.Fatalf("InsertNotification: %v", err)
	}
	if n.ID == "" || n.SentAt.IsZero() {
		t.Fatalf("expected generated ID and SentAt, got %+v", n)
	}
}

func TestCountNotificationsSince_DailyWindow(t *testing.T) {
	db := newRepoDB(t, &domain.NotificationRecord{})
	ctx := context.Background()

	dayStart := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	rows := []*domain.NotificationRecord{
		{UserID: "u1", WatchID: "w1", ItemName: "a", SentAt: dayStart.Add(-time.Minute)}, // yesterday
		{UserID: "u1", WatchID: "w1", ItemName: "b", SentAt: dayStart},
		{UserID: "u1", WatchID: "w2", ItemName: "c", SentAt: dayStart.Add(3 * time.Hour)},
		{UserID: "u2", WatchID: "w3", ItemName: "d", SentAt: dayStart.Add(time.Hour)}, // other user
	}
	for _, n := range rows {
		if err := InsertNotification(ctx, db, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := CountNotificationsSince(ctx, db, "u1", dayStart)
	if err != nil {
		t.Fatalf("CountNotificationsSince: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 notifications today, got %d", got)
	}
}

func TestListNotificationsPage(t *testing.T) {
	db := newRepoDB(t, &domain.NotificationRecord{})
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		n := &domain.NotificationRecord{
			UserID:   "u1",
			WatchID:  "w1",
			ItemName: "Primus 72cl",
			SentAt:   base.Add(time.Duration(i) * time.Hour),
		}
		if err := InsertNotification(ctx, db, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := ListNotificationsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListNotificationsPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	// Most recent first.
	if !page[0].SentAt.After(page[1].SentAt) {
		t.Fatalf("expected descending sent_at, got %v then %v", page[0].SentAt, page[1].SentAt)
	}

	total, err := CountNotifications(ctx, db, "u1")
	if err != nil || total != 5 {
		t.Fatalf("CountNotifications: err=%v total=%d", err, total)
	}
}
