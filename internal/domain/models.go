// Package domain defines the persistence models for the price index, watch
// subscriptions, and notification history. These types are mapped with GORM
// and form the core data layer of the receipt-intelligence backend.
package domain

import (
	"time"
)

// Product is a canonical, cross-store product identity. Every sanitized
// receipt line is attached to exactly one Product, either by exact key match
// or by fuzzy matching, so that price points recorded at different stores
// under differently spelled names aggregate together.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - NameNormalized: the canonical comparison key (unique); produced by the
//     text normalizer from the best-looking display name seen so far.
//   - DisplayName: human-readable product name shown in the app.
//   - Category: closed-enum category label (see VALID categories in sanitize).
type Product struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	NameNormalized string    `json:"name_normalized" gorm:"type:varchar(255);not null;uniqueIndex:ux_product_key"`
	DisplayName    string    `json:"display_name"    gorm:"type:varchar(255);not null"`
	Category       string    `json:"category"        gorm:"type:varchar(64);not null;default:'Autres'"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductAlias is a learned raw-name spelling that resolves to a canonical
// product. The index writes one whenever the fuzzy matcher attaches a
// receipt line to an existing product, so the same misspelling resolves by
// direct lookup on later receipts.
type ProductAlias struct {
	ID                    string    `json:"id"                      gorm:"type:char(36);primaryKey"`
	Alias                 string    `json:"alias"                   gorm:"type:varchar(255);not null;uniqueIndex:ux_alias"`
	ProductNameNormalized string    `json:"product_name_normalized" gorm:"type:varchar(255);not null;index:idx_alias_product"`
	MatchScore            float64   `json:"match_score"`
	Hits                  int64     `json:"hits"                    gorm:"not null;default:0"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName returns the database table name for ProductAlias.
func (ProductAlias) TableName() string { return "product_aliases" }

// PricePoint is one historical observation of a product's price at a store.
// Rows are append-only: a price change at the same store produces a new row
// with a later RecordedAt, never an update. The row is owned collectively by
// the price index once written; the uploading user keeps no control over it.
type PricePoint struct {
	ID                    string    `json:"id"                      gorm:"type:char(36);primaryKey"`
	ProductNameNormalized string    `json:"product_name_normalized" gorm:"type:varchar(255);not null;index:idx_product_store,priority:1"`
	StoreName             string    `json:"store_name"              gorm:"type:varchar(255);not null"`
	StoreNameNormalized   string    `json:"store_name_normalized"   gorm:"type:varchar(255);not null;index:idx_product_store,priority:2"`
	Price                 float64   `json:"price"                   gorm:"not null"`
	Currency              string    `json:"currency"                gorm:"type:varchar(8);not null"`
	RecordedAt            time.Time `json:"recorded_at"             gorm:"index"`
	ReceiptID             string    `json:"receipt_id"              gorm:"type:char(36)"`
	UserID                string    `json:"user_id"                 gorm:"type:varchar(64)"`
}

// TableName returns the database table name for PricePoint.
func (PricePoint) TableName() string { return "price_points" }

// Alert types accepted on a WatchedItem.
const (
	AlertAnyDrop    = "any_drop"
	AlertThreshold  = "threshold"
	AlertPercentage = "percentage"
)

// WatchedItem is a user's standing request to be alerted when a product's
// price in a city meets a condition. One row per (user, normalized item,
// city), enforced by a unique index. The row is mutated by the watch monitor
// on every relevant price update; unwatching hard-deletes it, pausing flips
// IsActive.
//
// Invariant: while AlertType is "any_drop" and the watch is active,
// LastNotifiedPrice only ever moves downward, and only on notify.
type WatchedItem struct {
	ID                 string     `json:"id"                   gorm:"type:char(36);primaryKey"`
	UserID             string     `json:"user_id"              gorm:"type:varchar(64);not null;uniqueIndex:ux_watch_user_item_city,priority:1"`
	ItemNameNormalized string     `json:"item_name_normalized" gorm:"type:varchar(255);not null;uniqueIndex:ux_watch_user_item_city,priority:2"`
	ItemName           string     `json:"item_name"            gorm:"type:varchar(255);not null"`
	City               string     `json:"city"                 gorm:"type:varchar(128);not null;uniqueIndex:ux_watch_user_item_city,priority:3"`
	AlertType          string     `json:"alert_type"           gorm:"type:varchar(16);not null;check:alert_type IN ('any_drop','threshold','percentage')"`
	TargetPrice        *float64   `json:"target_price,omitempty"`
	PercentageDrop     *float64   `json:"percentage_drop,omitempty"`
	BaselinePrice      float64    `json:"baseline_price"`
	LastNotifiedPrice  float64    `json:"last_notified_price"`
	CurrentPrice       float64    `json:"current_price"`
	CurrentStore       string     `json:"current_store"        gorm:"type:varchar(255)"`
	NotificationCount  int        `json:"notification_count"   gorm:"not null;default:0"`
	LastNotificationAt *time.Time `json:"last_notification_at,omitempty"`
	CooldownUntil      *time.Time `json:"cooldown_until,omitempty"`
	IsActive           bool       `json:"is_active"            gorm:"not null;default:true;index"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName returns the database table name for WatchedItem.
func (WatchedItem) TableName() string { return "watched_items" }

// NotificationRecord is the persisted proof of a sent price alert. It doubles
// as the user-visible notification history and as the ground truth for the
// daily-cap throttle: the monitor counts rows per (user, UTC day) instead of
// trusting any in-memory counter.
type NotificationRecord struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_notif_user_sent,priority:1"`
	WatchID   string    `json:"watch_id"   gorm:"type:char(36);not null;index"`
	ItemName  string    `json:"item_name"  gorm:"type:varchar(255);not null"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	StoreName string    `json:"store_name" gorm:"type:varchar(255)"`
	City      string    `json:"city"       gorm:"type:varchar(128)"`
	SentAt    time.Time `json:"sent_at"    gorm:"index:idx_notif_user_sent,priority:2"`
}

// TableName returns the database table name for NotificationRecord.
func (NotificationRecord) TableName() string { return "notification_records" }
