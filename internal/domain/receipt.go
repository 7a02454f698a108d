// Receipt pipeline value types. These structs never touch the database
// directly: they carry a receipt's line items through sanitization, matching,
// and aggregation, and they are the bit-exact contract consumed by the mobile
// app and admin tooling.
package domain

import "time"

// RawItem is a receipt line as extracted upstream (LLM/OCR). It is untrusted:
// the name may be garbage, the prices implausible, the category free text.
type RawItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Unit       string  `json:"unit,omitempty"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SanitizedItem is a RawItem that survived the sanitizer. Invariants: Name has
// at least 2 characters, UnitPrice is positive and within currency bounds,
// Category is one of the closed category set, NameNormalized is the canonical
// comparison key. Immutable once attached to a receipt.
type SanitizedItem struct {
	Name           string  `json:"name"`
	NameNormalized string  `json:"name_normalized"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	Unit           string  `json:"unit,omitempty"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence,omitempty"`
	IsReturn       bool    `json:"is_return,omitempty"`
}

// StoreContext carries the receipt-level facts every upsert needs.
type StoreContext struct {
	StoreName           string `json:"store_name"`
	StoreNameNormalized string `json:"store_name_normalized"`
	Currency            string `json:"currency"`
	ReceiptID           string `json:"receipt_id"`
	UserID              string `json:"user_id"`
	City                string `json:"city,omitempty"`
}

// Upsert outcomes per item.
const (
	// UpsertCreated: a new canonical product was seeded by this item.
	UpsertCreated = "created"
	// UpsertUpdated: a new PricePoint was appended to an existing product.
	UpsertUpdated = "updated"
	// UpsertSkipped: same store, same price, so the observation is redundant and dropped.
	UpsertSkipped = "skipped"
)

// ItemUpsertResult records what the matcher decided for one item, including
// fuzzy-match observability (what it matched to and with which score).
type ItemUpsertResult struct {
	Name           string  `json:"name"`
	NameNormalized string  `json:"name_normalized"`
	Outcome        string  `json:"outcome"`
	FuzzyMatched   bool    `json:"fuzzy_matched,omitempty"`
	MatchedTo      string  `json:"matched_to,omitempty"`
	MatchScore     float64 `json:"match_score,omitempty"`
}

// UpsertReport aggregates per-item results for one receipt, plus the price
// drops detected while appending points.
type UpsertReport struct {
	Created int                `json:"created"`
	Updated int                `json:"updated"`
	Skipped int                `json:"skipped"`
	Results []ItemUpsertResult `json:"results"`
	Drops   []PriceDropEvent   `json:"-"`
}

// PriceComparison is the per-item answer of the aggregator. When the item has
// no history, the comparison degenerates to the current price being both best
// and average with zero savings, never nil, so callers never branch on
// missing data.
type PriceComparison struct {
	ItemName          string  `json:"item_name"`
	NameNormalized    string  `json:"name_normalized"`
	DisplayName       string  `json:"display_name,omitempty"`
	Quantity          float64 `json:"quantity"`
	CurrentPrice      float64 `json:"current_price"`
	CurrentStore      string  `json:"current_store"`
	MinPrice          float64 `json:"min_price"`
	AveragePrice      float64 `json:"average_price"`
	BestStore         string  `json:"best_store"`
	SampleSize        int     `json:"sample_size"`
	PotentialSavings  float64 `json:"potential_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// PriceDropEvent is the explicit trigger contract between the price index and
// the watch monitor: "a new minimum price was observed for product X in city
// Y". Delivery is at-least-once; the monitor must tolerate replays.
type PriceDropEvent struct {
	ProductNameNormalized string    `json:"product_name_normalized"`
	ItemName              string    `json:"item_name"`
	City                  string    `json:"city"`
	StoreName             string    `json:"store_name"`
	PreviousMin           float64   `json:"previous_min"`
	NewPrice              float64   `json:"new_price"`
	Currency              string    `json:"currency"`
	ReceiptID             string    `json:"receipt_id,omitempty"`
	ObservedAt            time.Time `json:"observed_at"`
}

// NotificationPayload is handed to the external push-delivery collaborator.
type NotificationPayload struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Data  NotificationData `json:"data"`
}

// NotificationData is the structured part of a push payload that the mobile
// client uses for deep-linking.
type NotificationData struct {
	ItemID    string  `json:"itemId"`
	ItemName  string  `json:"itemName"`
	OldPrice  float64 `json:"oldPrice"`
	NewPrice  float64 `json:"newPrice"`
	StoreName string  `json:"storeName"`
	Savings   float64 `json:"savings"`
	City      string  `json:"city"`
}
