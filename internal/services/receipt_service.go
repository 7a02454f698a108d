// Package services – ReceiptService
//
// This file implements ReceiptService, the orchestrator of the receipt
// pipeline. One ingest call runs sanitization, price upserts, and the
// savings comparison, then dispatches any detected price drops to the watch
// monitor. Per-item failures never abort the batch: the result carries both
// surviving and rejected items.
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/normalize"
	"github.com/zandoapp/zando-backend/internal/sanitize"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// supportedCurrencies lists the currencies the price index accepts.
var supportedCurrencies = map[string]struct{}{
	"CDF": {},
	"USD": {},
	"EUR": {},
}

// ReceiptService runs the full pipeline for one uploaded receipt.
type ReceiptService struct {
	DB      *gorm.DB
	Prices  *PriceService
	Compare *CompareService
	Monitor *WatchMonitor
	Log     zerolog.Logger

	// DefaultCurrency applies when the upload names none.
	DefaultCurrency string
	// StrictPrices rejects out-of-bounds prices instead of clamping.
	StrictPrices bool
	// AllowReturns keeps negative quantities on return lines.
	AllowReturns bool
}

// IngestInput is one receipt upload. ReceiptID is optional; the client may
// carry its own id through the pipeline, otherwise one is generated.
type IngestInput struct {
	StoreName string
	City      string
	Currency  string
	ReceiptID string
	Items     []domain.RawItem
}

// IngestResult is the full pipeline outcome for one receipt.
type IngestResult struct {
	ReceiptID   string                   `json:"receipt_id"`
	StoreName   string                   `json:"store_name"`
	Currency    string                   `json:"currency"`
	Items       []domain.SanitizedItem   `json:"items"`
	Rejected    []sanitize.RejectedItem  `json:"rejected_items"`
	Notes       []string                 `json:"notes,omitempty"`
	Upserts     *domain.UpsertReport     `json:"upserts"`
	Comparisons []domain.PriceComparison `json:"comparisons"`
}

// Ingest validates, sanitizes, records, and compares one receipt. On
// ErrNoValidItems the returned result still carries the per-item rejection
// reasons so the caller can surface them.
func (s *ReceiptService) Ingest(ctx context.Context, userID string, in IngestInput) (*IngestResult, error) {
	tr := otel.Tracer("services/ReceiptService")
	ctx, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("items", len(in.Items)),
		),
	)
	defer span.End()

	if len(in.Items) == 0 {
		return nil, ErrEmptyReceipt
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.DefaultCurrency
	}
	if _, ok := supportedCurrencies[currency]; !ok {
		return nil, ErrUnsupportedCurrency
	}

	receiptID := strings.TrimSpace(in.ReceiptID)
	if receiptID == "" {
		receiptID = uuid.NewString()
	}

	storeName := strings.TrimSpace(in.StoreName)
	store := domain.StoreContext{
		StoreName:           storeName,
		StoreNameNormalized: normalize.Key(storeName),
		Currency:            currency,
		ReceiptID:           receiptID,
		UserID:              userID,
		City:                strings.TrimSpace(in.City),
	}

	report := sanitize.New(sanitize.Options{
		Currency:     currency,
		StrictMode:   s.StrictPrices,
		AllowReturns: s.AllowReturns,
	}).SanitizeAll(in.Items)

	itemsSanitizedTotal.Add(float64(len(report.Valid)))
	for _, rej := range report.Rejected {
		itemsRejectedTotal.WithLabelValues(rej.Reason).Inc()
	}

	result := &IngestResult{
		ReceiptID: store.ReceiptID,
		StoreName: storeName,
		Currency:  currency,
		Items:     report.Valid,
		Rejected:  report.Rejected,
		Notes:     report.Notes,
	}
	if len(report.Valid) == 0 {
		return result, ErrNoValidItems
	}

	upserts, err := s.Prices.UpsertPrices(ctx, report.Valid, store)
	if err != nil {
		return nil, err
	}
	result.Upserts = upserts

	comparisons, err := s.Compare.Compare(ctx, report.Valid, store)
	if err != nil {
		return nil, err
	}
	result.Comparisons = comparisons

	// Price drops fan out to the watch monitor; failures there are the
	// monitor's problem, never the uploader's.
	if s.Monitor != nil {
		for _, drop := range upserts.Drops {
			if err := s.Monitor.OnPriceDrop(ctx, drop); err != nil {
				s.Log.Error().Err(err).
					Str("product", drop.ProductNameNormalized).
					Msg("price drop dispatch failed")
			}
		}
	}

	span.SetAttributes(
		attribute.Int("valid", len(report.Valid)),
		attribute.Int("rejected", len(report.Rejected)),
		attribute.Int("drops", len(upserts.Drops)),
	)
	return result, nil
}
