// Receipt HTTP handlers.
//
// This file exposes the ingest endpoint of the receipt pipeline:
//   - POST /receipts  (sanitize + upsert + compare, idempotent on retry)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/http/middleware"
	"github.com/zandoapp/zando-backend/internal/repo"
	"github.com/zandoapp/zando-backend/internal/services"
	"github.com/zandoapp/zando-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ReceiptService defines the receipt-pipeline operation consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReceiptService interface {
	// Ingest sanitizes, records, and compares one uploaded receipt.
	Ingest(ctx context.Context, userID string, in services.IngestInput) (*services.IngestResult, error)
}

// CompareService defines the read side of the price index.
type CompareService interface {
	// CompareShoppingList prices a raw item list without recording anything.
	CompareShoppingList(ctx context.Context, in services.CompareInput, defaultCurrency string) (*services.CompareResult, error)
	// ProductHistoryPage returns a page of a product's observations.
	ProductHistoryPage(ctx context.Context, productKey, currency string, page, pageSize int) ([]domain.PricePoint, int64, error)
	// FindSimilarAcrossStores fuzzy-browses the index across stores.
	FindSimilarAcrossStores(ctx context.Context, queryKey, currency string) ([]services.StoreAlternative, error)
}

// WatchService defines price-watch lifecycle operations.
type WatchService interface {
	// Create registers a new watch for userID.
	Create(ctx context.Context, userID string, in services.CreateWatchInput) (*domain.WatchedItem, error)
	// ListPage returns a page of the user's watches and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.WatchedItem, int64, error)
	// SetActive pauses or resumes a watch owned by userID.
	SetActive(ctx context.Context, userID, watchID string, active bool) error
	// Delete removes a watch owned by userID.
	Delete(ctx context.Context, userID, watchID string) error
	// NotificationsPage returns a page of the user's alert history.
	NotificationsPage(ctx context.Context, userID string, page, pageSize int) ([]domain.NotificationRecord, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for receipts, comparisons, watches, and
// store stats. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	receiptSvc ReceiptService
	compareSvc CompareService
	watchSvc   WatchService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(receiptSvc ReceiptService, compareSvc CompareService, watchSvc WatchService) *Handlers {
	return &Handlers{receiptSvc: receiptSvc, compareSvc: compareSvc, watchSvc: watchSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// IngestReceiptRequest is the JSON payload for uploading a receipt.
type IngestReceiptRequest struct {
	// StoreName is the store as printed on the receipt.
	StoreName string `json:"store_name" binding:"required,min=1,max=255" example:"Shoprite Gombe"`
	// City scopes watch alerts; optional.
	City string `json:"city,omitempty" example:"Kinshasa"`
	// Currency is the 3-letter code; the configured default applies when empty.
	Currency string `json:"currency,omitempty" example:"CDF"`
	// ReceiptID optionally carries a client-generated id through the pipeline.
	ReceiptID string `json:"receipt_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Items are the raw extracted lines, untrusted.
	Items []domain.RawItem `json:"items" binding:"required"`
}

// IngestReceiptResponse wraps the pipeline result for one upload.
type IngestReceiptResponse struct {
	Result *services.IngestResult `json:"result"`
}

// ReplayedReceiptResponse is returned when an Idempotency-Key replay is
// detected: the original receipt id, without re-running the pipeline.
type ReplayedReceiptResponse struct {
	ReceiptID string `json:"receipt_id"`
	Replayed  bool   `json:"replayed"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationMeta derives the metadata block for a page of total rows.
func paginationMeta(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// IngestReceipt godoc
// @ID          ingestReceipt
// @Summary     Upload a receipt
// @Description Sanitizes the extracted line items, records price points, and returns per-item savings comparisons. Supports idempotency via the Idempotency-Key header (same key → original receipt id, no double insert).
// @Tags        Receipts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.IngestReceiptRequest  true  "Receipt payload"
//
// @Success     201  {object}  handlers.IngestReceiptResponse
// @Success     200  {object}  handlers.ReplayedReceiptResponse "Replay of a previous upload"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "No valid items"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /receipts [post]
func (h *Handlers) IngestReceipt(c *gin.Context) {
	ctx := c.Request.Context()

	var req IngestReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.receiptSvc.(*services.ReceiptService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, idemKey, time.Now().UTC()); err == nil && rec != nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, ReplayedReceiptResponse{ReceiptID: rec.ReceiptID, Replayed: true})
				return
			}
		}
	}

	result, err := h.receiptSvc.Ingest(ctx, currentUser, services.IngestInput{
		StoreName: req.StoreName,
		City:      req.City,
		Currency:  req.Currency,
		ReceiptID: req.ReceiptID,
		Items:     req.Items,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyReceipt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "items required")
		case errors.Is(err, services.ErrUnsupportedCurrency):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unsupported currency")
		case errors.Is(err, services.ErrNoValidItems):
			// The result still carries the rejection reasons.
			ok(c, http.StatusUnprocessableEntity, IngestReceiptResponse{Result: result})
		default:
			fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.receiptSvc.(*services.ReceiptService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, idemKey, result.ReceiptID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, IngestReceiptResponse{Result: result})
}
