// Comparison HTTP handlers.
//
// This file exposes the read side of the price index:
//   - POST /comparisons              (price a shopping list, read-only)
//   - GET  /products/{name}/prices   (history, paginated, ETag support)
//   - GET  /products/similar?q=      (cross-store fuzzy browse)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/normalize"
	"github.com/zandoapp/zando-backend/internal/repo"
	"github.com/zandoapp/zando-backend/internal/services"
)

//
// DTOs
//

// CompareRequest is the JSON payload for pricing a shopping list.
type CompareRequest struct {
	// StoreName is where the shopper currently is; reported as current_store.
	StoreName string `json:"store_name" binding:"required,min=1,max=255" example:"Kin Marché"`
	// City scopes the comparison context; optional.
	City string `json:"city,omitempty" example:"Kinshasa"`
	// Currency is the 3-letter code; the configured default applies when empty.
	Currency string `json:"currency,omitempty" example:"CDF"`
	// Items are the raw lines to price, untrusted.
	Items []domain.RawItem `json:"items" binding:"required"`
}

// ProductPricesResponse wraps a page of price observations.
type ProductPricesResponse struct {
	Product    string              `json:"product"`
	Currency   string              `json:"currency"`
	Prices     []domain.PricePoint `json:"prices"`
	Pagination Pagination          `json:"pagination"`
}

// SimilarProductsResponse lists cross-store alternatives for a fuzzy query.
type SimilarProductsResponse struct {
	Query        string                      `json:"query"`
	Currency     string                      `json:"currency"`
	Alternatives []services.StoreAlternative `json:"alternatives"`
}

//
// Handlers
//

// CompareItems godoc
// @ID          compareItems
// @Summary     Price a shopping list
// @Description Sanitizes the given items and compares each against recorded history without storing anything.
// @Tags        Comparisons
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CompareRequest  true  "Shopping list payload"
//
// @Success     200  {object}  services.CompareResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     422  {object}  handlers.ErrorResponse  "No valid items"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /comparisons [post]
func (h *Handlers) CompareItems(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	result, err := h.compareSvc.CompareShoppingList(c.Request.Context(), services.CompareInput{
		StoreName: req.StoreName,
		City:      req.City,
		Currency:  req.Currency,
		Items:     req.Items,
	}, "")
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyReceipt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "items required")
		case errors.Is(err, services.ErrUnsupportedCurrency):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unsupported currency")
		case errors.Is(err, services.ErrNoValidItems):
			ok(c, http.StatusUnprocessableEntity, result)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCompareFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, result)
}

// ListProductPrices godoc
// @ID          listProductPrices
// @Summary     List a product's price history (paginated)
// @Description Returns recorded observations for a product, most recent first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Products
// @Produce     json
//
// @Param       name           path    string  true  "Product name (free text, normalized server-side)"  example(coca cola 1l)
// @Param       currency       query   string  false "Currency code"  default(CDF)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ProductPricesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/{name}/prices [get]
func (h *Handlers) ListProductPrices(c *gin.Context) {
	ctx := c.Request.Context()

	key := normalize.Key(c.Param("name"))
	if key == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product name required")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("currency", "CDF")))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.compareSvc.(*services.CompareService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.IndexStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"prices:%s:%s:%d:%d"`, key, currency, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	points, total, err := h.compareSvc.ProductHistoryPage(ctx, key, currency, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ProductPricesResponse{
		Product:    key,
		Currency:   currency,
		Prices:     points,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// SimilarProducts godoc
// @ID          similarProducts
// @Summary     Browse similar products across stores
// @Description Fuzzy-matches the query against the canonical product index and returns the latest price of each match at every store, best match first.
// @Tags        Products
// @Produce     json
//
// @Param       q         query  string  true  "Free-text product query"  example(coca cola)
// @Param       currency  query  string  false "Currency code"  default(CDF)
//
// @Success     200  {object} handlers.SimilarProductsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products/similar [get]
func (h *Handlers) SimilarProducts(c *gin.Context) {
	query := normalize.Key(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q required")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("currency", "CDF")))

	alts, err := h.compareSvc.FindSimilarAcrossStores(c.Request.Context(), query, currency)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SimilarProductsResponse{
		Query:        query,
		Currency:     currency,
		Alternatives: alts,
	})
}
