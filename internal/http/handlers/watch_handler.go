// Watch HTTP handlers.
//
// Subscriptions and alert history:
//   - POST   /watches            (subscribe to price drops)
//   - GET    /watches            (list, paginated)
//   - PATCH  /watches/{id}       (pause / resume)
//   - DELETE /watches/{id}       (unsubscribe)
//   - GET    /notifications      (alert history, paginated)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zandoapp/zando-backend/internal/domain"
	"github.com/zandoapp/zando-backend/internal/services"
)

//
// DTOs
//

// CreateWatchRequest is the JSON payload for a new subscription.
type CreateWatchRequest struct {
	// ItemName is free text; normalized server-side before matching.
	ItemName string `json:"item_name" binding:"required,min=1,max=255" example:"Coca Cola 1L"`
	// City scopes the watch; optional.
	City string `json:"city,omitempty" example:"Kinshasa"`
	// AlertType is one of any_drop, threshold, percentage.
	AlertType string `json:"alert_type" binding:"required" example:"threshold"`
	// TargetPrice is required for threshold alerts.
	TargetPrice *float64 `json:"target_price,omitempty" example:"1200"`
	// PercentageDrop is required for percentage alerts (0-100).
	PercentageDrop *float64 `json:"percentage_drop,omitempty" example:"15"`
	// BaselinePrice anchors percentage alerts; defaults to the current index minimum.
	BaselinePrice float64 `json:"baseline_price,omitempty" example:"1500"`
	// Currency is the 3-letter code; the configured default applies when empty.
	Currency string `json:"currency,omitempty" example:"CDF"`
}

// UpdateWatchRequest toggles a subscription's active flag.
type UpdateWatchRequest struct {
	IsActive *bool `json:"is_active" binding:"required" example:"false"`
}

// WatchListResponse wraps a page of subscriptions.
type WatchListResponse struct {
	Watches    []domain.WatchedItem `json:"watches"`
	Pagination Pagination           `json:"pagination"`
}

// NotificationListResponse wraps a page of the user's alert history.
type NotificationListResponse struct {
	Notifications []domain.NotificationRecord `json:"notifications"`
	Pagination    Pagination                  `json:"pagination"`
}

//
// Handlers
//

// CreateWatch godoc
// @ID          createWatch
// @Summary     Subscribe to price drops for an item
// @Description Creates a watch. threshold alerts require target_price, percentage alerts require percentage_drop. Duplicate item+city subscriptions are rejected.
// @Tags        Watches
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateWatchRequest  true  "Watch payload"
//
// @Success     201  {object}  domain.WatchedItem
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Already watching this item"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /watches [post]
func (h *Handlers) CreateWatch(c *gin.Context) {
	var req CreateWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	watch, err := h.watchSvc.Create(c.Request.Context(), userID(c), services.CreateWatchInput{
		ItemName:       req.ItemName,
		City:           req.City,
		AlertType:      req.AlertType,
		TargetPrice:    req.TargetPrice,
		PercentageDrop: req.PercentageDrop,
		BaselinePrice:  req.BaselinePrice,
		Currency:       req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyItemName),
			errors.Is(err, services.ErrInvalidAlertType),
			errors.Is(err, services.ErrMissingTarget):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicateWatch):
			fail(c, http.StatusConflict, ErrCodeConflict, "watch already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, watch)
}

// ListWatches godoc
// @ID          listWatches
// @Summary     List the user's watches (paginated)
// @Tags        Watches
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.WatchListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /watches [get]
func (h *Handlers) ListWatches(c *gin.Context) {
	page, pageSize := clampPagination(c)

	watches, total, err := h.watchSvc.ListPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, WatchListResponse{
		Watches:    watches,
		Pagination: paginationMeta(page, pageSize, total),
	})
}

// UpdateWatch godoc
// @ID          updateWatch
// @Summary     Pause or resume a watch
// @Description Sets the watch's active flag. Paused watches are skipped by the monitor but keep their history.
// @Tags        Watches
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Watch ID (UUID)"
// @Param       body       body    handlers.UpdateWatchRequest  true  "Active flag"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /watches/{id} [patch]
func (h *Handlers) UpdateWatch(c *gin.Context) {
	var req UpdateWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "is_active required")
		return
	}

	err := h.watchSvc.SetActive(c.Request.Context(), userID(c), c.Param("id"), *req.IsActive)
	if err != nil {
		if errors.Is(err, services.ErrWatchNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "watch not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// DeleteWatch godoc
// @ID          deleteWatch
// @Summary     Delete a watch
// @Tags        Watches
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Watch ID (UUID)"
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Watch not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /watches/{id} [delete]
func (h *Handlers) DeleteWatch(c *gin.Context) {
	err := h.watchSvc.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrWatchNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "watch not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List the user's alert history (paginated)
// @Description Returns fired alerts, most recent first. History is append-only.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.NotificationListResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	page, pageSize := clampPagination(c)

	records, total, err := h.watchSvc.NotificationsPage(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, NotificationListResponse{
		Notifications: records,
		Pagination:    paginationMeta(page, pageSize, total),
	})
}
