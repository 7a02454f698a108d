// Store HTTP handlers.
//
// Exposes per-store aggregate metadata over the price index:
//   - GET /stores/{name}/stats
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zandoapp/zando-backend/internal/normalize"
	"github.com/zandoapp/zando-backend/internal/repo"
	"github.com/zandoapp/zando-backend/internal/services"
)

// StoreStatsResponse reports how much a store has contributed to the index.
type StoreStatsResponse struct {
	Store      string     `json:"store"`
	PriceCount int64      `json:"price_count"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// StoreStats godoc
// @ID          storeStats
// @Summary     Per-store contribution stats
// @Description Returns how many price observations a store has contributed and when it was last seen. Supports weak ETag via If-None-Match.
// @Tags        Stores
// @Produce     json
//
// @Param       name           path    string  true  "Store name (free text, normalized server-side)"  example(Kin Marché)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.StoreStatsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /stores/{name}/stats [get]
func (h *Handlers) StoreStats(c *gin.Context) {
	key := normalize.Key(c.Param("name"))
	if key == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "store name required")
		return
	}

	var db *gorm.DB
	if svc, okSvc := h.compareSvc.(*services.CompareService); okSvc {
		db = svc.DB
	}
	if db == nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "store stats unavailable")
		return
	}

	count, lastSeen, err := repo.StoreStats(c.Request.Context(), db, key)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	var ts int64
	if lastSeen != nil {
		ts = lastSeen.Unix()
	}
	etag := fmt.Sprintf(`W/"store:%s:%d:%d"`, key, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, StoreStatsResponse{
		Store:      key,
		PriceCount: count,
		LastSeenAt: lastSeen,
	})
}
