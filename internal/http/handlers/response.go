// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by every endpoint: the
// structured error envelope and the small success helpers. Every failure
// path flows through fail() so the envelope, the stable code, and the 5xx
// logging stay uniform across receipts, comparisons, watches, and stores.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "watch not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "id": "abc123", "item_name": "Coca Cola 1L" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zandoapp/zando-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints. RequestID
// echoes the X-Request-ID header so client reports can be matched to server
// logs; Code is one of the stable constants in errors.go; Message is safe
// to surface to users. Referenced by the Swagger annotations on every
// handler.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"watch not found"`
}

// fail aborts the request with the standard envelope at the given status.
// 5xx responses are additionally logged through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for code outside this package,
// such as the router's NoRoute and NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent answers 204 for operations with nothing to return.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
