// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the uniform response envelope used by every endpoint.
// Success responses carry `{success: true, data: ...}`; failures carry
// `{success: false, error: "...", code: "..."}` with a stable machine-
// readable code; list responses additionally carry pagination metadata
// (limit, offset, count, total). Keeping one shape for both stores lets the
// client façade swap between the remote API and its local fallback without
// the presentation layer noticing.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmartel/go-convo-backend/internal/http/middleware"
)

// Envelope is the uniform response body for non-list endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ListEnvelope is the uniform response body for list endpoints. Count is
// the number of items returned; Total is the number of matching rows.
type ListEnvelope struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Count   int   `json:"count"`
	Total   int64 `json:"total"`
}

// ok writes a success envelope with the given HTTP status.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// okList writes a success envelope with pagination metadata.
func okList(c *gin.Context, status int, data any, limit, offset, count int, total int64) {
	c.JSON(status, ListEnvelope{
		Success: true,
		Data:    data,
		Limit:   limit,
		Offset:  offset,
		Count:   count,
		Total:   total,
	})
}

// fail aborts the request with a structured error envelope. Server errors
// (>= 500) are logged with the request-scoped logger; the message sent to
// the client stays generic so no internal detail leaks.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
		if gin.Mode() == gin.ReleaseMode {
			msg = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: msg, Code: code})
}

// Fail is the exported variant of fail(), used by router setup for the
// catch-all routes.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }
