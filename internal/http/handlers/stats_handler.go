// Stats and health HTTP handlers.
//
//   - GET /stats                   (global aggregate)
//   - GET /conversations/:id/stats (per-conversation aggregate)
//   - GET /health                  (process liveness + DB reachability)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/services"
)

// GlobalStats handles GET /stats.
func (h *Handlers) GlobalStats(c *gin.Context) {
	stats, err := h.statsSvc.Global(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// ConversationStats handles GET /conversations/:id/stats.
func (h *Handlers) ConversationStats(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}

	stats, err := h.statsSvc.Conversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// Health returns process liveness plus database reachability. The client
// façade probes this endpoint once at construction to decide between the
// remote API and its local fallback, so a degraded database is reported
// with a 503 rather than folded into a 200.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		status := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, Envelope{
			Success: status == http.StatusOK,
			Data: gin.H{
				"status":   "ok",
				"database": dbStatus,
			},
		})
	}
}
