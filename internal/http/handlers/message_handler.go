// Message HTTP handlers.
//
// This file exposes the nested message endpoints:
//   - POST /conversations/:id/messages        (append)
//   - GET  /conversations/:id/messages        (list ascending, paginated)
//   - GET  /conversations/:id/messages/recent (last N, re-sorted ascending)
//
// Content and type are validated before any database call; invalid input
// never reaches storage.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmartel/go-convo-backend/internal/services"
	"github.com/jmartel/go-convo-backend/internal/utils"
)

// AppendMessageRequest is the JSON payload for appending a message.
type AppendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

const (
	defaultRecentCount = 10
	maxRecentCount     = 100
)

// AppendMessage handles POST /conversations/:id/messages. The response
// echoes the stored message, content unchanged.
func (h *Handlers) AppendMessage(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}

	var req AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return
	}

	msg, err := h.msgSvc.Append(c.Request.Context(), id, req.Content, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyContent):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "message content must not be empty")
		case errors.Is(err, services.ErrContentTooLong):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "message content exceeds 1000 characters")
		case errors.Is(err, services.ErrInvalidMessageType):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "message type must be one of: user, ai, error")
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, msg)
}

// ListMessages handles GET /conversations/:id/messages, ascending by
// timestamp with limit/offset paging.
func (h *Handlers) ListMessages(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	limit, offset := listParams(c)

	items, total, err := h.msgSvc.List(c.Request.Context(), id, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	okList(c, http.StatusOK, items, limit, offset, len(items), total)
}

// RecentMessages handles GET /conversations/:id/messages/recent?count=N,
// returning the most recent N messages re-sorted into ascending order.
func (h *Handlers) RecentMessages(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	n := utils.ClampLimit(utils.AtoiDefault(c.Query("count"), defaultRecentCount), defaultRecentCount, maxRecentCount)

	items, err := h.msgSvc.Recent(c.Request.Context(), id, n)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	okList(c, http.StatusOK, items, n, 0, len(items), int64(len(items)))
}
