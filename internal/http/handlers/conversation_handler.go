// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations                (create)
//   - GET    /conversations               (list, paginated)
//   - GET    /conversations/:id           (fetch with derived counts)
//   - PUT    /conversations/:id           (rename)
//   - DELETE /conversations/:id           (delete + cascade)
//   - GET    /conversations/search/:query (substring search)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into the uniform envelope. Validation
// happens before any database call: a non-numeric id is a validation
// error, an unknown id is not-found.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
	"github.com/jmartel/go-convo-backend/internal/services"
	"github.com/jmartel/go-convo-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines conversation lifecycle operations consumed by
// the HTTP handlers. Implementations must be safe for concurrent use and
// honor the provided context.
type ConversationService interface {
	Create(ctx context.Context, userID *string, title string) (*domain.Conversation, error)
	Get(ctx context.Context, id int64) (*domain.Conversation, error)
	List(ctx context.Context, userID *string, limit, offset int) ([]domain.Conversation, int64, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, userID *string, limit int) ([]domain.Conversation, error)
}

// MessageService defines message operations consumed by the HTTP handlers.
type MessageService interface {
	Append(ctx context.Context, conversationID int64, content, msgType string) (*domain.Message, error)
	List(ctx context.Context, conversationID int64, limit, offset int) ([]domain.Message, int64, error)
	Recent(ctx context.Context, conversationID int64, n int) ([]domain.Message, error)
}

// StatsService defines the aggregate queries consumed by the HTTP handlers.
type StatsService interface {
	Global(ctx context.Context) (*services.GlobalStats, error)
	Conversation(ctx context.Context, conversationID int64) (*repo.MessageStats, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for conversations, messages, and
// stats. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	convSvc  ConversationService
	msgSvc   MessageService
	statsSvc StatsService
}

// New constructs a Handlers instance bound to the given services.
func New(convSvc ConversationService, msgSvc MessageService, statsSvc StatsService) *Handlers {
	return &Handlers{convSvc: convSvc, msgSvc: msgSvc, statsSvc: statsSvc}
}

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally names the conversation; defaults when blank.
	Title string `json:"title"`
	// UserID is reserved and optional.
	UserID *string `json:"user_id,omitempty"`
}

// UpdateConversationRequest is the JSON payload for renaming a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title"`
}

//
// Helpers
//

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// pathID parses the :id path parameter. A non-numeric id aborts with a
// validation error and returns false.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "conversation id must be a positive integer")
		return 0, false
	}
	return id, true
}

// listParams parses and clamps limit/offset query parameters.
func listParams(c *gin.Context) (limit, offset int) {
	limit = utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), defaultListLimit), defaultListLimit, maxListLimit)
	offset = utils.ClampOffset(utils.AtoiDefault(c.Query("offset"), 0))
	return
}

// userFilter reads the optional user_id query parameter.
func userFilter(c *gin.Context) *string {
	if v := strings.TrimSpace(c.Query("user_id")); v != "" {
		return &v
	}
	return nil
}

//
// Handlers
//

// CreateConversation handles POST /conversations. A missing or empty title
// defaults to "New Conversation" in the service layer.
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), req.UserID, req.Title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations handles GET /conversations with limit/offset paging and
// an optional user_id filter. Ordered by last-updated time descending.
func (h *Handlers) ListConversations(c *gin.Context) {
	limit, offset := listParams(c)

	items, total, err := h.convSvc.List(c.Request.Context(), userFilter(c), limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	okList(c, http.StatusOK, items, limit, offset, len(items), total)
}

// GetConversation handles GET /conversations/:id, returning the record with
// derived message count and last-message time.
func (h *Handlers) GetConversation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}

	conv, err := h.convSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, conv)
}

// UpdateConversation handles PUT /conversations/:id.
func (h *Handlers) UpdateConversation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}

	var req UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "title is required")
		return
	}

	if err := h.convSvc.UpdateTitle(c.Request.Context(), id, req.Title); err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case errors.Is(err, services.ErrEmptyTitle):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "title is required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "title": strings.TrimSpace(req.Title)})
}

// DeleteConversation handles DELETE /conversations/:id. Messages go with
// the conversation via the cascade.
func (h *Handlers) DeleteConversation(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}

	if err := h.convSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// SearchConversations handles GET /conversations/search/:query. Matches are
// case-insensitive substrings of either the title or any message content;
// a conversation matched through several messages appears once.
func (h *Handlers) SearchConversations(c *gin.Context) {
	query := c.Param("query")
	limit := utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), defaultListLimit), defaultListLimit, maxListLimit)

	items, err := h.convSvc.Search(c.Request.Context(), query, userFilter(c), limit)
	if err != nil {
		if errors.Is(err, services.ErrEmptySearchQuery) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, "search query must not be empty")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	okList(c, http.StatusOK, items, limit, 0, len(items), int64(len(items)))
}
