// Package services – ConversationService
//
// This file implements the ConversationService, which manages the lifecycle
// of conversations. It normalizes and defaults titles, coordinates
// repository operations for creating, fetching, listing (with pagination),
// renaming, deleting, and searching conversations, and maps repository
// errors to service-level sentinels so handlers can translate them to HTTP
// results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
)

// titleMaxLen caps stored titles by rune length.
const titleMaxLen = 255

// ConversationRepo defines the repository contract required by
// ConversationService. Implementations own persistence of the conversation
// aggregate.
type ConversationRepo interface {
	// CreateConversation inserts a new conversation row.
	CreateConversation(ctx context.Context, db *gorm.DB, userID *string, title string) (*domain.Conversation, error)

	// GetConversation fetches a conversation by id with derived fields.
	GetConversation(ctx context.Context, db *gorm.DB, id int64) (*domain.Conversation, error)

	// ListConversations returns a page ordered by updated_at descending.
	ListConversations(ctx context.Context, db *gorm.DB, userID *string, limit, offset int) ([]domain.Conversation, error)

	// CountConversations returns the total for pagination metadata.
	CountConversations(ctx context.Context, db *gorm.DB, userID *string) (int64, error)

	// UpdateConversationTitle renames a conversation; reports row affected.
	UpdateConversationTitle(ctx context.Context, db *gorm.DB, id int64, title string) (bool, error)

	// DeleteConversation removes a conversation (messages cascade).
	DeleteConversation(ctx context.Context, db *gorm.DB, id int64) (bool, error)

	// SearchConversations substring-matches titles and message content.
	SearchConversations(ctx context.Context, db *gorm.DB, query string, userID *string, limit int) ([]domain.Conversation, error)
}

// ConversationService provides conversation-level operations. It enforces
// title rules and translates repo results into service errors.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo
}

// NewConversationService constructs a ConversationService.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{DB: db, Repo: r}
}

// Create inserts a new conversation. A blank title defaults to
// "New Conversation"; titles are trimmed and clipped to 255 runes.
func (s *ConversationService) Create(ctx context.Context, userID *string, title string) (*domain.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultTitle
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, clipTitle(title))
}

// Get fetches one conversation with derived message count and last-message
// time. Returns ErrConversationNotFound for unknown ids.
func (s *ConversationService) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	c, err := s.Repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns a page of conversations plus the total count.
func (s *ConversationService) List(ctx context.Context, userID *string, limit, offset int) ([]domain.Conversation, int64, error) {
	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}
	items, err := s.Repo.ListConversations(ctx, s.DB, userID, limit, offset)
	return items, total, err
}

// UpdateTitle renames a conversation. A blank title is rejected with
// ErrEmptyTitle (renames never default, unlike Create). Returns
// ErrConversationNotFound when no row was affected.
func (s *ConversationService) UpdateTitle(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	ok, err := s.Repo.UpdateConversationTitle(ctx, s.DB, id, clipTitle(title))
	if err != nil {
		return err
	}
	if !ok {
		return ErrConversationNotFound
	}
	return nil
}

// Delete removes a conversation and, via cascade, all of its messages.
// Returns ErrConversationNotFound when no row was affected.
func (s *ConversationService) Delete(ctx context.Context, id int64) error {
	ok, err := s.Repo.DeleteConversation(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConversationNotFound
	}
	return nil
}

// Search substring-matches the query against titles and message content,
// case-insensitively, deduplicating conversations matched through multiple
// messages.
func (s *ConversationService) Search(ctx context.Context, query string, userID *string, limit int) ([]domain.Conversation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearchQuery
	}
	return s.Repo.SearchConversations(ctx, s.DB, query, userID, limit)
}

// clipTitle truncates a title to the maximum stored rune length.
func clipTitle(title string) string {
	if utf8.RuneCountInString(title) > titleMaxLen {
		return string([]rune(title)[:titleMaxLen])
	}
	return title
}
