// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the lifecycle of messages. It validates content and type before any
// store is touched, verifies the parent conversation exists, and delegates
// persistence to the repo layer (which also performs the best-effort
// updated_at touch on the parent).
//
// Observability: Append and List are OpenTelemetry-instrumented; spans
// carry the conversation id and pagination parameters.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
)

// MessageService coordinates message validation and persistence.
type MessageService struct {
	DB *gorm.DB
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{DB: db}
}

// ValidateMessage checks content and type against the boundary rules
// shared by the HTTP API and the client façade's local store: non-empty
// content, at most domain.MaxContentLength runes, type in the closed set.
func ValidateMessage(content, msgType string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return ErrContentTooLong
	}
	if !domain.ValidMessageType(msgType) {
		return ErrInvalidMessageType
	}
	return nil
}

// Append validates and stores a message in an existing conversation.
// Content is stored exactly as received (no trimming); validation only
// rejects, never coerces. Returns ErrConversationNotFound when the parent
// does not exist.
func (s *MessageService) Append(ctx context.Context, conversationID int64, content, msgType string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.Int64("conversation.id", conversationID),
			attribute.String("message.type", msgType),
		),
	)
	defer span.End()

	if err := ValidateMessage(content, msgType); err != nil {
		return nil, err
	}
	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return repo.CreateMessage(ctx, s.DB, conversationID, content, msgType)
}

// List returns a page of a conversation's messages in ascending timestamp
// order plus the total count.
func (s *MessageService) List(ctx context.Context, conversationID int64, limit, offset int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int64("conversation.id", conversationID),
			attribute.Int("limit", limit),
			attribute.Int("offset", offset),
		),
	)
	defer span.End()

	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return nil, 0, err
	}
	total, err := repo.CountMessages(ctx, s.DB, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessages(ctx, s.DB, conversationID, limit, offset)
	return items, total, err
}

// Recent returns the last n messages of a conversation, re-sorted into
// ascending order.
func (s *MessageService) Recent(ctx context.Context, conversationID int64, n int) ([]domain.Message, error) {
	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return repo.RecentMessages(ctx, s.DB, conversationID, n)
}

// Edit replaces a message's content after validation. The HTTP surface does
// not route here yet; the operation exists for parity with the data-access
// contract. The type check is skipped since the type is unchanged.
func (s *MessageService) Edit(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return ErrContentTooLong
	}
	ok, err := repo.UpdateMessageContent(ctx, s.DB, id, content)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMessageNotFound
	}
	return nil
}

// ensureConversation verifies the parent row exists before any message
// operation, mapping a missing row to ErrConversationNotFound.
func (s *MessageService) ensureConversation(ctx context.Context, conversationID int64) error {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}
