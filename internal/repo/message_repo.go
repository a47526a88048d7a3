// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
)

// CreateMessage inserts a new message row and touches the parent
// conversation's updated_at. The touch is best effort: a failure is logged
// and never fails the message creation.
func CreateMessage(ctx context.Context, db *gorm.DB, conversationID int64, content, msgType string) (*domain.Message, error) {
	m := &domain.Message{
		ConversationID: conversationID,
		Content:        content,
		Type:           msgType,
		Timestamp:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	TouchConversation(ctx, db, conversationID)
	return m, nil
}

// TouchConversation bumps a conversation's updated_at to now. Best effort:
// errors are logged, not propagated.
func TouchConversation(ctx context.Context, db *gorm.DB, conversationID int64) {
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		log.Warn().
			Err(err).
			Int64("conversation_id", conversationID).
			Msg("failed to touch conversation updated_at")
	}
}

// ListMessages returns a paginated slice of a conversation's messages
// ordered deterministically (Timestamp ASC, ID ASC).
func ListMessages(ctx context.Context, db *gorm.DB, conversationID int64, limit, offset int) ([]domain.Message, error) {
	q := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Message
	err := q.Find(&out).Error
	return out, err
}

// CountMessages returns the number of messages in a conversation.
func CountMessages(ctx context.Context, db *gorm.DB, conversationID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	return total, err
}

// RecentMessages returns the most recent n messages of a conversation,
// re-sorted ascending so callers can render them in insertion order.
func RecentMessages(ctx context.Context, db *gorm.DB, conversationID int64, n int) ([]domain.Message, error) {
	if n <= 0 {
		return []domain.Message{}, nil
	}
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC, id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// Reverse into ascending order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id int64) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMessageContent replaces a message's content. The data layer exposes
// this edit operation even though the API surface does not route to it yet.
// Reports whether a row was affected.
func UpdateMessageContent(ctx context.Context, db *gorm.DB, id int64, content string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ?", id).
		Update("content", content)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
