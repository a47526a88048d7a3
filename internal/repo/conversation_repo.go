// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Untrusted input is always bound as a
// parameter, never interpolated into query text.
//
// Error semantics:
//   - When a conversation is not found, Get returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Update/Delete report "row affected" as a bool and do not error when
//     the id does not exist.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new Conversation row with the given title.
// userID is optional (reserved column). Timestamps are set to UTC.
func CreateConversation(ctx context.Context, db *gorm.DB, userID *string, title string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation fetches a single conversation by id, populating the
// derived MessageCount and LastMessageAt fields from the messages table.
// If the record does not exist, it returns ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id int64) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := attachDerived(ctx, db, []*domain.Conversation{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns a page of conversations ordered by last-updated
// time descending (most recently active first). userID is an optional
// filter. Derived fields are populated for the whole page in one grouped
// query.
func ListConversations(ctx context.Context, db *gorm.DB, userID *string, limit, offset int) ([]domain.Conversation, error) {
	q := db.WithContext(ctx).Order("updated_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var out []domain.Conversation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	refs := make([]*domain.Conversation, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := attachDerived(ctx, db, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// CountConversations returns the total number of conversations, optionally
// filtered by owner. Used for pagination metadata.
func CountConversations(ctx context.Context, db *gorm.DB, userID *string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Conversation{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// UpdateConversationTitle updates the title (and bumps updated_at) of the
// conversation identified by id. It reports whether a row was affected; a
// missing id is not an error.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id int64, title string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteConversation removes a conversation row. Dependent messages are
// removed by the ON DELETE CASCADE constraint (foreign_keys PRAGMA is set
// at open). Reports whether a row was affected.
func DeleteConversation(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).Delete(&domain.Conversation{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SearchConversations performs a case-insensitive substring match against
// conversation titles and message content. A conversation matched through
// several of its messages appears exactly once. Results are ordered by
// last-updated time descending.
func SearchConversations(ctx context.Context, db *gorm.DB, query string, userID *string, limit int) ([]domain.Conversation, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Distinct("conversations.*").
		Joins("LEFT JOIN messages ON messages.conversation_id = conversations.id").
		Where("lower(conversations.title) LIKE ? ESCAPE '\\' OR lower(messages.content) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("conversations.updated_at DESC")
	if userID != nil {
		q = q.Where("conversations.user_id = ?", *userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Conversation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	refs := make([]*domain.Conversation, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := attachDerived(ctx, db, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachDerived populates MessageCount and LastMessageAt for the given
// conversations. Counts come from one grouped query; the last-message time
// is read per conversation with an ordered LIMIT 1 (avoid MAX() -> TEXT in
// SQLite).
func attachDerived(ctx context.Context, db *gorm.DB, convs []*domain.Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	ids := make([]int64, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}

	var rows []struct {
		ConversationID int64
		N              int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.N
	}

	for _, c := range convs {
		c.MessageCount = counts[c.ID]
		c.LastMessageAt = nil
		if c.MessageCount == 0 {
			continue
		}
		var row struct {
			Timestamp time.Time
		}
		err := db.WithContext(ctx).
			Model(&domain.Message{}).
			Select("timestamp").
			Where("conversation_id = ?", c.ID).
			Order("timestamp DESC").
			Limit(1).
			Scan(&row).Error
		if err != nil {
			return err
		}
		last := row.Timestamp
		c.LastMessageAt = &last
	}
	return nil
}

// escapeLike escapes LIKE wildcards in user input so they match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
