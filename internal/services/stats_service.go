// Package services – StatsService
//
// Thin orchestration over the aggregate queries: global stats additionally
// report the conversation count; per-conversation stats verify the
// conversation exists so unknown ids surface as not-found rather than an
// all-zero row.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
)

// GlobalStats is the system-wide aggregate served by GET /stats.
type GlobalStats struct {
	TotalConversations int64 `json:"total_conversations"`
	repo.MessageStats
}

// StatsService serves message aggregates.
type StatsService struct {
	DB *gorm.DB
}

// NewStatsService constructs a StatsService.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// Global returns message aggregates across all conversations plus the total
// conversation count.
func (s *StatsService) Global(ctx context.Context) (*GlobalStats, error) {
	ms, err := repo.GetMessageStats(ctx, s.DB, nil)
	if err != nil {
		return nil, err
	}
	var convs int64
	if err := s.DB.WithContext(ctx).Model(&domain.Conversation{}).Count(&convs).Error; err != nil {
		return nil, err
	}
	return &GlobalStats{TotalConversations: convs, MessageStats: *ms}, nil
}

// Conversation returns message aggregates scoped to one conversation.
// Returns ErrConversationNotFound for unknown ids.
func (s *StatsService) Conversation(ctx context.Context, conversationID int64) (*repo.MessageStats, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrConversationNotFound
	}
	return repo.GetMessageStats(ctx, s.DB, &conversationID)
}
