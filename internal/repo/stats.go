// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate/statistics queries computed
// in a single row: message counts by type and average content length,
// either globally or scoped to one conversation.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
)

// MessageStats is the aggregate row returned by the stats queries.
type MessageStats struct {
	TotalMessages    int64   `json:"total_messages"`
	UserMessages     int64   `json:"user_messages"`
	AIMessages       int64   `json:"ai_messages"`
	ErrorMessages    int64   `json:"error_messages"`
	AvgContentLength float64 `json:"avg_content_length"`
}

// GetMessageStats computes message aggregates in one query. conversationID
// is an optional scope; nil means global. An empty table yields zeros
// (COALESCE guards the AVG).
func GetMessageStats(ctx context.Context, db *gorm.DB, conversationID *int64) (*MessageStats, error) {
	const sel = `
		COUNT(*) AS total_messages,
		COALESCE(SUM(CASE WHEN type = 'user'  THEN 1 ELSE 0 END), 0) AS user_messages,
		COALESCE(SUM(CASE WHEN type = 'ai'    THEN 1 ELSE 0 END), 0) AS ai_messages,
		COALESCE(SUM(CASE WHEN type = 'error' THEN 1 ELSE 0 END), 0) AS error_messages,
		COALESCE(AVG(LENGTH(content)), 0)                            AS avg_content_length`

	q := db.WithContext(ctx).Model(&domain.Message{}).Select(sel)
	if conversationID != nil {
		q = q.Where("conversation_id = ?", *conversationID)
	}
	var out MessageStats
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
