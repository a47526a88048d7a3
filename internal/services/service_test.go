package services

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
)

// testDB opens a fresh migrated SQLite database in a temp dir.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), repo.PoolOptions{MaxOpen: 1, MaxIdle: 1})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// gormRepo adapts the repo free functions to the ConversationRepo interface
// for service-level tests.
type gormRepo struct{}

func (gormRepo) CreateConversation(ctx context.Context, db *gorm.DB, userID *string, title string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, title)
}

func (gormRepo) GetConversation(ctx context.Context, db *gorm.DB, id int64) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id)
}

func (gormRepo) ListConversations(ctx context.Context, db *gorm.DB, userID *string, limit, offset int) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID, limit, offset)
}

func (gormRepo) CountConversations(ctx context.Context, db *gorm.DB, userID *string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (gormRepo) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id int64, title string) (bool, error) {
	return repo.UpdateConversationTitle(ctx, db, id, title)
}

func (gormRepo) DeleteConversation(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return repo.DeleteConversation(ctx, db, id)
}

func (gormRepo) SearchConversations(ctx context.Context, db *gorm.DB, query string, userID *string, limit int) ([]domain.Conversation, error) {
	return repo.SearchConversations(ctx, db, query, userID, limit)
}

func newConvSvc(t *testing.T) *ConversationService {
	t.Helper()
	return NewConversationService(testDB(t), gormRepo{})
}
