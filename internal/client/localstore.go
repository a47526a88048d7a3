// Local fallback store.
//
// LocalStore persists conversations and messages as JSON files under a data
// directory, keyed the way a browser localStorage client keys them: one
// "chat_conversations" document holding every conversation, and one
// "chat_messages_<id>" document per conversation. The JSON shapes are the
// domain types, so records written here round-trip through the same structs
// the remote API serves.
//
// IDs are minted client-side from the current epoch milliseconds plus a
// random fraction, so concurrent local creations do not collide and local
// IDs never overlap the server's small autoincrement range.
package client

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/jmartel/go-convo-backend/internal/domain"
	"github.com/jmartel/go-convo-backend/internal/repo"
	"github.com/jmartel/go-convo-backend/internal/services"
)

const (
	conversationsKey  = "chat_conversations"
	messagesKeyPrefix = "chat_messages_"
)

// LocalStore is a file-backed conversation store. All methods are safe for
// concurrent use within one process; the store assumes it owns its directory.
type LocalStore struct {
	mu  sync.Mutex
	dir string
}

// NewLocalStore opens (creating if needed) a store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// mintLocalID produces a collision-resistant local identifier: epoch
// milliseconds scaled by 1000 plus a random sub-millisecond component.
func mintLocalID() int64 {
	return time.Now().UnixMilli()*1000 + rand.Int63n(1000)
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// readDoc unmarshals the JSON document at key into out. A missing file is
// not an error; out is left untouched.
func (s *LocalStore) readDoc(key string, out any) error {
	buf, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(buf, out)
}

// writeDoc marshals v and writes it atomically (temp file + rename).
func (s *LocalStore) writeDoc(key string, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

func (s *LocalStore) readConversations() ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := s.readDoc(conversationsKey, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *LocalStore) readMessages(conversationID int64) ([]domain.Message, error) {
	var msgs []domain.Message
	key := fmt.Sprintf("%s%d", messagesKeyPrefix, conversationID)
	if err := s.readDoc(key, &msgs); err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

func (s *LocalStore) writeMessages(conversationID int64, msgs []domain.Message) error {
	return s.writeDoc(fmt.Sprintf("%s%d", messagesKeyPrefix, conversationID), msgs)
}

// attachDerived fills MessageCount and LastMessageAt from the conversation's
// message document, mirroring what the server computes with SQL.
func (s *LocalStore) attachDerived(c *domain.Conversation) error {
	msgs, err := s.readMessages(c.ID)
	if err != nil {
		return err
	}
	c.MessageCount = int64(len(msgs))
	if n := len(msgs); n > 0 {
		t := msgs[n-1].Timestamp
		c.LastMessageAt = &t
	} else {
		c.LastMessageAt = nil
	}
	return nil
}

// CreateConversation stores a new conversation. An empty or blank title gets
// the default; long titles are clipped to the same 255-character cap the
// server column enforces.
func (s *LocalStore) CreateConversation(title string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultTitle
	}
	if r := []rune(title); len(r) > 255 {
		title = string(r[:255])
	}

	convs, err := s.readConversations()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        mintLocalID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	convs = append(convs, conv)
	if err := s.writeDoc(conversationsKey, convs); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversation returns one conversation with derived fields, or
// services.ErrConversationNotFound.
func (s *LocalStore) GetConversation(id int64) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.readConversations()
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].ID == id {
			c := convs[i]
			if err := s.attachDerived(&c); err != nil {
				return nil, err
			}
			return &c, nil
		}
	}
	return nil, services.ErrConversationNotFound
}

// ListConversations returns a page ordered by last activity (updated_at
// descending, id descending as tiebreak), with derived fields attached.
func (s *LocalStore) ListConversations(limit, offset int) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.readConversations()
	if err != nil {
		return nil, err
	}
	sortByActivity(convs)

	if offset >= len(convs) {
		return []domain.Conversation{}, nil
	}
	convs = convs[offset:]
	if limit > 0 && limit < len(convs) {
		convs = convs[:limit]
	}

	out := make([]domain.Conversation, len(convs))
	copy(out, convs)
	for i := range out {
		if err := s.attachDerived(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateTitle renames a conversation and bumps updated_at. A blank title is
// rejected with services.ErrEmptyTitle, the same answer the remote rename
// gives; unknown ids return services.ErrConversationNotFound.
func (s *LocalStore) UpdateTitle(id int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return services.ErrEmptyTitle
	}
	if r := []rune(title); len(r) > 255 {
		title = string(r[:255])
	}

	convs, err := s.readConversations()
	if err != nil {
		return err
	}
	for i := range convs {
		if convs[i].ID == id {
			convs[i].Title = title
			convs[i].UpdatedAt = time.Now().UTC()
			return s.writeDoc(conversationsKey, convs)
		}
	}
	return services.ErrConversationNotFound
}

// DeleteConversation removes a conversation and its message document.
func (s *LocalStore) DeleteConversation(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.readConversations()
	if err != nil {
		return err
	}
	idx := -1
	for i := range convs {
		if convs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return services.ErrConversationNotFound
	}
	convs = append(convs[:idx], convs[idx+1:]...)
	if err := s.writeDoc(conversationsKey, convs); err != nil {
		return err
	}
	// Cascade: drop the message document. A missing file is fine.
	err = os.Remove(s.path(fmt.Sprintf("%s%d", messagesKeyPrefix, id)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SearchConversations matches the query case-insensitively against titles
// and message content, returning at most limit conversations ordered by last
// activity. Each conversation appears once regardless of how many of its
// messages match.
func (s *LocalStore) SearchConversations(query string, limit int) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.ErrEmptySearchQuery
	}

	fold := cases.Fold()
	needle := fold.String(query)

	convs, err := s.readConversations()
	if err != nil {
		return nil, err
	}
	sortByActivity(convs)

	var out []domain.Conversation
	for i := range convs {
		matched := strings.Contains(fold.String(convs[i].Title), needle)
		if !matched {
			msgs, err := s.readMessages(convs[i].ID)
			if err != nil {
				return nil, err
			}
			for j := range msgs {
				if strings.Contains(fold.String(msgs[j].Content), needle) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		c := convs[i]
		if err := s.attachDerived(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if out == nil {
		out = []domain.Conversation{}
	}
	return out, nil
}

// AppendMessage validates and stores a message, bumping the parent's
// updated_at. Validation is the same boundary check the server applies.
func (s *LocalStore) AppendMessage(conversationID int64, content, msgType string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := services.ValidateMessage(content, msgType); err != nil {
		return nil, err
	}

	convs, err := s.readConversations()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range convs {
		if convs[i].ID == conversationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, services.ErrConversationNotFound
	}

	msgs, err := s.readMessages(conversationID)
	if err != nil {
		return nil, err
	}

	msg := domain.Message{
		ID:             mintLocalID(),
		ConversationID: conversationID,
		Content:        content,
		Type:           msgType,
		Timestamp:      time.Now().UTC(),
	}
	msgs = append(msgs, msg)
	if err := s.writeMessages(conversationID, msgs); err != nil {
		return nil, err
	}

	convs[idx].UpdatedAt = time.Now().UTC()
	if err := s.writeDoc(conversationsKey, convs); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns a page of messages ascending by timestamp.
func (s *LocalStore) ListMessages(conversationID int64, limit, offset int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConversation(conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.readMessages(conversationID)
	if err != nil {
		return nil, err
	}
	if offset >= len(msgs) {
		return []domain.Message{}, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// RecentMessages returns the last n messages in ascending order.
func (s *LocalStore) RecentMessages(conversationID int64, n int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConversation(conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.readMessages(conversationID)
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(msgs) {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// CountMessages returns the number of stored messages for a conversation.
func (s *LocalStore) CountMessages(conversationID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConversation(conversationID); err != nil {
		return 0, err
	}
	msgs, err := s.readMessages(conversationID)
	if err != nil {
		return 0, err
	}
	return int64(len(msgs)), nil
}

// Stats aggregates message statistics locally, over one conversation when
// conversationID is non-nil or over every conversation otherwise. The result
// matches the server's SQL aggregate shape.
func (s *LocalStore) Stats(conversationID *int64) (*repo.MessageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	if conversationID != nil {
		if err := s.ensureConversation(*conversationID); err != nil {
			return nil, err
		}
		ids = []int64{*conversationID}
	} else {
		convs, err := s.readConversations()
		if err != nil {
			return nil, err
		}
		for i := range convs {
			ids = append(ids, convs[i].ID)
		}
	}

	var st repo.MessageStats
	var totalLen int64
	for _, id := range ids {
		msgs, err := s.readMessages(id)
		if err != nil {
			return nil, err
		}
		for i := range msgs {
			st.TotalMessages++
			totalLen += int64(len(msgs[i].Content))
			switch msgs[i].Type {
			case domain.MessageTypeUser:
				st.UserMessages++
			case domain.MessageTypeAI:
				st.AIMessages++
			case domain.MessageTypeError:
				st.ErrorMessages++
			}
		}
	}
	if st.TotalMessages > 0 {
		st.AvgContentLength = float64(totalLen) / float64(st.TotalMessages)
	}
	return &st, nil
}

// CountConversations returns the number of stored conversations.
func (s *LocalStore) CountConversations() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.readConversations()
	if err != nil {
		return 0, err
	}
	return int64(len(convs)), nil
}

func (s *LocalStore) ensureConversation(id int64) error {
	convs, err := s.readConversations()
	if err != nil {
		return err
	}
	for i := range convs {
		if convs[i].ID == id {
			return nil
		}
	}
	return services.ErrConversationNotFound
}

func sortByActivity(convs []domain.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UpdatedAt.Equal(convs[j].UpdatedAt) {
			return convs[i].ID > convs[j].ID
		}
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}
