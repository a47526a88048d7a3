package client

import (
	"errors"
	"testing"
	"time"

	"github.com/jmartel/go-convo-backend/internal/services"
)

func testStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestLocalCreateDefaultsTitle(t *testing.T) {
	s := testStore(t)

	conv, err := s.CreateConversation("   ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Title != "New Conversation" {
		t.Fatalf("title = %q, want default", conv.Title)
	}
	// Local IDs are epoch-derived and far above any server autoincrement.
	if conv.ID < 1_000_000_000_000 {
		t.Fatalf("id = %d, want epoch-scale local id", conv.ID)
	}
}

func TestLocalIDsDoNotCollide(t *testing.T) {
	s := testStore(t)

	seen := map[int64]bool{}
	for i := 0; i < 20; i++ {
		conv, err := s.CreateConversation("c")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[conv.ID] {
			t.Fatalf("duplicate local id %d", conv.ID)
		}
		seen[conv.ID] = true
	}
}

func TestLocalAppendAndList(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("offline chat")
	if _, err := s.AppendMessage(conv.ID, "first", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.AppendMessage(conv.ID, "second", "ai"); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := s.ListMessages(conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Fatalf("order wrong: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestLocalDerivedFields(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("derived")
	if _, err := s.AppendMessage(conv.ID, "hello", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MessageCount != 1 {
		t.Fatalf("message_count = %d, want 1", got.MessageCount)
	}
	if got.LastMessageAt == nil {
		t.Fatal("last_message_at missing")
	}
}

func TestLocalValidation(t *testing.T) {
	s := testStore(t)
	conv, _ := s.CreateConversation("strict")

	if _, err := s.AppendMessage(conv.ID, "", "user"); !errors.Is(err, services.ErrEmptyContent) {
		t.Fatalf("empty err = %v", err)
	}
	if _, err := s.AppendMessage(conv.ID, "hi", "robot"); !errors.Is(err, services.ErrInvalidMessageType) {
		t.Fatalf("type err = %v", err)
	}
	if _, err := s.AppendMessage(99999, "hi", "user"); !errors.Is(err, services.ErrConversationNotFound) {
		t.Fatalf("missing conv err = %v", err)
	}
}

func TestLocalListOrderedByActivity(t *testing.T) {
	s := testStore(t)

	a, _ := s.CreateConversation("a")
	time.Sleep(2 * time.Millisecond)
	b, _ := s.CreateConversation("b")
	time.Sleep(2 * time.Millisecond)
	if _, err := s.AppendMessage(a.ID, "bump", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := s.ListConversations(10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID {
		t.Fatalf("order = %d,%d want %d,%d", items[0].ID, items[1].ID, a.ID, b.ID)
	}
}

func TestLocalSearchCaseInsensitive(t *testing.T) {
	s := testStore(t)

	byTitle, _ := s.CreateConversation("Trip to LISBON")
	byMsg, _ := s.CreateConversation("untitled")
	s.CreateConversation("groceries")
	if _, err := s.AppendMessage(byMsg.ID, "Flights to Lisbon in May", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := s.SearchConversations("lisbon", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	seen := map[int64]bool{}
	for _, c := range items {
		seen[c.ID] = true
	}
	if !seen[byTitle.ID] || !seen[byMsg.ID] {
		t.Fatalf("unexpected matches: %v", seen)
	}
}

func TestLocalUpdateTitle(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("old name")
	if err := s.UpdateTitle(conv.ID, "new name"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := s.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "new name" {
		t.Fatalf("title = %q", got.Title)
	}

	// Blank renames get the same answer the remote store gives.
	if err := s.UpdateTitle(conv.ID, "   "); !errors.Is(err, services.ErrEmptyTitle) {
		t.Fatalf("blank rename err = %v, want ErrEmptyTitle", err)
	}
	if err := s.UpdateTitle(99999, "ghost"); !errors.Is(err, services.ErrConversationNotFound) {
		t.Fatalf("unknown id err = %v", err)
	}
}

func TestLocalDeleteCascades(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("doomed")
	if _, err := s.AppendMessage(conv.ID, "gone soon", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteConversation(conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetConversation(conv.ID); !errors.Is(err, services.ErrConversationNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	if _, err := s.ListMessages(conv.ID, 10, 0); !errors.Is(err, services.ErrConversationNotFound) {
		t.Fatalf("messages after delete: %v", err)
	}
}

func TestLocalRecentMessages(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("recent")
	for _, c := range []string{"a", "b", "c", "d"} {
		if _, err := s.AppendMessage(conv.ID, c, "user"); err != nil {
			t.Fatalf("append: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := s.RecentMessages(conv.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "c" || msgs[1].Content != "d" {
		t.Fatalf("recent = %v", msgs)
	}
}

func TestLocalStats(t *testing.T) {
	s := testStore(t)

	conv, _ := s.CreateConversation("stats")
	if _, err := s.AppendMessage(conv.ID, "hi", "user"); err != nil { // len 2
		t.Fatalf("append: %v", err)
	}
	if _, err := s.AppendMessage(conv.ID, "milk", "ai"); err != nil { // len 4
		t.Fatalf("append: %v", err)
	}

	st, err := s.Stats(&conv.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMessages != 2 || st.UserMessages != 1 || st.AIMessages != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.AvgContentLength != 3 {
		t.Fatalf("avg = %v, want 3", st.AvgContentLength)
	}
}

func TestLocalSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	conv, _ := s1.CreateConversation("persisted")
	if _, err := s1.AppendMessage(conv.ID, "still here", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	s2, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.GetConversation(conv.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.MessageCount != 1 {
		t.Fatalf("message_count = %d", got.MessageCount)
	}
}
