package repo

import (
	"context"
	"testing"
	"time"
)

func TestCreateMessageTouchesConversation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, err := CreateConversation(ctx, db, nil, "touched")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := conv.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	if _, err := CreateMessage(ctx, db, conv.ID, "bump", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := GetConversation(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.UpdatedAt.After(before) {
		t.Fatalf("updated_at not bumped: before=%v after=%v", before, got.UpdatedAt)
	}
}

func TestListMessagesAscending(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, _ := CreateConversation(ctx, db, nil, "ordered")
	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		if _, err := CreateMessage(ctx, db, conv.ID, c, "user"); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := ListMessages(ctx, db, conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range contents {
		if msgs[i].Content != want {
			t.Fatalf("msgs[%d] = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestListMessagesPagination(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, _ := CreateConversation(ctx, db, nil, "paged")
	for i := 0; i < 5; i++ {
		if _, err := CreateMessage(ctx, db, conv.ID, "m", "ai"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	page, err := ListMessages(ctx, db, conv.ID, 2, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len = %d, want 2", len(page))
	}
	total, err := CountMessages(ctx, db, conv.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
}

func TestRecentMessagesAscending(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, _ := CreateConversation(ctx, db, nil, "recent")
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		if _, err := CreateMessage(ctx, db, conv.ID, c, "user"); err != nil {
			t.Fatalf("append %q: %v", c, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := RecentMessages(ctx, db, conv.ID, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	// Last three, oldest first.
	for i, want := range []string{"c", "d", "e"} {
		if msgs[i].Content != want {
			t.Fatalf("msgs[%d] = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestUpdateMessageContent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, _ := CreateConversation(ctx, db, nil, "edit")
	msg, err := CreateMessage(ctx, db, conv.ID, "draft", "user")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	okRow, err := UpdateMessageContent(ctx, db, msg.ID, "final")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !okRow {
		t.Fatal("expected a row updated")
	}

	got, err := GetMessage(ctx, db, msg.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "final" {
		t.Fatalf("content = %q", got.Content)
	}

	okRow, err = UpdateMessageContent(ctx, db, 9999, "x")
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if okRow {
		t.Fatal("expected no rows updated for unknown id")
	}
}
