package repo

import (
	"context"
	"math"
	"testing"
)

func TestGetMessageStatsPerConversation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	conv, _ := CreateConversation(ctx, db, nil, "stats")
	other, _ := CreateConversation(ctx, db, nil, "noise")

	seed := []struct {
		content string
		typ     string
	}{
		{"hi", "user"},        // len 2
		{"hello", "ai"},       // len 5
		{"boom", "error"},     // len 4
		{"follow-up", "user"}, // len 9
	}
	for _, m := range seed {
		if _, err := CreateMessage(ctx, db, conv.ID, m.content, m.typ); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := CreateMessage(ctx, db, other.ID, "elsewhere", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}

	st, err := GetMessageStats(ctx, db, &conv.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMessages != 4 {
		t.Fatalf("total = %d, want 4", st.TotalMessages)
	}
	if st.UserMessages != 2 || st.AIMessages != 1 || st.ErrorMessages != 1 {
		t.Fatalf("breakdown = %d/%d/%d, want 2/1/1",
			st.UserMessages, st.AIMessages, st.ErrorMessages)
	}
	want := (2.0 + 5.0 + 4.0 + 9.0) / 4.0
	if math.Abs(st.AvgContentLength-want) > 1e-9 {
		t.Fatalf("avg = %v, want %v", st.AvgContentLength, want)
	}
}

func TestGetMessageStatsGlobal(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a, _ := CreateConversation(ctx, db, nil, "a")
	b, _ := CreateConversation(ctx, db, nil, "b")
	if _, err := CreateMessage(ctx, db, a.ID, "one", "user"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := CreateMessage(ctx, db, b.ID, "two", "ai"); err != nil {
		t.Fatalf("append: %v", err)
	}

	st, err := GetMessageStats(ctx, db, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMessages != 2 || st.UserMessages != 1 || st.AIMessages != 1 {
		t.Fatalf("unexpected global stats: %+v", st)
	}
}

func TestGetMessageStatsEmpty(t *testing.T) {
	db := testDB(t)

	st, err := GetMessageStats(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMessages != 0 || st.AvgContentLength != 0 {
		t.Fatalf("expected zeroed stats, got %+v", st)
	}
}
