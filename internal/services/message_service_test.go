package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidateMessage(t *testing.T) {
	cases := []struct {
		name    string
		content string
		typ     string
		want    error
	}{
		{"valid user", "hello", "user", nil},
		{"valid ai", "hello", "ai", nil},
		{"valid error", "boom", "error", nil},
		{"empty", "", "user", ErrEmptyContent},
		{"whitespace only", "   \n\t", "user", ErrEmptyContent},
		{"at limit", strings.Repeat("x", 1000), "user", nil},
		{"over limit", strings.Repeat("x", 1001), "user", ErrContentTooLong},
		{"over limit multibyte", strings.Repeat("é", 1001), "ai", ErrContentTooLong},
		{"bad type", "hello", "system", ErrInvalidMessageType},
		{"uppercase type", "hello", "USER", ErrInvalidMessageType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateMessage(tc.content, tc.typ); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAppendToUnknownConversation(t *testing.T) {
	svc := NewMessageService(testDB(t))

	_, err := svc.Append(context.Background(), 42, "hello", "user")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestAppendRejectsBeforeStorage(t *testing.T) {
	db := testDB(t)
	convSvc := NewConversationService(db, gormRepo{})
	msgSvc := NewMessageService(db)
	ctx := context.Background()

	conv, err := convSvc.Create(ctx, nil, "strict")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := msgSvc.Append(ctx, conv.ID, "", "user"); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("empty content err = %v", err)
	}
	if _, err := msgSvc.Append(ctx, conv.ID, "hi", "robot"); !errors.Is(err, ErrInvalidMessageType) {
		t.Fatalf("bad type err = %v", err)
	}

	// Nothing reached storage.
	items, total, err := msgSvc.List(ctx, conv.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected no stored messages, got %d", total)
	}
}

func TestAppendPreservesContent(t *testing.T) {
	db := testDB(t)
	convSvc := NewConversationService(db, gormRepo{})
	msgSvc := NewMessageService(db)
	ctx := context.Background()

	conv, _ := convSvc.Create(ctx, nil, "verbatim")

	content := "  spaced  out  "
	msg, err := msgSvc.Append(ctx, conv.ID, content, "user")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.Content != content {
		t.Fatalf("content = %q, want stored verbatim", msg.Content)
	}
}

func TestEditMessage(t *testing.T) {
	db := testDB(t)
	convSvc := NewConversationService(db, gormRepo{})
	msgSvc := NewMessageService(db)
	ctx := context.Background()

	conv, _ := convSvc.Create(ctx, nil, "edits")
	msg, err := msgSvc.Append(ctx, conv.ID, "draft", "user")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := msgSvc.Edit(ctx, msg.ID, "final"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := msgSvc.Edit(ctx, msg.ID, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("empty edit err = %v", err)
	}
	if err := msgSvc.Edit(ctx, 9999, "ghost"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("missing edit err = %v", err)
	}
}
