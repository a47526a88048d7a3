package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCreateDefaultsTitle(t *testing.T) {
	svc := newConvSvc(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		conv, err := svc.Create(ctx, nil, title)
		if err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
		if conv.Title != "New Conversation" {
			t.Fatalf("title = %q, want default", conv.Title)
		}
	}
}

func TestCreateTrimsAndClipsTitle(t *testing.T) {
	svc := newConvSvc(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, nil, "  padded  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Title != "padded" {
		t.Fatalf("title = %q, want trimmed", conv.Title)
	}

	long := strings.Repeat("é", 300)
	conv, err = svc.Create(ctx, nil, long)
	if err != nil {
		t.Fatalf("create long: %v", err)
	}
	if n := utf8.RuneCountInString(conv.Title); n != 255 {
		t.Fatalf("clipped title runes = %d, want 255", n)
	}
}

func TestGetUnknownConversation(t *testing.T) {
	svc := newConvSvc(t)

	_, err := svc.Get(context.Background(), 42)
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestUpdateTitleUnknownConversation(t *testing.T) {
	svc := newConvSvc(t)

	err := svc.UpdateTitle(context.Background(), 42, "new name")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestUpdateTitleRejectsBlank(t *testing.T) {
	svc := newConvSvc(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, nil, "keep me")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, title := range []string{"", "   ", "\t"} {
		if err := svc.UpdateTitle(ctx, conv.ID, title); !errors.Is(err, ErrEmptyTitle) {
			t.Fatalf("UpdateTitle(%q) err = %v, want ErrEmptyTitle", title, err)
		}
	}

	got, err := svc.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "keep me" {
		t.Fatalf("title = %q, rejected rename must not change it", got.Title)
	}
}

func TestDeleteUnknownConversation(t *testing.T) {
	svc := newConvSvc(t)

	err := svc.Delete(context.Background(), 42)
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	svc := newConvSvc(t)

	_, err := svc.Search(context.Background(), "   ", nil, 10)
	if !errors.Is(err, ErrEmptySearchQuery) {
		t.Fatalf("err = %v, want ErrEmptySearchQuery", err)
	}
}

func TestListEmpty(t *testing.T) {
	svc := newConvSvc(t)

	items, total, err := svc.List(context.Background(), nil, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty page, got %d/%d", len(items), total)
	}
	if items == nil {
		t.Fatal("expected non-nil empty slice")
	}
}
