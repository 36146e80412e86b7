package memstore

import (
	"context"
	"fmt"
	"testing"

	"ziggie/ziggie/sources/psql/models"
)

func TestMessagesKeepAppendOrder(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	const n = 7
	for i := 0; i < n; i++ {
		if _, err := store.Create(ctx, "s1", models.RoleUser, fmt.Sprintf("msg-%d", i), nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := store.GetAllBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != n {
		t.Fatalf("expected %d messages, got %d", n, len(all))
	}
	for i, msg := range all {
		if msg.Content != fmt.Sprintf("msg-%d", i) {
			t.Errorf("position %d: expected msg-%d, got %s", i, i, msg.Content)
		}
	}
}

func TestRecentReturnsAscendingTail(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Create(ctx, "s1", models.RoleUser, fmt.Sprintf("msg-%d", i), nil)
	}

	recent, err := store.GetRecentBySessionID(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"msg-2", "msg-3", "msg-4"}
	if len(recent) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(recent))
	}
	for i, msg := range recent {
		if msg.Content != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], msg.Content)
		}
	}

	// Window larger than the conversation returns everything.
	recent, _ = store.GetRecentBySessionID(ctx, "s1", 50)
	if len(recent) != 5 {
		t.Errorf("expected all 5 messages, got %d", len(recent))
	}
}

func TestConversationHistoryExcludesSystem(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	store.Create(ctx, "s1", models.RoleSystem, "system prompt", nil)
	store.Create(ctx, "s1", models.RoleUser, "hello", nil)
	store.Create(ctx, "s1", models.RoleAssistant, "hi there", nil)

	history, err := store.GetConversationHistory(ctx, "s1", 20)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 non-system messages, got %d", len(history))
	}
	for _, msg := range history {
		if msg.Role == models.RoleSystem {
			t.Errorf("system message leaked into history")
		}
	}
}

func TestCreateManyIsAtomic(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	inputs := []models.MessageInput{
		{Role: models.RoleUser, Content: "a"},
		{Role: "bogus", Content: "b"},
	}
	if _, err := store.CreateMany(ctx, "s1", inputs); err == nil {
		t.Fatal("expected batch with bad role to fail")
	}
	count, _ := store.CountBySessionID(ctx, "s1")
	if count != 0 {
		t.Errorf("expected no messages committed after failed batch, got %d", count)
	}

	good := []models.MessageInput{
		{Role: models.RoleUser, Content: "a"},
		{Role: models.RoleAssistant, Content: "b"},
	}
	saved, err := store.CreateMany(ctx, "s1", good)
	if err != nil {
		t.Fatalf("create many: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("expected 2 saved, got %d", len(saved))
	}
}

func TestDeleteBySessionIDReturnsCount(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Create(ctx, "s1", models.RoleUser, "m", nil)
	}
	store.Create(ctx, "other", models.RoleUser, "m", nil)

	count, err := store.DeleteBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 deleted, got %d", count)
	}
	all, _ := store.GetAllBySessionID(ctx, "s1")
	if len(all) != 0 {
		t.Errorf("expected empty history after delete, got %d", len(all))
	}
	otherCount, _ := store.CountBySessionID(ctx, "other")
	if otherCount != 1 {
		t.Error("expected other session untouched")
	}
}

func TestTotalTokens(t *testing.T) {
	store := NewMessageStore()
	ctx := context.Background()

	ten, twenty := 10, 20
	store.Create(ctx, "s1", models.RoleUser, "a", &ten)
	store.Create(ctx, "s1", models.RoleAssistant, "b", &twenty)
	store.Create(ctx, "s1", models.RoleUser, "c", nil)

	total, err := store.TotalTokensBySessionID(ctx, "s1")
	if err != nil {
		t.Fatalf("total tokens: %v", err)
	}
	if total != 30 {
		t.Errorf("expected 30, got %d", total)
	}
}
