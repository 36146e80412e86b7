package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/services/kb"
	"ziggie/ziggie/services/llm"
	"ziggie/ziggie/sources/memstore"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/stores"
	"ziggie/ziggie/types"
)

type fakeModel struct {
	mu      sync.Mutex
	calls   int
	delay   time.Duration
	err     error
	healthy bool
}

func (f *fakeModel) Generate(ctx context.Context, history []llm.Content, prompt string) (*llm.Result, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, errs.Timeout("Model API request timed out")
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	text := fmt.Sprintf("reply-%d", n)
	return &llm.Result{
		Text:         text,
		FinishReason: "STOP",
		TokensUsed:   llm.EstimateTokens(prompt) + llm.EstimateTokens(text),
	}, nil
}

func (f *fakeModel) GenerateStream(ctx context.Context, history []llm.Content, prompt string) (<-chan string, error) {
	res, err := f.Generate(ctx, history, prompt)
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 2)
	ch <- res.Text[:3]
	ch <- res.Text[3:]
	close(ch)
	return ch, nil
}

func (f *fakeModel) HealthCheck(ctx context.Context) bool {
	return f.healthy
}

func testConfig() config.Config {
	return config.Config{
		MaxContextMessages: 10,
		ModelTimeout:       2 * time.Second,
		SessionTTL:         time.Hour,
	}
}

func newChatFixture(t *testing.T, model Generator) (*ChatController, *memstore.SessionStore, *memstore.MessageStore) {
	t.Helper()
	sessions := memstore.NewSessionStore(time.Hour)
	messages := memstore.NewMessageStore()
	ctrl := NewChatController(sessions, messages, model, &kb.KnowledgeBase{}, testConfig())
	return ctrl, sessions, messages
}

func TestChatConversationScenario(t *testing.T) {
	ctrl, sessions, messages := newChatFixture(t, &fakeModel{})
	ctx := context.Background()

	session, err := sessions.Create(ctx, nil, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	resp, err := ctrl.Chat(ctx, types.ChatRequest{SessionID: session.ID, Message: "Hello"})
	if err != nil {
		t.Fatalf("first chat: %v", err)
	}
	if resp.Response != "reply-1" {
		t.Errorf("expected reply-1, got %s", resp.Response)
	}
	if resp.TokensUsed <= 0 {
		t.Error("expected positive token estimate")
	}

	history, _ := messages.GetAllBySessionID(ctx, session.ID)
	if len(history) != 2 {
		t.Fatalf("expected 2 messages after first turn, got %d", len(history))
	}

	if _, err := ctrl.Chat(ctx, types.ChatRequest{SessionID: session.ID, Message: "Thanks"}); err != nil {
		t.Fatalf("second chat: %v", err)
	}

	history, _ = messages.GetAllBySessionID(ctx, session.ID)
	want := []struct{ role, content string }{
		{models.RoleUser, "Hello"},
		{models.RoleAssistant, "reply-1"},
		{models.RoleUser, "Thanks"},
		{models.RoleAssistant, "reply-2"},
	}
	if len(history) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(history))
	}
	for i, w := range want {
		if history[i].Role != w.role || history[i].Content != w.content {
			t.Errorf("position %d: expected %s:%q, got %s:%q", i, w.role, w.content, history[i].Role, history[i].Content)
		}
	}
}

func TestChatUnknownSessionWritesNothing(t *testing.T) {
	model := &fakeModel{}
	ctrl, _, messages := newChatFixture(t, model)

	_, err := ctrl.Chat(context.Background(), types.ChatRequest{SessionID: "ghost", Message: "hi"})
	var appErr *errs.Error
	if !errors.As(err, &appErr) || appErr.Kind != errs.KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if model.calls != 0 {
		t.Error("expected no model call for unknown session")
	}
	count, _ := messages.CountBySessionID(context.Background(), "ghost")
	if count != 0 {
		t.Errorf("expected no message writes, got %d", count)
	}
}

func TestChatTimeoutIsDistinctFromUpstream(t *testing.T) {
	model := &fakeModel{delay: 5 * time.Second}
	sessions := memstore.NewSessionStore(time.Hour)
	messages := memstore.NewMessageStore()
	cfg := testConfig()
	cfg.ModelTimeout = 20 * time.Millisecond
	ctrl := NewChatController(sessions, messages, model, &kb.KnowledgeBase{}, cfg)

	session, _ := sessions.Create(context.Background(), nil, nil)
	_, err := ctrl.Chat(context.Background(), types.ChatRequest{SessionID: session.ID, Message: "hi"})

	var appErr *errs.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Kind != errs.KindTimeout {
		t.Errorf("expected timeout kind, got %s", appErr.Kind)
	}
	if appErr.Kind == errs.KindUpstream {
		t.Error("timeout must not be reported as a generic upstream failure")
	}
}

func TestChatSafetyBlockPropagates(t *testing.T) {
	model := &fakeModel{err: errs.SafetyBlocked("")}
	ctrl, sessions, _ := newChatFixture(t, model)

	session, _ := sessions.Create(context.Background(), nil, nil)
	_, err := ctrl.Chat(context.Background(), types.ChatRequest{SessionID: session.ID, Message: "hi"})

	var appErr *errs.Error
	if !errors.As(err, &appErr) || appErr.Kind != errs.KindSafetyBlocked {
		t.Fatalf("expected safety-blocked error, got %v", err)
	}
}

// failingAssistantWrites rejects assistant-role inserts to model a write
// failure after the model has already answered.
type failingAssistantWrites struct {
	stores.MessageStore
}

func (f *failingAssistantWrites) Create(ctx context.Context, sessionID, role, content string, tokensUsed *int) (*models.Message, error) {
	if role == models.RoleAssistant {
		return nil, errs.Database("failed to save message", errors.New("disk full"))
	}
	return f.MessageStore.Create(ctx, sessionID, role, content, tokensUsed)
}

func TestChatReplyReturnedEvenIfPersistFails(t *testing.T) {
	sessions := memstore.NewSessionStore(time.Hour)
	messages := &failingAssistantWrites{MessageStore: memstore.NewMessageStore()}
	ctrl := NewChatController(sessions, messages, &fakeModel{}, &kb.KnowledgeBase{}, testConfig())

	session, _ := sessions.Create(context.Background(), nil, nil)
	resp, err := ctrl.Chat(context.Background(), types.ChatRequest{SessionID: session.ID, Message: "hi"})
	if err != nil {
		t.Fatalf("expected reply despite persist failure, got %v", err)
	}
	if resp.Response != "reply-1" {
		t.Errorf("expected reply-1, got %s", resp.Response)
	}

	count, _ := messages.CountBySessionID(context.Background(), session.ID)
	if count != 1 {
		t.Errorf("expected only the user turn persisted, got %d", count)
	}
}

// Two concurrent chats on one session both succeed and neither write is
// dropped; relative ordering between the exchanges is unspecified.
func TestConcurrentChatsOnOneSession(t *testing.T) {
	ctrl, sessions, messages := newChatFixture(t, &fakeModel{})
	ctx := context.Background()

	session, _ := sessions.Create(ctx, nil, nil)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	for _, msg := range []string{"first", "second"} {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			_, err := ctrl.Chat(ctx, types.ChatRequest{SessionID: session.ID, Message: m})
			errCh <- err
		}(msg)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent chat failed: %v", err)
		}
	}

	count, _ := messages.CountBySessionID(ctx, session.ID)
	if count != 4 {
		t.Errorf("expected exactly 4 messages, got %d", count)
	}
}

func TestClearHistory(t *testing.T) {
	ctrl, sessions, messages := newChatFixture(t, &fakeModel{})
	ctx := context.Background()

	session, _ := sessions.Create(ctx, nil, nil)
	for i := 0; i < 5; i++ {
		messages.Create(ctx, session.ID, models.RoleUser, "m", nil)
	}

	count, err := ctrl.ClearHistory(ctx, session.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 cleared, got %d", count)
	}
	all, _ := ctrl.History(ctx, session.ID)
	if len(all) != 0 {
		t.Errorf("expected empty history, got %d", len(all))
	}
}
