package controllers

import (
	"context"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/services/kb"
	"ziggie/ziggie/services/llm"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/stores"
	"ziggie/ziggie/types"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

// Generator abstracts the hosted model so tests can inject a fake.
type Generator interface {
	Generate(ctx context.Context, history []llm.Content, prompt string) (*llm.Result, error)
	GenerateStream(ctx context.Context, history []llm.Content, prompt string) (<-chan string, error)
	HealthCheck(ctx context.Context) bool
}

type ChatController struct {
	sessions stores.SessionStore
	messages stores.MessageStore
	model    Generator
	kb       *kb.KnowledgeBase
	cfg      config.Config
}

func NewChatController(sessions stores.SessionStore, messages stores.MessageStore, model Generator, knowledge *kb.KnowledgeBase, cfg config.Config) *ChatController {
	return &ChatController{sessions: sessions, messages: messages, model: model, kb: knowledge, cfg: cfg}
}

// Chat is the per-request conversation state machine: append the user
// turn, read the bounded history window, call the model, append the
// reply. No state survives the request.
func (c *ChatController) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	defer logging.LogDuration(ctx, "chat_request")()

	history, prompt, err := c.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}

	modelCtx, cancel := context.WithTimeout(ctx, c.cfg.ModelTimeout)
	defer cancel()
	result, err := c.model.Generate(modelCtx, history, prompt)
	if err != nil {
		return nil, err
	}

	c.persistReply(ctx, req.SessionID, result.Text, result.TokensUsed)

	return &types.ChatResponse{
		SessionID:  req.SessionID,
		Message:    req.Message,
		Response:   result.Text,
		Timestamp:  time.Now(),
		TokensUsed: result.TokensUsed,
	}, nil
}

// ChatStream runs the same turn but forwards model chunks over a channel.
// The full reply is persisted once the stream ends.
func (c *ChatController) ChatStream(ctx context.Context, req types.ChatRequest) (<-chan string, error) {
	history, prompt, err := c.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}

	upstream, err := c.model.GenerateStream(ctx, history, prompt)
	if err != nil {
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		var full string
		for chunk := range upstream {
			full += chunk
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if full != "" {
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tokens := llm.EstimateTokens(prompt) + llm.EstimateTokens(full)
			c.persistReply(persistCtx, req.SessionID, full, tokens)
		}
	}()
	return ch, nil
}

// prepareTurn verifies the session, appends the user turn and builds the
// model inputs. A failed user-turn write aborts the request; no model call
// is attempted.
func (c *ChatController) prepareTurn(ctx context.Context, req types.ChatRequest) ([]llm.Content, string, error) {
	session, err := c.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, "", err
	}
	if session == nil {
		return nil, "", errs.NotFound("Session")
	}
	// Soft-expiry policy: an expired session keeps working, we only warn.
	if session.Expired(time.Now()) {
		logging.AppLogger.Warn("use of expired session", zap.String("sessionID", session.ID))
	}

	if _, err := c.messages.Create(ctx, req.SessionID, models.RoleUser, req.Message, nil); err != nil {
		return nil, "", err
	}

	window, err := c.messages.GetConversationHistory(ctx, req.SessionID, c.cfg.MaxContextMessages)
	if err != nil {
		return nil, "", err
	}

	// Everything before the just-appended user turn is history; the turn
	// itself plus any matched knowledge snippet becomes the prompt.
	var history []llm.Content
	if len(window) > 1 {
		history = formatHistory(window[:len(window)-1])
	}
	prompt := req.Message + c.kb.RelevantContext(req.Message)
	return history, prompt, nil
}

// persistReply stores the assistant turn. Failure here is logged and
// swallowed: the reply already exists and still goes back to the caller.
func (c *ChatController) persistReply(ctx context.Context, sessionID, text string, tokens int) {
	if _, err := c.messages.Create(ctx, sessionID, models.RoleAssistant, text, &tokens); err != nil {
		logging.ErrorLogger.Error("failed to persist assistant reply",
			zap.String("sessionID", sessionID), zap.Error(err))
	}
}

// History returns all messages for a session, oldest first.
func (c *ChatController) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	if err := c.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return c.messages.GetAllBySessionID(ctx, sessionID)
}

// ClearHistory deletes all messages for a session and returns the count.
func (c *ChatController) ClearHistory(ctx context.Context, sessionID string) (int64, error) {
	if err := c.requireSession(ctx, sessionID); err != nil {
		return 0, err
	}
	return c.messages.DeleteBySessionID(ctx, sessionID)
}

func (c *ChatController) requireSession(ctx context.Context, sessionID string) error {
	session, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return errs.NotFound("Session")
	}
	return nil
}

// formatHistory converts stored messages to wire contents; the assistant
// role maps to "model".
func formatHistory(msgs []models.Message) []llm.Content {
	out := make([]llm.Content, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == models.RoleSystem {
			continue
		}
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, llm.Content{Role: role, Parts: []llm.Part{{Text: msg.Content}}})
	}
	return out
}
