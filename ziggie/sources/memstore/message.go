package memstore

import (
	"context"
	"sync"
	"time"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/sources/psql/models"

	"github.com/google/uuid"
)

type MessageStore struct {
	mu       sync.Mutex
	messages map[string][]models.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{messages: make(map[string][]models.Message)}
}

func validRole(role string) bool {
	switch role {
	case models.RoleUser, models.RoleAssistant, models.RoleSystem:
		return true
	}
	return false
}

func (s *MessageStore) append(sessionID, role, content string, tokensUsed *int) (models.Message, error) {
	if !validRole(role) {
		return models.Message{}, errs.Database("failed to save message", errs.Validation("unknown role "+role))
	}
	msg := models.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		TokensUsed: tokensUsed,
		CreatedAt:  time.Now(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return msg, nil
}

func (s *MessageStore) Create(ctx context.Context, sessionID, role, content string, tokensUsed *int) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := s.append(sessionID, role, content, tokensUsed)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateMany is all-or-nothing: inputs are validated up front so a bad
// entry leaves the store untouched.
func (s *MessageStore) CreateMany(ctx context.Context, sessionID string, inputs []models.MessageInput) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range inputs {
		if !validRole(in.Role) {
			return nil, errs.Database("failed to save message batch", errs.Validation("unknown role "+in.Role))
		}
	}
	saved := make([]models.Message, 0, len(inputs))
	for _, in := range inputs {
		msg, err := s.append(sessionID, in.Role, in.Content, in.TokensUsed)
		if err != nil {
			return nil, err
		}
		saved = append(saved, msg)
	}
	return saved, nil
}

func (s *MessageStore) GetRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.messages[sessionID], limit, false), nil
}

func (s *MessageStore) GetAllBySessionID(ctx context.Context, sessionID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[sessionID]
	out := make([]models.Message, len(all))
	copy(out, all)
	return out, nil
}

func (s *MessageStore) GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.messages[sessionID], limit, true), nil
}

func (s *MessageStore) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages[sessionID])), nil
}

func (s *MessageStore) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := int64(len(s.messages[sessionID]))
	delete(s.messages, sessionID)
	return count, nil
}

func (s *MessageStore) TotalTokensBySessionID(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, msg := range s.messages[sessionID] {
		if msg.TokensUsed != nil {
			total += int64(*msg.TokensUsed)
		}
	}
	return total, nil
}

// tail returns the last limit messages in append order, optionally
// skipping system messages.
func tail(all []models.Message, limit int, skipSystem bool) []models.Message {
	filtered := all
	if skipSystem {
		filtered = make([]models.Message, 0, len(all))
		for _, msg := range all {
			if msg.Role != models.RoleSystem {
				filtered = append(filtered, msg)
			}
		}
	}
	if limit >= 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	out := make([]models.Message, len(filtered))
	copy(out, filtered)
	return out
}
