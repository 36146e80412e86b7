package memstore

import (
	"context"
	"sync"
	"time"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/sources/psql/models"

	"github.com/google/uuid"
)

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, ownerID *string, metadata map[string]any) (*models.Session, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := s.now()
	session := &models.Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	copied := *session
	return &copied, nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (s *SessionStore) UpdateMetadata(ctx context.Context, id string, patch map[string]any) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errs.NotFound("Session")
	}
	for k, v := range patch {
		session.Metadata[k] = v
	}
	session.UpdatedAt = s.now()
	copied := *session
	return &copied, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok, nil
}

func (s *SessionStore) IsValid(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	return s.now().Before(session.ExpiresAt)
}

func (s *SessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	now := s.now()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}
