package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ziggie/ziggie/sources/psql/models"

	"github.com/google/uuid"
)

type LeadStore struct {
	mu    sync.Mutex
	leads map[string]*models.Lead // keyed by lower-cased email
}

func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[string]*models.Lead)}
}

func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Source == "" {
		lead.Source = "chatbot"
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	copied := *lead
	s.leads[strings.ToLower(lead.Email)] = &copied
	out := copied
	return &out, nil
}

func (s *LeadStore) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	copied := *lead
	return &copied, nil
}

func (s *LeadStore) ListRecent(ctx context.Context, limit int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		out = append(out, *lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
