// Package stores defines the storage interfaces the controllers depend on.
// Two backends implement them: sources/psql (gorm + pgx against Postgres)
// and sources/memstore (in-memory maps, used when no DATABASE_URL is set).
package stores

import (
	"context"

	"ziggie/ziggie/sources/psql/models"
)

type SessionStore interface {
	// Create inserts a session with a fresh id and the configured TTL.
	Create(ctx context.Context, ownerID *string, metadata map[string]any) (*models.Session, error)
	// GetByID returns (nil, nil) when the session does not exist.
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// UpdateMetadata merges patch into the existing metadata. Fails with a
	// not-found error when the session is absent.
	UpdateMetadata(ctx context.Context, id string, patch map[string]any) (*models.Session, error)
	Delete(ctx context.Context, id string) (bool, error)
	// IsValid never returns an error: any lookup failure reads as false.
	IsValid(ctx context.Context, id string) bool
	// CleanupExpired deletes sessions past their expiry and returns the count.
	CleanupExpired(ctx context.Context) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, sessionID, role, content string, tokensUsed *int) (*models.Message, error)
	// CreateMany appends all messages atomically; on any failure none are kept.
	CreateMany(ctx context.Context, sessionID string, inputs []models.MessageInput) ([]models.Message, error)
	// GetRecentBySessionID returns the chronological tail of the
	// conversation, at most limit messages, oldest first.
	GetRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	GetAllBySessionID(ctx context.Context, sessionID string) ([]models.Message, error)
	// GetConversationHistory is the recent window minus system messages.
	GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	CountBySessionID(ctx context.Context, sessionID string) (int64, error)
	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
	TotalTokensBySessionID(ctx context.Context, sessionID string) (int64, error)
}

type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	// GetByEmail returns (nil, nil) when no lead carries the email.
	GetByEmail(ctx context.Context, email string) (*models.Lead, error)
	ListRecent(ctx context.Context, limit int) ([]models.Lead, error)
}

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
