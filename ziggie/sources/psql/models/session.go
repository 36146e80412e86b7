package models

import (
	"time"
)

// Session is one conversation scope. Rows are only mutated to refresh
// metadata; expired rows survive until the cleanup sweep or an explicit
// delete.
type Session struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   *string        `json:"ownerId,omitempty" gorm:"type:varchar(255);index"`
	Metadata  map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ExpiresAt time.Time      `json:"expiresAt" gorm:"not null;index"`
}

// Expired reports whether the session is past its expiry. Expired sessions
// stay usable; callers only log a warning (soft-expiry policy).
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
