package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversation turn. Append-only; never mutated after
// insert, deleted only in bulk per session.
type Message struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID  string    `json:"sessionId" gorm:"type:uuid;not null;index"`
	Role       string    `json:"role" gorm:"type:varchar(50);not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	TokensUsed *int      `json:"tokensUsed,omitempty"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// MessageInput is one entry of a batch append.
type MessageInput struct {
	Role       string
	Content    string
	TokensUsed *int
}
