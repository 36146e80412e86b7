package models

import (
	"time"
)

// Lead is a contact captured during a conversation. Email is the business
// key: a repeat submission acknowledges the existing row instead of
// inserting a duplicate. A lead may reference a session but outlives it.
type Lead struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID *string   `json:"sessionId,omitempty" gorm:"type:uuid"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone     *string   `json:"phone,omitempty" gorm:"type:varchar(64)"`
	Source    string    `json:"source" gorm:"type:varchar(255);not null;default:chatbot"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:CURRENT_TIMESTAMP"`
}
