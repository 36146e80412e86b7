package types

import (
	"strings"
	"time"

	"ziggie/ziggie/errs"
)

const maxMessageLength = 4000

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Validate rejects malformed input before any store is touched.
func (r ChatRequest) Validate() *errs.Error {
	var fields []errs.FieldError
	if strings.TrimSpace(r.SessionID) == "" {
		fields = append(fields, errs.FieldError{Field: "sessionId", Message: "sessionId is required"})
	}
	if r.Message == "" {
		fields = append(fields, errs.FieldError{Field: "message", Message: "message cannot be empty"})
	}
	if len(r.Message) > maxMessageLength {
		fields = append(fields, errs.FieldError{Field: "message", Message: "message too long (max 4000 characters)"})
	}
	if len(fields) > 0 {
		return errs.Validation("Validation failed", fields...)
	}
	return nil
}

type ChatResponse struct {
	SessionID  string    `json:"sessionId"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokensUsed"`
}

type CreateSessionRequest struct {
	OwnerID  *string        `json:"ownerId,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type CreateLeadRequest struct {
	SessionID *string `json:"sessionId,omitempty"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Source    string  `json:"source,omitempty"`
}

func (r CreateLeadRequest) Validate() *errs.Error {
	var fields []errs.FieldError
	if strings.TrimSpace(r.Name) == "" {
		fields = append(fields, errs.FieldError{Field: "name", Message: "name is required"})
	}
	if strings.TrimSpace(r.Email) == "" {
		fields = append(fields, errs.FieldError{Field: "email", Message: "email is required"})
	} else if !strings.Contains(r.Email, "@") {
		fields = append(fields, errs.FieldError{Field: "email", Message: "email is invalid"})
	}
	if len(fields) > 0 {
		return errs.Validation("Validation failed", fields...)
	}
	return nil
}

type LeadResponse struct {
	ID    string `json:"id"`
	IsNew bool   `json:"isNew"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Uptime    float64           `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
}
