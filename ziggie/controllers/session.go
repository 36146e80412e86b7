package controllers

import (
	"context"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/stores"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

type SessionController struct {
	sessions stores.SessionStore
	messages stores.MessageStore
}

func NewSessionController(sessions stores.SessionStore, messages stores.MessageStore) *SessionController {
	return &SessionController{sessions: sessions, messages: messages}
}

func (c *SessionController) Create(ctx context.Context, ownerID *string, metadata map[string]any) (*models.Session, error) {
	return c.sessions.Create(ctx, ownerID, metadata)
}

// SessionDetail is a session plus its message count.
type SessionDetail struct {
	models.Session
	MessageCount int64 `json:"messageCount"`
}

func (c *SessionController) Get(ctx context.Context, id string) (*SessionDetail, error) {
	session, err := c.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errs.NotFound("Session")
	}
	count, err := c.messages.CountBySessionID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: *session, MessageCount: count}, nil
}

func (c *SessionController) Delete(ctx context.Context, id string) error {
	deleted, err := c.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errs.NotFound("Session")
	}
	logging.AppLogger.Info("session deleted", zap.String("sessionID", id))
	return nil
}

func (c *SessionController) CleanupExpired(ctx context.Context) (int64, error) {
	return c.sessions.CleanupExpired(ctx)
}
