package dao

import (
	"context"
	"errors"
	"time"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionDAO struct {
	DB  *gorm.DB
	TTL time.Duration
}

func NewSessionDAO(db *gorm.DB, ttl time.Duration) *SessionDAO {
	return &SessionDAO{DB: db, TTL: ttl}
}

func (dao *SessionDAO) Create(ctx context.Context, ownerID *string, metadata map[string]any) (*models.Session, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now()
	session := models.Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(dao.TTL),
	}
	if err := dao.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, errs.Database("failed to create session", err)
	}
	logging.AppLogger.Info("session created", zap.String("sessionID", session.ID))
	return &session, nil
}

func (dao *SessionDAO) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := dao.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Database("failed to get session", err)
	}
	return &session, nil
}

func (dao *SessionDAO) UpdateMetadata(ctx context.Context, id string, patch map[string]any) (*models.Session, error) {
	session, err := dao.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errs.NotFound("Session")
	}
	for k, v := range patch {
		session.Metadata[k] = v
	}
	session.UpdatedAt = time.Now()
	if err := dao.DB.WithContext(ctx).Save(session).Error; err != nil {
		return nil, errs.Database("failed to update session metadata", err)
	}
	return session, nil
}

func (dao *SessionDAO) Delete(ctx context.Context, id string) (bool, error) {
	res := dao.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	if res.Error != nil {
		return false, errs.Database("failed to delete session", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsValid returns false on any lookup failure instead of an error.
func (dao *SessionDAO) IsValid(ctx context.Context, id string) bool {
	session, err := dao.GetByID(ctx, id)
	if err != nil || session == nil {
		return false
	}
	return time.Now().Before(session.ExpiresAt)
}

func (dao *SessionDAO) CleanupExpired(ctx context.Context) (int64, error) {
	res := dao.DB.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, errs.Database("failed to cleanup expired sessions", res.Error)
	}
	if res.RowsAffected > 0 {
		logging.AppLogger.Info("expired sessions cleaned up", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
