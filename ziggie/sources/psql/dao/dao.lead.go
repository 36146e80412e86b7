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

type LeadDAO struct {
	DB *gorm.DB
}

func NewLeadDAO(db *gorm.DB) *LeadDAO {
	return &LeadDAO{DB: db}
}

func (dao *LeadDAO) Create(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Source == "" {
		lead.Source = "chatbot"
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	if err := dao.DB.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, errs.Database("failed to save lead", err)
	}
	logging.AppLogger.Info("lead created", zap.String("leadID", lead.ID))
	return lead, nil
}

func (dao *LeadDAO) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	var lead models.Lead
	err := dao.DB.WithContext(ctx).Where("email = ?", email).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Database("failed to get lead by email", err)
	}
	return &lead, nil
}

func (dao *LeadDAO) ListRecent(ctx context.Context, limit int) ([]models.Lead, error) {
	var leads []models.Lead
	err := dao.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&leads).Error
	if err != nil {
		return nil, errs.Database("failed to list leads", err)
	}
	return leads, nil
}
