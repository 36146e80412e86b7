package controllers

import (
	"context"

	"ziggie/ziggie/services/mail"
	"ziggie/ziggie/sources/psql/models"
	"ziggie/ziggie/stores"
	"ziggie/ziggie/types"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

type LeadController struct {
	leads  stores.LeadStore
	mailer mail.Notifier
}

func NewLeadController(leads stores.LeadStore, mailer mail.Notifier) *LeadController {
	return &LeadController{leads: leads, mailer: mailer}
}

// CreateLead is idempotent per email: a repeat submission acknowledges the
// existing lead instead of inserting a duplicate. The notification mail is
// best-effort either way.
func (c *LeadController) CreateLead(ctx context.Context, req types.CreateLeadRequest) (*types.LeadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := c.leads.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	resp := &types.LeadResponse{IsNew: existing == nil}
	lead := &models.Lead{
		SessionID: req.SessionID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    req.Source,
	}
	if existing != nil {
		resp.ID = existing.ID
		lead = existing
		logging.AppLogger.Info("lead already exists", zap.String("leadID", existing.ID))
	} else {
		created, err := c.leads.Create(ctx, lead)
		if err != nil {
			return nil, err
		}
		resp.ID = created.ID
		lead = created
	}

	if c.mailer != nil {
		if err := c.mailer.SendLeadNotification(lead); err != nil {
			logging.ErrorLogger.Error("failed to send lead notification", zap.Error(err))
		}
	}
	return resp, nil
}

func (c *LeadController) ListRecent(ctx context.Context, limit int) ([]models.Lead, error) {
	return c.leads.ListRecent(ctx, limit)
}
