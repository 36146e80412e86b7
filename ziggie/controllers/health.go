package controllers

import (
	"context"
	"time"

	"ziggie/ziggie/stores"
	"ziggie/ziggie/types"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

type HealthController struct {
	db      stores.Pinger
	model   Generator
	started time.Time
}

func NewHealthController(db stores.Pinger, model Generator) *HealthController {
	return &HealthController{db: db, model: model, started: time.Now()}
}

// Check runs the model and database probes concurrently. The endpoint is
// liveness, not readiness: a degraded service still answers 200.
func (c *HealthController) Check(ctx context.Context) *types.HealthResponse {
	modelCh := make(chan bool, 1)
	dbCh := make(chan bool, 1)

	go func() { modelCh <- c.model.HealthCheck(ctx) }()
	go func() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		dbCh <- c.db.Ping(pingCtx) == nil
	}()

	modelHealthy := <-modelCh
	dbHealthy := <-dbCh

	status := "ok"
	if !modelHealthy || !dbHealthy {
		status = "degraded"
	}
	logging.AppLogger.Info("health check",
		zap.String("status", status),
		zap.Bool("modelHealthy", modelHealthy),
		zap.Bool("dbHealthy", dbHealthy),
	)

	return &types.HealthResponse{
		Status: status,
		Services: map[string]string{
			"model":    healthLabel(modelHealthy),
			"database": healthLabel(dbHealthy),
		},
		Uptime:    time.Since(c.started).Seconds(),
		Timestamp: time.Now(),
	}
}

func healthLabel(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
