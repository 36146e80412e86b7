package controllers

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		modelUp    bool
		dbErr      error
		wantStatus string
		wantModel  string
		wantDB     string
	}{
		{"all healthy", true, nil, "ok", "healthy", "healthy"},
		{"model down", false, nil, "degraded", "unhealthy", "healthy"},
		{"db down", true, errors.New("refused"), "degraded", "healthy", "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewHealthController(fakePinger{err: tt.dbErr}, &fakeModel{healthy: tt.modelUp})
			resp := ctrl.Check(context.Background())
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, resp.Status)
			}
			if resp.Services["model"] != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, resp.Services["model"])
			}
			if resp.Services["database"] != tt.wantDB {
				t.Errorf("expected database %s, got %s", tt.wantDB, resp.Services["database"])
			}
			if resp.Uptime < 0 {
				t.Error("expected non-negative uptime")
			}
		})
	}
}
