package routes

import (
	"net/http"
	"strconv"

	"ziggie/ziggie/config"
	"ziggie/ziggie/controllers"
	"ziggie/ziggie/middlewares"

	"github.com/go-chi/chi/v5"
)

// AdminRoutes are maintenance endpoints behind the JWT gate.
func AdminRoutes(sessions *controllers.SessionController, leads *controllers.LeadController, cfg config.Config, writeErr ErrorWriter) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AdminAuth(cfg, writeErr))

	// POST /admin/sessions/cleanup : sweep expired sessions now
	r.Post("/sessions/cleanup", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		count, err := sessions.CleanupExpired(r.Context())
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"deleted": count}, http.StatusOK, nil
	}))

	// GET /admin/leads?limit=N
	r.Get("/leads", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		list, err := leads.ListRecent(r.Context(), limit)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"leads": list, "count": len(list)}, http.StatusOK, nil
	}))

	return r
}
