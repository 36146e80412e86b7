package routes

import (
	"encoding/json"
	"net/http"

	"ziggie/ziggie/controllers"
	"ziggie/ziggie/errs"

	"github.com/go-chi/chi/v5"
)

func SessionRoutes(ctrl *controllers.SessionController, writeErr ErrorWriter) chi.Router {
	r := chi.NewRouter()

	// POST /sessions : create a new chat session
	r.Post("/", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		var req struct {
			OwnerID  *string        `json:"ownerId"`
			Metadata map[string]any `json:"metadata"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, 0, errs.Validation("Invalid JSON body")
			}
		}
		session, err := ctrl.Create(r.Context(), req.OwnerID, req.Metadata)
		if err != nil {
			return nil, 0, err
		}
		return session, http.StatusCreated, nil
	}))

	// GET /sessions/{id} : session details plus message count
	r.Get("/{id}", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		detail, err := ctrl.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			return nil, 0, err
		}
		return detail, http.StatusOK, nil
	}))

	// DELETE /sessions/{id}
	r.Delete("/{id}", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		id := chi.URLParam(r, "id")
		if err := ctrl.Delete(r.Context(), id); err != nil {
			return nil, 0, err
		}
		return map[string]any{"sessionId": id, "deleted": true}, http.StatusOK, nil
	}))

	return r
}
