package routes

import (
	"encoding/json"
	"net/http"

	"ziggie/ziggie/controllers"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/types"

	"github.com/go-chi/chi/v5"
)

func LeadRoutes(ctrl *controllers.LeadController, writeErr ErrorWriter) chi.Router {
	r := chi.NewRouter()

	// POST /leads : capture a contact from the conversation
	r.Post("/", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		var req types.CreateLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, 0, errs.Validation("Invalid JSON body")
		}
		resp, err := ctrl.CreateLead(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return resp, http.StatusCreated, nil
	}))

	return r
}
