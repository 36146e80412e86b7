package routes

import (
	"net/http"

	"ziggie/ziggie/controllers"
)

func HealthRoute(ctrl *controllers.HealthController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Liveness semantics: always 200, degraded state is in the body.
		writeJSON(w, http.StatusOK, ctrl.Check(r.Context()))
	}
}
