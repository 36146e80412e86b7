package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/utils/logging"

	"go.uber.org/zap"
)

type errorBody struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Details []errs.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorWriter renders an application error as the boundary JSON shape.
type ErrorWriter = func(w http.ResponseWriter, r *http.Request, err error)

// NewErrorWriter returns the single place an error becomes a status code
// and JSON body. Unrecognized errors never reach the client verbatim in
// production; full detail goes to the error log only.
func NewErrorWriter(production bool) ErrorWriter {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		var appErr *errs.Error
		if !errors.As(err, &appErr) {
			logging.ErrorLogger.Error("unexpected error",
				zap.String("path", r.URL.Path), zap.String("method", r.Method), zap.Error(err))
			appErr = errs.Internal("", err)
			if !production {
				appErr.Message = err.Error()
			}
		} else if appErr.Status() >= 500 {
			logging.ErrorLogger.Error("server error",
				zap.String("path", r.URL.Path), zap.String("code", appErr.Code), zap.Error(err))
		} else {
			logging.AppLogger.Warn("client error",
				zap.String("path", r.URL.Path), zap.String("code", appErr.Code), zap.String("message", appErr.Message))
		}

		body := errorBody{
			Status:  "error",
			Message: appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Fields,
		}
		if production && appErr.Kind == errs.KindInternal {
			body.Message = "Internal server error"
		}
		writeJSON(w, appErr.Status(), body)
	}
}

// handleJSON wraps a handler returning (payload, status, error) so every
// route shares the same envelope.
func handleJSON(writeErr func(http.ResponseWriter, *http.Request, error), handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, status, res)
	}
}
