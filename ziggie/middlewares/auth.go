package middlewares

import (
	"net/http"
	"strings"

	"ziggie/ziggie/config"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/utils/logging"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrorWriter renders an application error; injected by the routes
// package so middlewares share the boundary's error shape.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// APIKey gates requests on the X-API-Key header. With no key configured
// the gate is open (development mode).
func APIKey(cfg config.Config, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("X-API-Key")
			if key == "" {
				logging.AppLogger.Warn("missing API key", zap.String("path", r.URL.Path))
				writeErr(w, r, errs.Authentication("API key required"))
				return
			}
			if key != cfg.APIKey {
				logging.AppLogger.Warn("invalid API key", zap.String("path", r.URL.Path))
				writeErr(w, r, errs.Authentication("Invalid API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuth gates admin routes on an HMAC-signed bearer token.
func AdminAuth(cfg config.Config, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			parts := strings.Split(auth, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeErr(w, r, errs.Authentication(""))
				return
			}
			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				writeErr(w, r, errs.Authentication("Invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
