package errs

import (
	"fmt"
	"net/http"
)

// Kind classifies an error into the application taxonomy. The HTTP layer
// is the only place a Kind is turned into a status code.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindTimeout        Kind = "timeout"
	KindSafetyBlocked  Kind = "safety_blocked"
	KindRateLimit      Kind = "rate_limit"
	KindUpstream       Kind = "upstream"
	KindDatabase       Kind = "database"
	KindInternal       Kind = "internal"
)

// FieldError names one offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the tagged application error. Code is a stable machine-readable
// identifier distinct from the human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindSafetyBlocked:
		return http.StatusUnprocessableEntity
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	case KindDatabase, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Fields: fields}
}

func Authentication(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{Kind: KindAuthentication, Code: "AUTHENTICATION_ERROR", Message: message}
}

// NotFound names the missing resource type, e.g. NotFound("Session").
func NotFound(resource string) *Error {
	if resource == "" {
		resource = "Resource"
	}
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: resource + " not found"}
}

func Timeout(message string) *Error {
	if message == "" {
		message = "Request timeout"
	}
	return &Error{Kind: KindTimeout, Code: "TIMEOUT_ERROR", Message: message}
}

func SafetyBlocked(message string) *Error {
	if message == "" {
		message = "Content blocked by safety filters"
	}
	return &Error{Kind: KindSafetyBlocked, Code: "SAFETY_FILTER_TRIGGERED", Message: message}
}

func RateLimited(message string) *Error {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return &Error{Kind: KindRateLimit, Code: "RATE_LIMIT_EXCEEDED", Message: message}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: "MODEL_API_ERROR", Message: "Model API error: " + message, Err: err}
}

func Database(message string, err error) *Error {
	return &Error{Kind: KindDatabase, Code: "DATABASE_ERROR", Message: "Database error: " + message, Err: err}
}

func Internal(message string, err error) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}
