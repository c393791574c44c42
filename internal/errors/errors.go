// Package errors defines the typed errors services return to the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine readable error identifier.
type Code string

const (
	CodeBadRequest     Code = "BAD_REQUEST"
	CodeValidation     Code = "VALIDATION_FAILED"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeInvalidToken   Code = "INVALID_TOKEN"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeRateLimited    Code = "RATE_LIMIT_EXCEEDED"
	CodeUnsupported    Code = "UNSUPPORTED_MEDIA"
	CodePayloadTooBig  Code = "PAYLOAD_TOO_LARGE"
	CodeInternal       Code = "INTERNAL_ERROR"
	CodeServiceFailure Code = "UPSTREAM_FAILURE"
)

// ServiceError carries an HTTP status and a user facing message.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails returns a copy of e with key set in Details.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func newError(code Code, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func BadRequest(format string, args ...interface{}) *ServiceError {
	return newError(CodeBadRequest, http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

// Validation reports field level validation failures.
func Validation(message string, fields map[string]string) *ServiceError {
	e := newError(CodeValidation, http.StatusBadRequest, message, nil)
	if len(fields) > 0 {
		e.Details = map[string]interface{}{"fields": fields}
	}
	return e
}

func NotFound(format string, args ...interface{}) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...interface{}) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken wraps a token parsing or verification failure.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "invalid or expired token", err)
}

func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "you do not have permission to access this endpoint"
	}
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

func UnsupportedMedia(format string, args ...interface{}) *ServiceError {
	return newError(CodeUnsupported, http.StatusBadRequest, fmt.Sprintf(format, args...), nil)
}

func PayloadTooLarge(limit int64) *ServiceError {
	return newError(CodePayloadTooBig, http.StatusRequestEntityTooLarge, fmt.Sprintf("payload exceeds %d bytes", limit), nil)
}

func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded", nil)
	e.Details = map[string]interface{}{"limit": limit, "window": window}
	return e
}

func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// Upstream reports a failing dependency (mail relay, media host, LLM).
func Upstream(message string, err error) *ServiceError {
	return newError(CodeServiceFailure, http.StatusBadGateway, message, err)
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
