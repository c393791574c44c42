// Package httputil holds the JSON envelope, request decoding and the outbound
// HTTP client shared by handlers and services.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Envelope wraps every REST response.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Error      interface{} `json:"error"`
	Message    interface{} `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as the response body with status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a success envelope. message describes the call, such as
// "fetch all users".
func WriteData(w http.ResponseWriter, status int, message string, data interface{}) {
	var msg interface{} = "CALL API SUCCESS"
	if message != "" {
		msg = message
	}
	WriteJSON(w, status, Envelope{StatusCode: status, Message: msg, Data: data})
}

// WriteErrorResponse writes an error envelope.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	env := Envelope{StatusCode: status, Error: code, Message: message}
	if len(details) > 0 {
		env.Details = details
	}
	WriteJSON(w, status, env)
}

// WriteError renders err. ServiceErrors keep their status; storage and
// query sentinels are mapped; anything else is a 500 whose cause is logged
// but not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	se := Classify(err)
	if se.HTTPStatus >= http.StatusInternalServerError && log != nil {
		log.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	WriteErrorResponse(w, r, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// Classify converts any error into the ServiceError it is rendered as.
func Classify(err error) *errors.ServiceError {
	if se := errors.GetServiceError(err); se != nil {
		return se
	}
	switch {
	case errors.Is(err, query.ErrInvalid):
		return errors.BadRequest("%v", err)
	case errors.Is(err, storage.ErrNotFound):
		return errors.NotFound("%v", err)
	case errors.Is(err, storage.ErrConflict):
		return errors.Conflict("%v", err)
	}
	return errors.Internal("internal server error", err)
}
