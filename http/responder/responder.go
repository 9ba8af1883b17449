// Package responder writes the JSON response envelope shared by all API
// handlers.
package responder

import (
	"net/http"

	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/json"
	"github.com/leeforge/essentials/logging"
)


func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":5000,"message":"encode failed"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// metaFor builds the meta block, taking the trace ID from the request
// context unless an option sets one.
func metaFor(r *http.Request, opts []Option) Meta {
	meta := NewMeta(opts...)
	if meta.TraceId == "" && r != nil {
		meta.TraceId = logging.GetTraceID(r.Context())
	}
	return *meta
}

// Write sends a response with data
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{Data: data, Meta: metaFor(r, opts)})
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, err Error, opts ...Option) {
	writeJSON(w, status, &Response{Error: &err, Meta: metaFor(r, opts)})
}

// BadRequest responds with 400 Bad Request
func BadRequest(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewError(ErrCodeBadRequest, message), opts...)
}

// NotFound responds with 404 Not Found
func NotFound(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusNotFound, NewError(ErrCodeNotFound, message), opts...)
}

// RouteNotFound is the router's fallback for unknown paths.
func RouteNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, NewError(ErrCodeRouteNotFound, ""))
}

// MethodNotAllowed is the router's fallback for a known path with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, NewError(ErrCodeMethodNotAllowed, ""))
}

// ValidationError responds with 400 Bad Request and field details
func ValidationError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeValidationFailed, "", details), opts...)
}

// BindError responds with 400 Bad Request for unreadable bodies
func BindError(w http.ResponseWriter, r *http.Request, details any, opts ...Option) {
	WriteError(w, r, http.StatusBadRequest, NewErrorWithDetails(ErrCodeBindFailed, "", details), opts...)
}

// InternalServerError responds with 500 Internal Server Error
func InternalServerError(w http.ResponseWriter, r *http.Request, message string, opts ...Option) {
	WriteError(w, r, http.StatusInternalServerError, NewError(ErrCodeInternalServer, message), opts...)
}

// FromError maps an application error to its status and code. Internal
// details of untyped errors are not exposed.
func FromError(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	status := apperrors.HTTPStatusOf(err)
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		WriteError(w, r, status, NewError(ErrCodeValidationFailed, err.Error()), opts...)
	case apperrors.ErrorTypeNotFound:
		WriteError(w, r, status, NewError(ErrCodeNotFound, err.Error()), opts...)
	case apperrors.ErrorTypeConflict:
		WriteError(w, r, status, NewError(ErrCodeConflict, err.Error()), opts...)
	case apperrors.ErrorTypeExternal:
		WriteError(w, r, status, NewError(ErrCodeExternalService, ""), opts...)
	default:
		WriteError(w, r, status, NewError(ErrCodeInternalServer, ""), opts...)
	}
}
