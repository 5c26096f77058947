// Package http serves the JSON API: member-facing dashboard reads and
// the authenticated treasury management surface.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/ingest"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
	"finboard/internal/store"
)

// envelope is the uniform JSON response shape. Exactly one of Data and
// Error is set; Hint carries actionable guidance for known store
// failures.
type envelope struct {
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ResponseBuilder assembles a JSON response.
type ResponseBuilder struct {
	statusCode int
	env        envelope
	headers    map[string]string
}

// NewResponse creates a builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the response payload.
func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.env.Data = data
	return b
}

// Error sets the error message.
func (b *ResponseBuilder) Error(msg string) *ResponseBuilder {
	b.env.Error = msg
	return b
}

// Hint attaches actionable guidance to an error.
func (b *ResponseBuilder) Hint(hint string) *ResponseBuilder {
	b.env.Hint = hint
	return b
}

// Header adds a custom header.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	b.env.RequestID = trace.GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.env); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}

// ErrorResponse maps known error values to status codes and hints, so
// handlers surface store failures uniformly instead of bare 500s.
func ErrorResponse(err error) *ResponseBuilder {
	b := NewResponse().Error(err.Error())
	switch {
	case errors.Is(err, services.ErrUnknownTerm),
		errors.Is(err, services.ErrUnknownExport):
		return b.Status(http.StatusNotFound)
	case errors.Is(err, services.ErrFileAlreadyUploaded):
		return b.Status(http.StatusConflict).
			Hint("This statement file was already processed. Rename the export only if it genuinely contains new transactions.")
	case errors.Is(err, store.ErrPermissionDenied):
		return b.Status(http.StatusForbidden).
			Hint("The store rejected the write. Check the API key's row-level security policy for this table.")
	case errors.Is(err, store.ErrDuplicateKey):
		return b.Status(http.StatusConflict).
			Hint("A row with this key already exists.")
	case errors.Is(err, core.ErrInvalidSemester),
		errors.Is(err, core.ErrInvalidTermRange),
		errors.Is(err, core.ErrEmptyTermID),
		errors.Is(err, core.ErrNegativeBudget),
		errors.Is(err, ingest.ErrUnknownStatement):
		return b.Status(http.StatusUnprocessableEntity)
	}
	return b.Status(http.StatusBadGateway)
}

// BadRequest builds a 400 response.
func BadRequest(msg string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).Error(msg)
}

// UnprocessableEntity builds a 422 response.
func UnprocessableEntity(msg string) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnprocessableEntity).Error(msg)
}

// MethodNotAllowed builds a 405 response with the Allow header.
func MethodNotAllowed(allowed string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Error("method not allowed").
		Header("Allow", allowed)
}
