package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"skillforge/internal/contextutils"
	"skillforge/internal/services"
)

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse is the standard envelope for all JSON endpoints.
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// ErrorDetail carries structured error information.
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder constructs standardized responses. Internal error messages are
// masked; the correlated detail lives in the server log only.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a response builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// Success writes a 200 response with data.
func (b *Builder) Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.write(w, r, http.StatusOK, &APIResponse{Success: true, Data: data})
}

// Created writes a 201 response with data.
func (b *Builder) Created(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.write(w, r, http.StatusCreated, &APIResponse{Success: true, Data: data})
}

// Error maps a service error onto the wire format. Unknown errors become
// masked 500s.
func (b *Builder) Error(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := services.GetServiceError(err)
	status := serviceErr.GetStatusCode()

	detail := &ErrorDetail{
		Type:    serviceErr.Type,
		Message: serviceErr.Message,
		Details: serviceErr.Details,
	}
	if status >= http.StatusInternalServerError {
		contextutils.GetLogger(r.Context(), b.logger).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		detail.Message = "internal server error"
		detail.Details = nil
	}

	b.write(w, r, status, &APIResponse{Success: false, Error: detail})
}

// BadRequest writes a 400 response.
func (b *Builder) BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	b.writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// Unauthorized writes a 401 response.
func (b *Builder) Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	b.writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// NotFound writes a 404 response.
func (b *Builder) NotFound(w http.ResponseWriter, r *http.Request, message string) {
	b.writeError(w, r, http.StatusNotFound, "NOT_FOUND", message)
}

// InternalError writes a 500 response.
func (b *Builder) InternalError(w http.ResponseWriter, r *http.Request, message string) {
	b.writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func (b *Builder) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	b.write(w, r, status, &APIResponse{
		Success: false,
		Error:   &ErrorDetail{Type: errType, Message: message},
	})
}

func (b *Builder) write(w http.ResponseWriter, r *http.Request, status int, resp *APIResponse) {
	resp.RequestID = contextutils.GetRequestID(r.Context())
	resp.Timestamp = time.Now().Unix()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		b.logger.Error("failed to encode response", zap.Error(err))
	}
}
