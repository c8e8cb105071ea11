// Package errors defines the structured error envelope rendered on the
// HTTP boundary.
package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a structured API error response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// Predefined errors for common conditions.
var (
	ErrInvalidRequest = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrNotFound       = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRunInProgress  = New(http.StatusConflict, "RUN_IN_PROGRESS", "An analysis run is already in progress")
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// InvalidRequestWithError attaches the decode failure to a 400.
func InvalidRequestWithError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "INVALID_REQUEST",
		Message:    "Invalid request format",
		Details:    err.Error(),
	}
}

// NotFoundWithMessage builds a 404 with a specific message.
func NotFoundWithMessage(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

// UnprocessableWithError reports a run that could not produce a result.
func UnprocessableWithError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		ErrorCode:  "ANALYSIS_FAILED",
		Message:    err.Error(),
	}
}
