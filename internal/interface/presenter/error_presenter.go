package presenter

import (
	"net/http"
	"time"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp   time.Time    `json:"timestamp"`
	Status      int          `json:"status"`
	Error       string       `json:"error"`
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue"`
}

const validationFailedMessage = "Validation failed for one or more fields"

func NewError(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

func NewValidationError(fieldErrors []FieldError) *ErrorResponse {
	resp := NewError(http.StatusBadRequest, validationFailedMessage)
	resp.FieldErrors = fieldErrors
	return resp
}
