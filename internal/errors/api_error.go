package errors

import "net/http"

// APIError is the error every service returns. Handlers render it as
// {"error": {"code", "message", "details"}} with Status as the HTTP code.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// FieldDetails names the input field a validation error is about.
type FieldDetails struct {
	Field string `json:"field"`
}

// Envelope is the response body for an APIError.
type Envelope struct {
	Error *APIError `json:"error"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Envelope wraps e for the response body. A nil error renders as internal_error.
func (e *APIError) Envelope() Envelope {
	if e == nil {
		return Envelope{Error: Internal("")}
	}
	return Envelope{Error: e}
}

// StatusCode is Status, or 500 for a nil error.
func (e *APIError) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return e.Status
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	out := *e
	out.Details = details
	return &out
}

func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, "internal_error", orDefault(message, "internal server error"))
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

// Validation reports a missing or malformed input field.
func Validation(field, message string) *APIError {
	return BadRequest("validation_error", message).WithDetails(FieldDetails{Field: field})
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, "unauthorized", orDefault(message, "unauthorized"))
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	return New(http.StatusConflict, code, message).WithDetails(details)
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
