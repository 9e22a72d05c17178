package services

import "net/http"

// ServiceError represents a typed error with an HTTP status code. When Body
// is set it is rendered verbatim instead of {"error": Message}.
type ServiceError struct {
	StatusCode int
	Message    string
	Body       any
}

func (e *ServiceError) Error() string {
	return e.Message
}

func BadRequest(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Message: msg}
}

func Forbidden(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusForbidden, Message: msg}
}

func Conflict(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Message: msg}
}

func Internal(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: msg}
}

func Unauthorized(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusUnauthorized, Message: msg}
}

// Validation is a 400 whose body maps field names to messages.
func Validation(fields map[string][]string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: "validation failed", Body: fields}
}

// FieldError is a 400 for a single field.
func FieldError(field, msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Message: msg, Body: map[string][]string{field: {msg}}}
}

// RuleViolation is a business-rule failure rendered as {"message": msg}.
func RuleViolation(status int, msg string) *ServiceError {
	return &ServiceError{StatusCode: status, Message: msg, Body: map[string]string{"message": msg}}
}

// ListError renders as a bare JSON array of messages.
func ListError(status int, msgs ...string) *ServiceError {
	return &ServiceError{StatusCode: status, Message: msgs[0], Body: msgs}
}
