package apperror

import (
	"errors"
	"net/http"
)

// AppError is the domain error carried from services up to the HTTP layer.
// Status is the HTTP status the central error handler will answer with, Code a
// stable machine-readable identifier for clients.
type AppError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

func BadRequest(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
}

// BadRequestWithDetails attaches structured details, e.g. the list of missing
// spreadsheet columns.
func BadRequestWithDetails(message string, details interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message, Details: details}
}

func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

func UnprocessableEntity(message string) *AppError {
	return &AppError{Status: http.StatusUnprocessableEntity, Code: "UNPROCESSABLE_ENTITY", Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

// Is reports whether err is an AppError, unwrapping as needed.
func Is(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
