package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes surfaced in the API envelope
const (
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeAddFailed       = "ADD_FAILED"
	ErrCodeRemoveFailed    = "REMOVE_FAILED"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Common error constructors
func NewUnauthenticatedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthenticated, message, nil)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, err)
}

func NewInvalidInputError(message string, err error) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrCodeNotFound, message, err)
}

func NewAlreadyExistsError(message string, err error) *AppError {
	return NewAppError(ErrCodeAlreadyExists, message, err)
}

func NewFetchFailedError(message string, err error) *AppError {
	return NewAppError(ErrCodeFetchFailed, message, err)
}

func NewAddFailedError(message string, err error) *AppError {
	return NewAppError(ErrCodeAddFailed, message, err)
}

func NewRemoveFailedError(message string, err error) *AppError {
	return NewAppError(ErrCodeRemoveFailed, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(ErrCodeInternal, message, err)
}

// Response is the envelope returned by every API endpoint. Data is null on
// failure and Error is null on success.
type Response struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
	Message string  `json:"message"`
}

// WriteJSON writes v as a JSON body with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteSuccess writes a successful envelope
func WriteSuccess(w http.ResponseWriter, statusCode int, data any, message string) {
	WriteJSON(w, statusCode, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteErrorResponse writes an error envelope
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err *AppError) {
	code := err.Code
	WriteJSON(w, statusCode, Response{
		Success: false,
		Error:   &code,
		Message: err.Message,
	})
}

// GetHTTPStatusCode returns the appropriate HTTP status code for an error
func GetHTTPStatusCode(err *AppError) int {
	switch err.Code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthenticated, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError handles an error and writes an appropriate HTTP response
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("An unexpected error occurred", err)
	}

	WriteErrorResponse(w, GetHTTPStatusCode(appErr), appErr)
}
