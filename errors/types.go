package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Backend errors
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendStatus      ErrorCode = "BACKEND_STATUS"
	ErrCodeFeedClosed         ErrorCode = "FEED_CLOSED"

	// Navigation errors
	ErrCodeSaveFailed          ErrorCode = "SAVE_FAILED"
	ErrCodeNavigationCancelled ErrorCode = "NAVIGATION_CANCELLED"
	ErrCodeConfirmSuperseded   ErrorCode = "CONFIRM_SUPERSEDED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// ConsoleError represents a structured error with context
type ConsoleError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ConsoleError) WithDetail(key string, value interface{}) *ConsoleError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ConsoleError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ConsoleError
func New(code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ConsoleError
func Wrap(err error, code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ConsoleError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, following wrapped causes.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	consoleErr, ok := err.(*ConsoleError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return consoleErr.Code
}
