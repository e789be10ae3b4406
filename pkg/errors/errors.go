package custom_error

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned whenever an authenticated call is attempted without a session token.
	ErrNotAuthenticated = &AuthorizationError{Message: "not authenticated, please log in"}
	// ErrSubmissionInFlight is returned when the same entity is already being transitioned.
	ErrSubmissionInFlight = &StateError{Message: "a submission for this entry is already in progress"}
)

// ConnectionError means no response was received from the backend.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return "connection error"
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// APIError is a non-2xx response with the detail message decoded from its body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status: %d)", e.Message, e.Status)
}

type AuthorizationError struct {
	Message string
	Cause   error
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func (e *AuthorizationError) Unwrap() error {
	return e.Cause
}

type StateError struct {
	Message string
	Cause   error
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Unwrap() error {
	return e.Cause
}

// ValidationError is a failed client-side pre-flight check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func NewStateError(format string, args ...any) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsState(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConnection(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}
