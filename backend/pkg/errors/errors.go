package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed or missing input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents a missing or foreign-owned resource
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeUnavailable represents a store that is refusing work (open circuit)
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category reports the error type. Every typed error in this package embeds
// *BaseError and therefore exposes it through this method.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// Summary returns the human readable message without the category prefix or cause.
func (e *BaseError) Summary() string {
	return e.Message
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Memory Errors

// ErrMemoryNotFound is returned when a memory does not exist or belongs to another user.
// The two cases are indistinguishable to the caller.
type ErrMemoryNotFound struct {
	*BaseError
	MemoryID string
}

func NewMemoryNotFound(memoryID string) *ErrMemoryNotFound {
	return &ErrMemoryNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, "Memory not found or access denied", nil),
		MemoryID:  memoryID,
	}
}

// ErrValidationFailed is returned when a request payload fails validation
type ErrValidationFailed struct {
	*BaseError
	Reason string
}

func NewValidationFailed(reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, reason, nil),
		Reason:    reason,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph statement or transaction fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph operation failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrStoreUnavailable is returned while the store circuit breaker is open
type ErrStoreUnavailable struct {
	*BaseError
	Breaker string
}

func NewStoreUnavailable(breaker string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeUnavailable, "memory store temporarily unavailable", err),
		Breaker:   breaker,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type categorized interface {
	Category() ErrorType
}

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if c, ok := err.(categorized); ok && c.Category() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err is a not-found/access-denied condition
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsValidation reports whether err is an input validation failure
func IsValidation(err error) bool {
	return IsErrorType(err, ErrorTypeValidation)
}

// IsRetryable reports whether a failed store call may succeed when repeated.
// The request path never retries; memoryctl seed retries once.
func IsRetryable(err error) bool {
	if IsErrorType(err, ErrorTypeContext) || IsValidation(err) || IsNotFound(err) {
		return false
	}
	return IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeUnavailable)
}

// HTTPStatus maps an error onto the status code the API responds with
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsErrorType(err, ErrorTypeUnavailable):
		return http.StatusServiceUnavailable
	case IsErrorType(err, ErrorTypeContext):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to show to API clients.
// Infrastructure errors are collapsed to a generic message.
func PublicMessage(err error) string {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		c, ok := e.(categorized)
		if !ok {
			continue
		}
		switch c.Category() {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeUnavailable:
			if m, ok := e.(interface{ Summary() string }); ok {
				return m.Summary()
			}
		}
		return "internal server error"
	}
	return "internal server error"
}
