// Package shared contains the error taxonomy and domain events used across
// all domain packages. It has no external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds, checked with errors.Is().
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	ErrUnauthorized = errors.New("unauthorized")

	// ErrConcurrentModification marks a transaction aborted by the storage
	// layer because a concurrent transaction touched the same rows.
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrTimeout                = errors.New("operation timeout")
)

// DomainError is an error with domain context.
type DomainError struct {
	Domain  string // e.g. "tasklog", "reward", "progress"
	Op      string // operation that failed
	Kind    error  // base kind for errors.Is()
	Message string
	Err     error // underlying cause, optional
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the cause, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Directory errors.
var (
	ErrUserNotFound     = NewDomainError("directory", "GetUser", ErrNotFound, "user not found")
	ErrCategoryNotFound = NewDomainError("directory", "GetCategory", ErrNotFound, "category not found")
	ErrTaskNotFound     = NewDomainError("directory", "ResolveTask", ErrNotFound, "task not found or inactive")
)

// Task log errors.
var (
	ErrCategoryRequired = NewDomainError("tasklog", "Validate", ErrInvalidInput, "category id is required when no task is given")
	ErrInvalidQuantity  = NewDomainError("tasklog", "Validate", ErrValueOutOfRange, "quantity must be greater than zero, below 100000000 and have at most 2 decimal places")
	ErrAwardOutOfRange  = NewDomainError("tasklog", "Award", ErrValueOutOfRange, "awarded amount exceeds the storable range")
	ErrInvalidUserID    = NewDomainError("tasklog", "Validate", ErrInvalidID, "user id is required")
)

// Progress errors.
var (
	ErrNegativeXP     = NewDomainError("progress", "ApplyXP", ErrNegativeValue, "xp delta cannot be negative")
	ErrInvalidSnapKey = NewDomainError("progress", "UpsertSnapshot", ErrInvalidInput, "snapshot key is incomplete")
)

// Reward errors.
var (
	ErrRewardNotFound   = NewDomainError("reward", "Find", ErrNotFound, "reward not found")
	ErrInvalidCondition = NewDomainError("reward", "Validate", ErrInvalidInput, "reward condition type is empty")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
