package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents lookups of absent entities
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeForbidden represents ownership/authorization failures
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeSelfReference represents a user referencing themselves in an edge
	ErrorTypeSelfReference ErrorType = "self_reference"
	// ErrorTypeConflict represents transactions that lost to a concurrent commit
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeIntegrity represents committed state that violates a data invariant
	ErrorTypeIntegrity ErrorType = "integrity"
	// ErrorTypeValidation represents malformed or missing input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStore represents entity-store connection/query failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
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

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Not-found Errors

// ErrUserNotFound is returned when a referenced user does not exist
type ErrUserNotFound struct {
	*BaseError
	UserID string
}

func NewUserNotFound(userID string) *ErrUserNotFound {
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("user not found: %s", userID), nil),
		UserID:    userID,
	}
}

// ErrPostNotFound is returned when a referenced post does not exist
type ErrPostNotFound struct {
	*BaseError
	PostID string
}

func NewPostNotFound(postID string) *ErrPostNotFound {
	return &ErrPostNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("post not found: %s", postID), nil),
		PostID:    postID,
	}
}

// ErrCommentNotFound is returned when a referenced comment does not exist
type ErrCommentNotFound struct {
	*BaseError
	CommentID string
}

func NewCommentNotFound(commentID string) *ErrCommentNotFound {
	return &ErrCommentNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("comment not found: %s", commentID), nil),
		CommentID: commentID,
	}
}

// Authorization Errors

// ErrForbidden is returned when the requester does not own the target entity
type ErrForbidden struct {
	*BaseError
	RequesterID string
	Action      string
}

func NewForbidden(requesterID, action string) *ErrForbidden {
	return &ErrForbidden{
		BaseError:   NewBaseError(ErrorTypeForbidden, fmt.Sprintf("requester %s may not %s", requesterID, action), nil),
		RequesterID: requesterID,
		Action:      action,
	}
}

// ErrSelfReference is returned when a user targets themselves in a follow edge
type ErrSelfReference struct {
	*BaseError
	UserID string
}

func NewSelfReference(userID string) *ErrSelfReference {
	return &ErrSelfReference{
		BaseError: NewBaseError(ErrorTypeSelfReference, "user cannot follow self", nil),
		UserID:    userID,
	}
}

// Transaction Errors

// ErrConflict is returned when a transaction cannot commit because of a
// concurrent modification. It is the only retryable kind.
type ErrConflict struct {
	*BaseError
	Operation string
}

func NewConflict(operation string, err error) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeConflict, fmt.Sprintf("transaction conflict during %s", operation), err),
		Operation: operation,
	}
}

// ErrIntegrityViolation is returned when a cascade step discovers committed
// state that violates a data invariant. Fatal: the transaction aborts and the
// state is never repaired silently.
type ErrIntegrityViolation struct {
	*BaseError
	Detail string
}

func NewIntegrityViolation(detail string) *ErrIntegrityViolation {
	return &ErrIntegrityViolation{
		BaseError: NewBaseError(ErrorTypeIntegrity, fmt.Sprintf("integrity violation: %s", detail), nil),
		Detail:    detail,
	}
}

// Validation Errors

// ErrValidation is returned for malformed or missing input
type ErrValidation struct {
	*BaseError
	Field string
}

func NewValidation(field, reason string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
	}
}

// ErrDuplicate is returned when a unique field (username, email) is taken
type ErrDuplicate struct {
	*BaseError
	Field string
}

func NewDuplicate(field string) *ErrDuplicate {
	return &ErrDuplicate{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s already taken", field), nil),
		Field:     field,
	}
}

// Store Errors

// ErrStoreFailed is returned when the entity store fails outside of a
// transaction conflict (connection loss, malformed document).
type ErrStoreFailed struct {
	*BaseError
	Operation string
}

func NewStoreFailed(operation string, err error) *ErrStoreFailed {
	return &ErrStoreFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

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

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if baseErr, ok := err.(*BaseError); ok {
			return baseErr.Type == errType
		}
		if typed, ok := err.(interface{ base() *BaseError }); ok {
			return typed.base().Type == errType
		}
		if wrapped, ok := err.(interface{ Unwrap() error }); ok {
			err = wrapped.Unwrap()
			continue
		}
		return false
	}
	return false
}

func (e *BaseError) base() *BaseError { return e }

// IsNotFound reports whether err is any of the not-found kinds
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsConflict reports whether err is a transaction conflict
func IsConflict(err error) bool {
	var conflict *ErrConflict
	return errors.As(err, &conflict)
}

// IsRetryable checks if an error is retryable. Only transaction conflicts
// qualify: every other kind is terminal for the request.
func IsRetryable(err error) bool {
	return IsConflict(err)
}
