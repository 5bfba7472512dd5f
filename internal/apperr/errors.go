// Package apperr defines the typed errors the storefront core reports to its
// HTTP boundary. Validation, not-found, stock and review failures carry enough
// context for a 4xx response; everything else is wrapped as a persistence
// failure and treated as fatal for the request.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or empty input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing product or order.
type NotFoundError struct {
	Kind string // "product" | "order"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InsufficientStockError reports a line item requesting more units than the
// catalog holds. Available reflects the catalog state observed at check time.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

// DuplicateReviewError reports a second review by the same user.
type DuplicateReviewError struct {
	ProductID string
	UserID    string
}

func (e *DuplicateReviewError) Error() string {
	return fmt.Sprintf("product %s already reviewed by user %s", e.ProductID, e.UserID)
}

// PersistenceError wraps an unexpected datastore failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistence wraps err as a PersistenceError for operation op.
func NewPersistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInsufficientStock reports whether err is an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var is *InsufficientStockError
	return errors.As(err, &is)
}

// IsDuplicateReview reports whether err is a DuplicateReviewError.
func IsDuplicateReview(err error) bool {
	var dr *DuplicateReviewError
	return errors.As(err, &dr)
}
