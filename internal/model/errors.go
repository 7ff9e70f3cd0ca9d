package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrSellRejected      = errors.New("insufficient stock or product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNoMatch is returned by a conditional update whose predicate did not
	// hold on the stored record, including when the record does not exist.
	ErrNoMatch = errors.New("no record matched the update condition")

	ErrDuplicateKey     = errors.New("duplicate key")
	ErrConflict         = errors.New("conflicting concurrent update")
	ErrAllocationFailed = errors.New("sku allocation failed")

	// ErrUnavailable marks a store failure (timeout, lost connection) after
	// which the outcome of the mutation is unknown.
	ErrUnavailable = errors.New("store unavailable")
)

// DuplicateKeyError is the unique constraint violation reported by a store
// write. Field is the logical field name (sku, name, sku_prefix).
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("duplicate key on %s", e.Field)
	}
	return fmt.Sprintf("duplicate key on %s: %v", e.Field, e.Err)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// IsDuplicateField reports whether err is a unique violation on field.
func IsDuplicateField(err error, field string) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup) && dup.Field == field
}

// SellRejection is the outcome of a sell whose conditional decrement did not
// apply. It always matches ErrSellRejected; Reason narrows it to
// ErrProductNotFound or ErrInsufficientStock when that could be determined.
type SellRejection struct {
	ProductID string
	Requested int64
	Available int64
	Reason    error
}

func (e *SellRejection) Error() string {
	switch {
	case errors.Is(e.Reason, ErrInsufficientStock):
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	case e.Reason != nil:
		return fmt.Sprintf("%v: %s", e.Reason, e.ProductID)
	}
	return fmt.Sprintf("%v: %s", ErrSellRejected, e.ProductID)
}

func (e *SellRejection) Is(target error) bool { return target == ErrSellRejected }

func (e *SellRejection) Unwrap() error { return e.Reason }

// Unavailable wraps a driver error so that it matches ErrUnavailable.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Invalid builds a validation error with a human readable message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
