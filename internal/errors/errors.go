// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrOrderTerminal    = errors.New("order is in a terminal state")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDatabaseError    = errors.New("database error")
	ErrConnectionFailed = errors.New("connection failed")
)

// OrderError represents an error related to a specific order.
type OrderError struct {
	OrderID string
	Op      string
	Err     error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order %s: %s: %v", e.OrderID, e.Op, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(orderID, op string, err error) *OrderError {
	return &OrderError{OrderID: orderID, Op: op, Err: err}
}

// ValidationError represents a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrder
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrPositionNotFound)
}
