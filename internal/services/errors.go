package services

import (
	"errors"
	"fmt"

	"campusmart/internal/domain"
)

var (
	ErrBadCreds     = errors.New("invalid username or password")
	ErrAuthRequired = errors.New("admin session required")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

type NotFoundError struct {
	Kind string // "product" or "order"
	ID   string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

// PriceMismatchError means the submitted amount differs from the listed price.
type PriceMismatchError struct {
	Submitted string
	Expected  string
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("amount %s does not match the current price %s", e.Submitted, e.Expected)
}

type InvalidTransitionError struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// DownstreamError wraps email, event and invoice failures. Order transitions only log it;
// an explicit invoice download returns it.
type DownstreamError struct {
	Op  string
	Err error
}

func (e *DownstreamError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DownstreamError) Unwrap() error { return e.Err }
