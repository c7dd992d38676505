package service

import (
	"errors"
	"fmt"

	"datamart-checkout/internal/model"
)

var (
	ErrEmptyCart         = errors.New("order: cart is empty or not found")
	ErrOrderNotFound     = errors.New("order: not found")
	ErrInvalidSession    = errors.New("payment: session metadata missing order or user id")
	ErrOwnershipMismatch = errors.New("order: does not belong to the authenticated user")
	ErrForbidden         = errors.New("order: administrator role required")
)

// ProductUnavailableError reports the first cart item that failed the
// availability check. Checkout fails fast on it; nothing is persisted.
type ProductUnavailableError struct {
	ProductID string
	Requested int
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available in requested quantity %d", e.ProductID, e.Requested)
}

type InvalidStatusTransitionError struct {
	From model.OrderStatus
	To   model.OrderStatus
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

type NotCancellableError struct {
	Status model.OrderStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order cannot be cancelled in current status %s", e.Status)
}

// PaymentProviderError wraps a failure talking to the payment provider.
// Provider calls are never retried by the engine.
type PaymentProviderError struct {
	Op  string
	Err error
}

func (e *PaymentProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *PaymentProviderError) Unwrap() error { return e.Err }

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
