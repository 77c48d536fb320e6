package errors

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")

	ErrNotAParty             = errors.New("user is not a party to this order")
	ErrDuplicateConfirmation = errors.New("completion already confirmed for this role")
	ErrReasonRequired        = errors.New("cancellation reason is required")
	ErrAlreadyRated          = errors.New("order has already been rated")

	// ErrDeliveryDropped is non-fatal: the durable notification row still
	// carries the information forward.
	ErrDeliveryDropped = errors.New("no active connection, realtime event dropped")
)

// ValidationError reports malformed request input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a status move the state machine does not
// allow for this actor, including duplicate confirmations.
type InvalidTransitionError struct {
	OrderID string
	From    string
	Target  string
	Actor   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: %s may not move status %s -> %s", e.OrderID, e.Actor, e.From, e.Target)
}

// InsufficientStockError fails the commit-time quantity re-check. Order
// creation aborts entirely when this is returned.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s: requested %d but only %d available", e.ProductID, e.Requested, e.Available)
}

// PartialAdjustmentWarning records stock rows that failed to adjust after the
// order row was already committed. Callers log it and move on.
type PartialAdjustmentWarning struct {
	OrderID  string
	Products []string
}

func (e *PartialAdjustmentWarning) Error() string {
	return fmt.Sprintf("order %s: stock adjustment failed for %d item(s): %v", e.OrderID, len(e.Products), e.Products)
}
