package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrOrderClosed           = errors.New("order is closed")
	ErrCourierMismatch       = errors.New("courier is not assigned to the order")
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

// InvalidTransitionError reports a requested status that is not reachable
// from the current one.
type InvalidTransitionError struct {
	From  string
	To    string
	Cause error
}

func NewInvalidTransitionError(from, to fmt.Stringer) *InvalidTransitionError {
	return &InvalidTransitionError{From: from.String(), To: to.String()}
}

func NewInvalidTransitionErrorWithCause(from, to fmt.Stringer, cause error) *InvalidTransitionError {
	return &InvalidTransitionError{From: from.String(), To: to.String(), Cause: cause}
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// OrderClosedError reports a mutation attempted on an order in a terminal status.
// When Target is set the mutation was a status change, and the error also
// matches ErrInvalidTransition: terminal statuses have no outgoing transitions.
type OrderClosedError struct {
	OrderID string
	Status  string
	Target  string
	Cause   error
}

func NewOrderClosedError(orderID, status fmt.Stringer) *OrderClosedError {
	return &OrderClosedError{OrderID: orderID.String(), Status: status.String()}
}

func NewOrderClosedErrorWithCause(orderID, status fmt.Stringer, cause error) *OrderClosedError {
	return &OrderClosedError{OrderID: orderID.String(), Status: status.String(), Cause: cause}
}

// NewClosedTransitionError reports a status change requested on a terminal order.
func NewClosedTransitionError(orderID, status, target fmt.Stringer) *OrderClosedError {
	return &OrderClosedError{OrderID: orderID.String(), Status: status.String(), Target: target.String()}
}

func (e *OrderClosedError) Error() string {
	msg := fmt.Sprintf("%s: order %s is %s", ErrOrderClosed, e.OrderID, e.Status)
	if e.Target != "" {
		msg += fmt.Sprintf(", cannot move to %s", e.Target)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *OrderClosedError) Unwrap() []error {
	if e.Target != "" {
		return []error{ErrOrderClosed, ErrInvalidTransition}
	}
	return []error{ErrOrderClosed}
}

// CourierMismatchError reports a courier acting on an order assigned to another courier.
type CourierMismatchError struct {
	OrderID   string
	CourierID string
}

func NewCourierMismatchError(orderID, courierID fmt.Stringer) *CourierMismatchError {
	return &CourierMismatchError{OrderID: orderID.String(), CourierID: courierID.String()}
}

func (e *CourierMismatchError) Error() string {
	return fmt.Sprintf("%s: courier %s, order %s", ErrCourierMismatch, e.CourierID, e.OrderID)
}

func (e *CourierMismatchError) Unwrap() error {
	return ErrCourierMismatch
}

// RepositoryUnavailableError wraps a persistence failure. It is the only
// failure that aborts a transition as a server error.
type RepositoryUnavailableError struct {
	Operation string
	Cause     error
}

func NewRepositoryUnavailableError(operation string, cause error) *RepositoryUnavailableError {
	return &RepositoryUnavailableError{Operation: operation, Cause: cause}
}

func (e *RepositoryUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrRepositoryUnavailable, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrRepositoryUnavailable, e.Operation)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *RepositoryUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRepositoryUnavailable}
	}
	return []error{ErrRepositoryUnavailable, e.Cause}
}

var (
	ErrConcurrentUpdate        = errors.New("order was updated concurrently")
	ErrBroadcastUnavailable    = errors.New("broadcast unavailable")
	ErrNotificationUndelivered = errors.New("notification delivery failed")
)

// ConcurrentUpdateError reports a conditional write that matched no row
// because another writer changed the order first. Expected is the status the
// loser read; the winner may have kept it.
type ConcurrentUpdateError struct {
	OrderID  string
	Expected string
}

func NewConcurrentUpdateError(orderID, expected fmt.Stringer) *ConcurrentUpdateError {
	return &ConcurrentUpdateError{OrderID: orderID.String(), Expected: expected.String()}
}

func (e *ConcurrentUpdateError) Error() string {
	return fmt.Sprintf("%s: order %s changed since it was read as %s", ErrConcurrentUpdate, e.OrderID, e.Expected)
}

func (e *ConcurrentUpdateError) Unwrap() error {
	return ErrConcurrentUpdate
}

// BroadcastUnavailableError wraps a relay sink failure. Local subscribers
// have already been served when it is returned.
type BroadcastUnavailableError struct {
	Sink  string
	Cause error
}

func NewBroadcastUnavailableError(sink string, cause error) *BroadcastUnavailableError {
	return &BroadcastUnavailableError{Sink: sink, Cause: cause}
}

func (e *BroadcastUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrBroadcastUnavailable, e.Sink, e.Cause)
}

func (e *BroadcastUnavailableError) Unwrap() []error {
	return []error{ErrBroadcastUnavailable, e.Cause}
}

// NotificationUndeliveredError wraps a transport failure for one recipient.
type NotificationUndeliveredError struct {
	Recipient string
	Cause     error
}

func NewNotificationUndeliveredError(recipient string, cause error) *NotificationUndeliveredError {
	return &NotificationUndeliveredError{Recipient: recipient, Cause: cause}
}

func (e *NotificationUndeliveredError) Error() string {
	return fmt.Sprintf("%s: recipient %s (cause: %v)", ErrNotificationUndelivered, e.Recipient, e.Cause)
}

func (e *NotificationUndeliveredError) Unwrap() []error {
	return []error{ErrNotificationUndelivered, e.Cause}
}
