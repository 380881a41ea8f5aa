package order

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// Status is the lifecycle position of an order.
//
// Transition table:
//
//	pending     ──> confirmed, cancelled
//	confirmed   ──> assigned, preparing, cancelled
//	preparing   ──> ready, cancelled
//	ready       ──> assigned, delivered, picked_up
//	assigned    ──> on_delivery, picked_up, cancelled
//	picked_up   ──> on_delivery, delivered, cancelled
//	on_delivery ──> delivered, cancelled
//	delivered, completed, cancelled: terminal
//
// completed is only reached by the deferred pickup completion, see Order.CompletePickup.
type Status string

const (
	Unknown    Status = ""
	Pending    Status = "pending"
	Confirmed  Status = "confirmed"
	Preparing  Status = "preparing"
	Ready      Status = "ready"
	Assigned   Status = "assigned"
	PickedUp   Status = "picked_up"
	OnDelivery Status = "on_delivery"
	Delivered  Status = "delivered"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

// getTransitions returns the allowed next statuses per status.
// Terminal statuses map to an empty set.
func getTransitions() map[Status][]Status {
	return map[Status][]Status{
		Pending:    {Confirmed, Cancelled},
		Confirmed:  {Assigned, Preparing, Cancelled},
		Preparing:  {Ready, Cancelled},
		Ready:      {Assigned, Delivered, PickedUp},
		Assigned:   {OnDelivery, PickedUp, Cancelled},
		PickedUp:   {OnDelivery, Delivered, Cancelled},
		OnDelivery: {Delivered, Cancelled},
		Delivered:  {},
		Completed:  {},
		Cancelled:  {},
	}
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Confirmed, Preparing, Ready, Assigned, PickedUp, OnDelivery, Delivered, Completed, Cancelled}
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return Unknown, err
	}
	return status, nil
}

// Validate checks that the status belongs to the closed enumeration.
func (s Status) Validate() error {
	if _, ok := getTransitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if s == Unknown {
		return "unknown"
	}
	return string(s)
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Completed || s == Cancelled
}

// AllowedTargets returns a copy of the statuses reachable from s.
func (s Status) AllowedTargets() []Status {
	targets := getTransitions()[s]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// CanTransitionTo reports whether target is in the table row of s.
// The same status is not a transition; callers treat it as a no-op.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns OrderClosed for terminal sources and
// InvalidTransition for targets outside the table.
func (s Status) ValidateTransition(target Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if s.IsTerminal() {
		return errs.NewInvalidTransitionErrorWithCause(s, target, fmt.Errorf("%s is terminal", s))
	}
	if !s.CanTransitionTo(target) {
		return errs.NewInvalidTransitionError(s, target)
	}
	return nil
}
