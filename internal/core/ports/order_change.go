package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// ChangeKind classifies a committed order change.
type ChangeKind string

const (
	ChangeCreated         ChangeKind = "created"
	ChangeStatus          ChangeKind = "status"
	ChangeCourierAssigned ChangeKind = "courier_assigned"
	ChangeCourierLocation ChangeKind = "courier_location"
	ChangeCustomerArrived ChangeKind = "customer_arrived"
)

// OrderChange describes one committed change. Order is a snapshot taken
// after commit and must not be mutated by hooks.
type OrderChange struct {
	Kind            ChangeKind
	Order           order.Snapshot
	PreviousStatus  order.Status
	PreviousCourier *kernel.UUID
	Actor           order.Actor
	Courier         *CourierProfile
}

// StatusChanged reports whether the change moved the order to a new status.
func (c OrderChange) StatusChanged() bool {
	return c.Order.Status != c.PreviousStatus
}

// OrderChangeHook runs after a change is committed. Errors are logged by the
// caller and never affect the already committed change.
type OrderChangeHook interface {
	OnOrderChanged(ctx context.Context, change OrderChange) error
}
