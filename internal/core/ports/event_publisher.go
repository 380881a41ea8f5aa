package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
)

// Event names published to rooms.
const (
	EventOrderUpdated         = "order-updated"
	EventOrderStatusUpdated   = "order-status-updated"
	EventNewOrder             = "new-order"
	EventCourierLocation      = "courier:location"
	EventCustomerArrived      = "customer-arrived"
	EventTrackingSessionEnded = "tracking-session-ended"
)

// RoomKeys selects the rooms an event fans out to. Nil keys are skipped.
type RoomKeys struct {
	OrderID  *kernel.UUID
	BranchID *kernel.UUID
	UserID   *kernel.UUID
}

// Event is a typed payload addressed by room keys. The publisher stamps it
// with the server time on delivery.
type Event struct {
	Name    string
	Keys    RoomKeys
	Payload any
}

// EventPublisher fans events out to room subscribers.
//
// Publishing to a room with no subscribers is not an error. A non-nil error
// means an optional relay sink failed (errs.ErrBroadcastUnavailable); local
// subscribers have been served regardless.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
