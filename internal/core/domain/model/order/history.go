package order

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// HistoryEntry is one immutable line of the status history.
type HistoryEntry struct {
	Status    Status
	Message   string
	Timestamp time.Time
	UpdatedBy *kernel.UUID
}

// CourierFlow is the denormalized timeline of courier milestones.
type CourierFlow struct {
	AcceptedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// LastMilestone names the latest recorded milestone, or "" when none.
func (f CourierFlow) LastMilestone() string {
	switch {
	case f.CancelledAt != nil:
		return "cancelled"
	case f.DeliveredAt != nil:
		return "delivered"
	case f.PickedUpAt != nil:
		return "picked_up"
	case f.AcceptedAt != nil:
		return "accepted"
	default:
		return ""
	}
}

// CourierLocation is the last reported courier position for a delivery order.
type CourierLocation struct {
	Location  kernel.Location
	UpdatedAt time.Time
}

// DeliveryInfo exists only for delivery orders.
type DeliveryInfo struct {
	Destination     *kernel.Location
	CourierLocation *CourierLocation
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// Item is one ordered product line, kept for display in broadcasts.
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	Price     int64
}

func copyItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	return append(make([]Item, 0, len(items)), items...)
}
