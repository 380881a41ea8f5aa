package events

import (
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// OrderUpdatedEvent addresses the order room and the owning branch.
func OrderUpdatedEvent(s order.Snapshot, courier *ports.CourierProfile) ports.Event {
	payload := OrderUpdated{
		OrderID:   s.ID.String(),
		Status:    s.Status,
		CourierID: idString(s.CourierID),
		UpdatedAt: s.UpdatedAt,
	}
	if courier != nil && s.CourierID != nil && courier.ID.IsEqual(*s.CourierID) && courier.Name != "" {
		name := courier.Name
		payload.CourierName = &name
	}
	if s.Delivery != nil && s.Delivery.CourierLocation != nil {
		payload.CourierLocation = locationOf(&s.Delivery.CourierLocation.Location)
	}

	return ports.Event{
		Name:    ports.EventOrderUpdated,
		Keys:    ports.RoomKeys{OrderID: idPtr(s.ID), BranchID: idPtr(s.BranchID)},
		Payload: payload,
	}
}

// OrderStatusUpdatedEvent addresses the branch dashboards.
func OrderStatusUpdatedEvent(s order.Snapshot) ports.Event {
	return ports.Event{
		Name: ports.EventOrderStatusUpdated,
		Keys: ports.RoomKeys{BranchID: idPtr(s.BranchID)},
		Payload: OrderStatusUpdated{
			OrderID:       s.ID.String(),
			Status:        s.Status,
			CourierID:     idString(s.CourierID),
			CourierStatus: s.CourierFlow.LastMilestone(),
			DeliveredAt:   s.CourierFlow.DeliveredAt,
			UpdatedAt:     s.UpdatedAt,
		},
	}
}

// NewOrderEvent addresses the branch dashboards.
func NewOrderEvent(s order.Snapshot) ports.Event {
	return ports.Event{
		Name: ports.EventNewOrder,
		Keys: ports.RoomKeys{BranchID: idPtr(s.BranchID)},
		Payload: NewOrder{
			OrderID:      s.ID.String(),
			OrderNumber:  s.Number,
			CustomerName: s.CustomerName,
			Total:        s.Total,
			OrderType:    s.Type,
			Status:       s.Status,
			CreatedAt:    s.CreatedAt,
		},
	}
}

// CustomerArrivedEvent addresses the branch dashboards.
func CustomerArrivedEvent(s order.Snapshot) ports.Event {
	items := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	return ports.Event{
		Name: ports.EventCustomerArrived,
		Keys: ports.RoomKeys{BranchID: idPtr(s.BranchID)},
		Payload: CustomerArrived{
			OrderID:     s.ID.String(),
			TableNumber: s.TableNumber,
			Customer:    s.CustomerName,
			Total:       s.Total,
			Items:       items,
		},
	}
}

// CourierLocationEvent addresses the courier's home branch. Couriers without
// a branch or a known position produce no event.
func CourierLocationEvent(p ports.CourierProfile) (ports.Event, bool) {
	if p.Location == nil || p.BranchID == nil {
		return ports.Event{}, false
	}

	return ports.Event{
		Name: ports.EventCourierLocation,
		Keys: ports.RoomKeys{BranchID: idPtr(*p.BranchID)},
		Payload: CourierLocation{
			CourierID:   p.ID.String(),
			Location:    Location{Lat: p.Location.Lat(), Lon: p.Location.Lon()},
			IsOnline:    p.IsOnline,
			IsAvailable: p.IsAvailable,
			UpdatedAt:   p.UpdatedAt,
		},
	}, true
}

// TrackingSessionEndedEvent addresses the observer's user room.
func TrackingSessionEndedEvent(r ports.SessionRecord) ports.Event {
	return ports.Event{
		Name: ports.EventTrackingSessionEnded,
		Keys: ports.RoomKeys{UserID: idPtr(r.ObserverID)},
		Payload: TrackingSessionEnded{
			OrderID:    r.OrderID.String(),
			Reason:     r.EndReason,
			DurationMs: r.Duration.Milliseconds(),
			StartedAt:  r.StartedAt,
			EndedAt:    r.EndedAt,
		},
	}
}

func idPtr(id kernel.UUID) *kernel.UUID {
	return &id
}
