package events

import (
	"context"
	"errors"
	"log/slog"

	"orderflow/internal/core/ports"
)

// Broadcaster is the post-commit hook that publishes room events for every
// committed order change. Publisher failures are logged and swallowed.
//
// Change kind to events:
//   - created: new-order
//   - status: order-updated, order-status-updated
//   - courier assigned: order-updated, order-status-updated
//   - courier location: order-updated
//   - customer arrived: customer-arrived
type Broadcaster struct {
	publisher ports.EventPublisher
	couriers  ports.CourierDirectory
	logger    *slog.Logger
}

func NewBroadcaster(publisher ports.EventPublisher, couriers ports.CourierDirectory, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		publisher: publisher,
		couriers:  couriers,
		logger:    logger.With("component", "broadcaster"),
	}
}

// OnOrderChanged implements ports.OrderChangeHook. It always returns nil.
func (b *Broadcaster) OnOrderChanged(ctx context.Context, change ports.OrderChange) error {
	for _, event := range b.eventsFor(ctx, change) {
		if err := b.publisher.Publish(ctx, event); err != nil {
			b.logger.WarnContext(ctx, "broadcast unavailable",
				"event", event.Name,
				"order_id", change.Order.ID.String(),
				"error", err,
			)
		}
	}
	return nil
}

func (b *Broadcaster) eventsFor(ctx context.Context, change ports.OrderChange) []ports.Event {
	s := change.Order

	switch change.Kind {
	case ports.ChangeCreated:
		return []ports.Event{NewOrderEvent(s)}
	case ports.ChangeStatus, ports.ChangeCourierAssigned:
		return []ports.Event{
			OrderUpdatedEvent(s, b.courierOf(ctx, change)),
			OrderStatusUpdatedEvent(s),
		}
	case ports.ChangeCourierLocation:
		return []ports.Event{OrderUpdatedEvent(s, b.courierOf(ctx, change))}
	case ports.ChangeCustomerArrived:
		return []ports.Event{CustomerArrivedEvent(s)}
	default:
		return nil
	}
}

// courierOf resolves the courier name for order-updated. A lookup failure
// only drops the name from the payload.
func (b *Broadcaster) courierOf(ctx context.Context, change ports.OrderChange) *ports.CourierProfile {
	if change.Courier != nil || change.Order.CourierID == nil || b.couriers == nil {
		return change.Courier
	}

	profile, err := b.couriers.Get(ctx, *change.Order.CourierID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			b.logger.DebugContext(ctx, "courier profile unavailable",
				"courier_id", change.Order.CourierID.String(), "error", err)
		}
		return nil
	}
	return &profile
}
