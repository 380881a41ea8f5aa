package notifications

import (
	"context"
	"errors"
	"log/slog"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// Dispatcher is the post-commit hook that sends bot notifications.
// Delivery is best effort: transport failures are logged and swallowed.
//
// Example:
//
//	dispatcher := notifications.NewDispatcher(sender, couriers, logger)
//	hooks := commands.NewPostCommitHooks(logger, broadcaster, dispatcher)
type Dispatcher struct {
	sender   ports.MessageSender
	couriers ports.CourierDirectory
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher. couriers may be nil, in which case
// courier names only come from the change itself.
func NewDispatcher(sender ports.MessageSender, couriers ports.CourierDirectory, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		couriers: couriers,
		logger:   logger.With("component", "notification_dispatcher"),
	}
}

// OnOrderChanged implements ports.OrderChangeHook. It always returns nil.
func (d *Dispatcher) OnOrderChanged(ctx context.Context, change ports.OrderChange) error {
	s := change.Order
	data := templateData(change, d.courierOf(ctx, change))

	switch change.Kind {
	case ports.ChangeStatus:
		if !change.StatusChanged() {
			return nil
		}
		d.notify(ctx, s, ports.AudienceCustomer, s.CustomerID, data)
		if s.Status == order.Assigned && s.CourierID != nil {
			d.notify(ctx, s, ports.AudienceCourier, *s.CourierID, data)
		}
	case ports.ChangeCourierAssigned:
		if s.CourierID != nil && !kernel.EqualPtr(change.PreviousCourier, s.CourierID) {
			// the courier is told about the assignment even when the status
			// cannot move to assigned, e.g. a reassignment after pickup
			d.notifyAs(ctx, s, order.Assigned, ports.AudienceCourier, *s.CourierID, data)
		}
	default:
	}

	return nil
}

// NotifySessionEnded tells an observer that live tracking stopped.
func (d *Dispatcher) NotifySessionEnded(ctx context.Context, record ports.SessionRecord) error {
	body, err := sessionEnded.Render(TemplateData{
		OrderID: record.OrderID.String(),
		Reason:  record.EndReason,
	})
	if err != nil {
		return err
	}

	return d.send(ctx, ports.Message{
		Audience:  ports.AudienceObserver,
		Recipient: record.ObserverID,
		Title:     sessionEnded.Title,
		Body:      body,
		Data: map[string]string{
			"orderId":  record.OrderID.String(),
			"template": sessionEnded.Name,
		},
	})
}

func (d *Dispatcher) notify(ctx context.Context, s order.Snapshot, audience ports.Audience, to kernel.UUID, data TemplateData) {
	d.notifyAs(ctx, s, s.Status, audience, to, data)
}

func (d *Dispatcher) notifyAs(
	ctx context.Context,
	s order.Snapshot,
	status order.Status,
	audience ports.Audience,
	to kernel.UUID,
	data TemplateData,
) {
	t, ok := SelectTemplate(status, s.Type, audience)
	if !ok {
		return
	}

	body, err := t.Render(data)
	if err != nil {
		d.logger.ErrorContext(ctx, "notification template failed", "template", t.Name, "error", err)
		return
	}

	_ = d.send(ctx, ports.Message{
		Audience:  audience,
		Recipient: to,
		Title:     t.Title,
		Body:      body,
		Data: map[string]string{
			"orderId":  s.ID.String(),
			"status":   s.Status.String(),
			"template": t.Name,
		},
	})
}

func (d *Dispatcher) send(ctx context.Context, msg ports.Message) error {
	if err := d.sender.Send(ctx, msg); err != nil {
		err = errs.NewNotificationUndeliveredError(msg.Recipient.String(), err)
		d.logger.WarnContext(ctx, "notification delivery failed",
			"audience", string(msg.Audience),
			"order_id", msg.Data["orderId"],
			"error", err,
		)
		return err
	}
	return nil
}

// courierOf resolves the courier shown in customer messages. Status changes
// carry no profile, so it is looked up from the directory.
func (d *Dispatcher) courierOf(ctx context.Context, change ports.OrderChange) *ports.CourierProfile {
	if change.Courier != nil || change.Order.CourierID == nil || d.couriers == nil {
		return change.Courier
	}
	switch change.Kind {
	case ports.ChangeStatus:
		if !change.StatusChanged() {
			return nil
		}
	case ports.ChangeCourierAssigned:
	default:
		return nil
	}

	profile, err := d.couriers.Get(ctx, *change.Order.CourierID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.logger.DebugContext(ctx, "courier profile unavailable",
				"courier_id", change.Order.CourierID.String(), "error", err)
		}
		return nil
	}
	return &profile
}

func templateData(change ports.OrderChange, courier *ports.CourierProfile) TemplateData {
	s := change.Order
	data := TemplateData{
		OrderID:      s.ID.String(),
		Number:       s.Number,
		CustomerName: s.CustomerName,
		Total:        s.Total,
		TableNumber:  s.TableNumber,
	}
	if courier != nil {
		data.CourierName = courier.Name
	}
	return data
}
