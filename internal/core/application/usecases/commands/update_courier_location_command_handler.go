package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/application/events"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// UpdateCourierLocationResult lists the delivery orders that now carry the
// reported position.
type UpdateCourierLocationResult struct {
	Courier ports.CourierProfile
	Orders  []*order.Order
}

// UpdateCourierLocationCommandHandler records a courier position report.
// Processes each active order of the courier, stores the position on delivery
// orders, and publishes courier:location to the courier's branch room.
//
// Example:
//
//	handler := NewUpdateCourierLocationCommandHandler(uowFactory, couriers, publisher, hooks, logger)
//	cmd, _ := NewUpdateCourierLocationCommand(courierID, loc, nil)
//	result, err := handler.Handle(ctx, cmd)
type UpdateCourierLocationCommandHandler struct {
	uowFactory OrderUoWFactory
	couriers   ports.CourierDirectory
	publisher  ports.EventPublisher
	hooks      *PostCommitHooks
	logger     *slog.Logger
}

func NewUpdateCourierLocationCommandHandler(
	uowFactory OrderUoWFactory,
	couriers ports.CourierDirectory,
	publisher ports.EventPublisher,
	hooks *PostCommitHooks,
	logger *slog.Logger,
) UpdateCourierLocationCommandHandler {
	return UpdateCourierLocationCommandHandler{
		uowFactory: uowFactory,
		couriers:   couriers,
		publisher:  publisher,
		hooks:      hooks,
		logger:     logger.With("component", "update_courier_location"),
	}
}

// Handle stores the report. An order whose status changed concurrently is
// skipped; the next report will reach it.
func (h UpdateCourierLocationCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateCourierLocationCommand,
) (UpdateCourierLocationResult, error) {
	if err := cmd.Validate(); err != nil {
		return UpdateCourierLocationResult{}, err
	}

	profile, err := h.couriers.ReportPresence(ctx, ports.CourierPresence{
		CourierID:   cmd.CourierID(),
		Location:    cmd.Location(),
		IsAvailable: cmd.IsAvailable(),
		ReportedAt:  time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return UpdateCourierLocationResult{}, err
		}
		return UpdateCourierLocationResult{}, errs.NewRepositoryUnavailableError("report courier presence", err)
	}

	updated, err := h.recordOnOrders(ctx, cmd, profile.UpdatedAt)
	if err != nil {
		return UpdateCourierLocationResult{}, err
	}

	h.publishLocation(ctx, profile)
	for _, o := range updated {
		h.hooks.Run(ctx, ports.OrderChange{
			Kind:           ports.ChangeCourierLocation,
			Order:          o.Snapshot(),
			PreviousStatus: o.Status(),
			Actor:          order.Actor{ID: copyID(&profile.ID), Role: order.RoleCourier},
			Courier:        &profile,
		})
	}

	return UpdateCourierLocationResult{Courier: profile, Orders: updated}, nil
}

func (h UpdateCourierLocationCommandHandler) recordOnOrders(
	ctx context.Context,
	cmd UpdateCourierLocationCommand,
	at time.Time,
) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	orders, err := repo.GetActiveByCourier(ctx, cmd.CourierID())
	if err != nil {
		return nil, errs.NewRepositoryUnavailableError("get courier orders", err)
	}

	updated := make([]*order.Order, 0, len(orders))
	for _, o := range orders {
		recorded, recordErr := o.RecordCourierLocation(cmd.Location(), at)
		if recordErr != nil {
			return nil, recordErr
		}
		if !recorded {
			continue
		}

		if err = repo.Update(ctx, o); err != nil {
			if errors.Is(err, errs.ErrConcurrentUpdate) {
				h.logger.InfoContext(ctx, "order changed concurrently, skipping location",
					"order_id", o.ID().String())
				continue
			}
			return nil, errs.NewRepositoryUnavailableError("update order", err)
		}
		updated = append(updated, o)
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, errs.NewRepositoryUnavailableError("commit", err)
	}

	return updated, nil
}

func (h UpdateCourierLocationCommandHandler) publishLocation(ctx context.Context, profile ports.CourierProfile) {
	event, ok := events.CourierLocationEvent(profile)
	if h.publisher == nil || !ok {
		return
	}

	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "courier location broadcast failed",
			"courier_id", profile.ID.String(), "error", err)
	}
}
