package commands

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// CompletePickupOrderCommandHandler re-reads the order when the timer fires
// and completes it only if it is still picked_up. Orders that moved on
// (cancelled, delivered) are left untouched and the precondition error is
// returned for the caller to log.
type CompletePickupOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	hooks      *PostCommitHooks
	now        func() time.Time
}

func NewCompletePickupOrderCommandHandler(uowFactory OrderUoWFactory, hooks *PostCommitHooks) CompletePickupOrderCommandHandler {
	return CompletePickupOrderCommandHandler{
		uowFactory: uowFactory,
		hooks:      hooks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h CompletePickupOrderCommandHandler) Handle(ctx context.Context, cmd CompletePickupOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	change, err := h.attempt(ctx, cmd)
	if errors.Is(err, errs.ErrConcurrentUpdate) {
		change, err = h.attempt(ctx, cmd)
	}
	if err != nil {
		return err
	}

	h.hooks.Run(ctx, change)
	return nil
}

func (h CompletePickupOrderCommandHandler) attempt(ctx context.Context, cmd CompletePickupOrderCommand) (ports.OrderChange, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ports.OrderChange{}, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := loadOrder(ctx, repo, cmd.OrderID())
	if err != nil {
		return ports.OrderChange{}, err
	}

	previous := o.Status()
	if err = o.CompletePickup(h.now()); err != nil {
		return ports.OrderChange{}, err
	}

	if err = saveOrder(ctx, uow, repo, o); err != nil {
		return ports.OrderChange{}, err
	}

	return ports.OrderChange{
		Kind:           ports.ChangeStatus,
		Order:          o.Snapshot(),
		PreviousStatus: previous,
		Actor:          order.SystemActor(),
	}, nil
}
