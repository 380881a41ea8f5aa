package commands

import (
	"context"
	"fmt"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// MarkCustomerArrivedCommandHandler validates a dine-in arrival and hands it
// to the post-commit hooks. Nothing is persisted; the order status is not
// part of the arrival.
type MarkCustomerArrivedCommandHandler struct {
	uowFactory OrderUoWFactory
	hooks      *PostCommitHooks
}

func NewMarkCustomerArrivedCommandHandler(uowFactory OrderUoWFactory, hooks *PostCommitHooks) MarkCustomerArrivedCommandHandler {
	return MarkCustomerArrivedCommandHandler{
		uowFactory: uowFactory,
		hooks:      hooks,
	}
}

// Handle fails with ValueIsInvalid for orders that are not served on the
// premises and with OrderClosed for terminal orders.
func (h MarkCustomerArrivedCommandHandler) Handle(ctx context.Context, cmd MarkCustomerArrivedCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := loadOrder(ctx, uow.OrderRepository(), cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if !o.Type().IsOnPremises() {
		return nil, errs.NewValueIsInvalidErrorWithCause("order type is invalid",
			fmt.Errorf("%s orders have no arrival", o.Type()))
	}
	if o.IsClosed() {
		return nil, errs.NewOrderClosedError(o.ID(), o.Status())
	}

	snapshot := o.Snapshot()
	if cmd.TableNumber() != "" {
		snapshot.TableNumber = cmd.TableNumber()
	}

	h.hooks.Run(ctx, ports.OrderChange{
		Kind:           ports.ChangeCustomerArrived,
		Order:          snapshot,
		PreviousStatus: o.Status(),
		Actor:          order.Actor{ID: copyID(&snapshot.CustomerID), Role: order.RoleCustomer},
	})

	return o, nil
}
