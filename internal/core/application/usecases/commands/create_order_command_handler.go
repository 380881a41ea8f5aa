package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// CreateOrderCommandHandler handles the business logic for order creation.
// The order starts in pending status; the branch dashboards receive new-order
// through the post-commit hooks.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, hooks)
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	hooks      *PostCommitHooks
	now        func() time.Time
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires an OrderUoWFactory for transactional persistence.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, hooks *PostCommitHooks) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		hooks:      hooks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle builds the aggregate and persists it in a transaction.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := order.NewOrder(cmd.Draft(), h.now())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, errs.NewRepositoryUnavailableError("add order", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, errs.NewRepositoryUnavailableError("commit", err)
	}

	customerID := o.CustomerID()
	h.hooks.Run(ctx, ports.OrderChange{
		Kind:  ports.ChangeCreated,
		Order: o.Snapshot(),
		Actor: order.Actor{ID: &customerID, Role: order.RoleCustomer},
	})

	return o, nil
}
