package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand registers a new order in pending status.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(order.Draft{
//	    ID:          kernel.NewUUID(),
//	    Number:      1042,
//	    Type:        order.TypeDelivery,
//	    BranchID:    branchID,
//	    CustomerID:  customerID,
//	    Total:       125000,
//	    Destination: &destination,
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	o, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct {
	draft order.Draft

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand checks the fields the aggregate cannot: a positive
// order number. Everything else is validated by order.NewOrder.
func NewCreateOrderCommand(draft order.Draft) (CreateOrderCommand, error) {
	if draft.Number <= 0 {
		return CreateOrderCommand{}, errs.NewValueIsInvalidError("orderNumber")
	}
	if err := draft.ID.Validate(); err != nil {
		return CreateOrderCommand{}, err
	}
	if draft.Destination != nil {
		dest := *draft.Destination
		draft.Destination = &dest
	}

	return CreateOrderCommand{
		draft: draft,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// Draft returns the order input.
func (c CreateOrderCommand) Draft() order.Draft {
	return c.draft
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.draft.ID
}
