package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var ErrMarkCustomerArrivedCommandIsNotConstructed = errors.New(
	"MarkCustomerArrivedCommand must be created via NewMarkCustomerArrivedCommand constructor",
)

// MarkCustomerArrivedCommand announces a dine-in customer at the branch.
// tableNumber overrides the table stored on the order when not empty.
type MarkCustomerArrivedCommand struct {
	orderID     kernel.UUID
	tableNumber string

	guard guard.ConstructorGuard
}

func NewMarkCustomerArrivedCommand(orderID kernel.UUID, tableNumber string) (MarkCustomerArrivedCommand, error) {
	if err := orderID.Validate(); err != nil {
		return MarkCustomerArrivedCommand{}, err
	}
	return MarkCustomerArrivedCommand{
		orderID:     orderID,
		tableNumber: tableNumber,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c MarkCustomerArrivedCommand) Validate() error {
	return c.guard.Validate(ErrMarkCustomerArrivedCommandIsNotConstructed)
}

func (c MarkCustomerArrivedCommand) OrderID() kernel.UUID { return c.orderID }
func (c MarkCustomerArrivedCommand) TableNumber() string  { return c.tableNumber }
