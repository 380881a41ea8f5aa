package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var ErrCompletePickupOrderCommandIsNotConstructed = errors.New(
	"CompletePickupOrderCommand must be created via NewCompletePickupOrderCommand constructor",
)

// CompletePickupOrderCommand applies the deferred picked_up -> completed
// transition of a pickup order. It is issued by a timer, never by a client.
type CompletePickupOrderCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCompletePickupOrderCommand(orderID kernel.UUID) (CompletePickupOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CompletePickupOrderCommand{}, err
	}
	return CompletePickupOrderCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CompletePickupOrderCommand) Validate() error {
	return c.guard.Validate(ErrCompletePickupOrderCommandIsNotConstructed)
}

func (c CompletePickupOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}
