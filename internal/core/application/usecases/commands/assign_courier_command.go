package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

// AssignCourierCommand assigns, re-assigns or confirms the courier of an order.
// Assigning the courier that is already assigned succeeds without changes.
//
// Example:
//
//	cmd, err := NewAssignCourierCommand(orderID, courierID, admin)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	fmt.Println(result.Outcome.Message()) // "courier assigned"
type AssignCourierCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID
	actor     order.Actor

	guard guard.ConstructorGuard
}

func NewAssignCourierCommand(orderID, courierID kernel.UUID, actor order.Actor) (AssignCourierCommand, error) {
	cmd := AssignCourierCommand{
		actor: actor,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		courierID.Validate(),
	); err != nil {
		return AssignCourierCommand{}, err
	}
	cmd.orderID = orderID
	cmd.courierID = courierID

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrAssignCourierCommandIsNotConstructed if validation fails.
func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

func (c AssignCourierCommand) OrderID() kernel.UUID   { return c.orderID }
func (c AssignCourierCommand) CourierID() kernel.UUID { return c.courierID }
func (c AssignCourierCommand) Actor() order.Actor     { return c.actor }
