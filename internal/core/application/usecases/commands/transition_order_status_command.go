package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var ErrTransitionOrderStatusCommandIsNotConstructed = errors.New(
	"TransitionOrderStatusCommand must be created via NewTransitionOrderStatusCommand constructor",
)

// TransitionOrderStatusCommand requests a status change of one order.
// Every ingress (REST, bot callbacks, timers) funnels status changes through it.
//
// Example:
//
//	cmd, err := NewTransitionOrderStatusCommand(orderID, order.PickedUp, courier, "", &position)
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
//	if result.Warning != nil {
//	    // courier must move closer and retry
//	}
type TransitionOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.Status
	actor   order.Actor
	message string
	geo     *kernel.Location

	guard guard.ConstructorGuard
}

// NewTransitionOrderStatusCommand validates the order id, the target status and
// the actor. geo is the actor's reported position and may be nil.
func NewTransitionOrderStatusCommand(
	orderID kernel.UUID,
	target order.Status,
	actor order.Actor,
	message string,
	geo *kernel.Location,
) (TransitionOrderStatusCommand, error) {
	cmd := TransitionOrderStatusCommand{
		message: message,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTarget(target),
		cmd.setActor(actor),
		cmd.setGeo(geo),
	); err != nil {
		return TransitionOrderStatusCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderStatusCommandIsNotConstructed)
}

func (c TransitionOrderStatusCommand) OrderID() kernel.UUID  { return c.orderID }
func (c TransitionOrderStatusCommand) Target() order.Status  { return c.target }
func (c TransitionOrderStatusCommand) Actor() order.Actor    { return c.actor }
func (c TransitionOrderStatusCommand) Message() string       { return c.message }
func (c TransitionOrderStatusCommand) Geo() *kernel.Location { return c.geo }

func (c *TransitionOrderStatusCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *TransitionOrderStatusCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c.target = target
	return nil
}

func (c *TransitionOrderStatusCommand) setActor(actor order.Actor) error {
	if _, err := order.ParseRole(string(actor.Role)); err != nil {
		return err
	}
	c.actor = actor
	return nil
}

func (c *TransitionOrderStatusCommand) setGeo(geo *kernel.Location) error {
	if geo == nil {
		return nil
	}
	if err := geo.Validate(); err != nil {
		return err
	}
	loc := *geo
	c.geo = &loc
	return nil
}
