package commands

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// AssignCourierResult carries the order after assignment and what changed.
type AssignCourierResult struct {
	Order   *order.Order
	Outcome order.AssignmentOutcome
}

// AssignCourierCommandHandler assigns a courier to an order.
//
// Business Rules:
//   - terminal orders fail with OrderClosed
//   - the same courier again is a success with "courier already assigned"
//   - a different courier replaces the previous one; courier flow timestamps are kept
//   - the status moves to assigned only when the transition table allows it
//
// Example:
//
//	handler := NewAssignCourierCommandHandler(uowFactory, couriers, hooks)
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrOrderClosed):
//	    log.Println("order already finished")
//	case err != nil:
//	    log.Printf("assignment failed: %v", err)
//	default:
//	    log.Println(result.Outcome.Message())
//	}
type AssignCourierCommandHandler struct {
	uowFactory OrderUoWFactory
	couriers   ports.CourierDirectory
	hooks      *PostCommitHooks
	now        func() time.Time
}

// NewAssignCourierCommandHandler creates a handler for courier assignment operations.
func NewAssignCourierCommandHandler(
	uowFactory OrderUoWFactory,
	couriers ports.CourierDirectory,
	hooks *PostCommitHooks,
) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		uowFactory: uowFactory,
		couriers:   couriers,
		hooks:      hooks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes the assignment. A lost conditional write is retried once
// against a fresh read; assignment is idempotent so the retry is safe.
func (h AssignCourierCommandHandler) Handle(ctx context.Context, cmd AssignCourierCommand) (AssignCourierResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignCourierResult{}, err
	}

	profile, err := h.couriers.Get(ctx, cmd.CourierID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return AssignCourierResult{}, err
		}
		return AssignCourierResult{}, errs.NewRepositoryUnavailableError("get courier", err)
	}

	result, change, err := h.attempt(ctx, cmd)
	if errors.Is(err, errs.ErrConcurrentUpdate) {
		result, change, err = h.attempt(ctx, cmd)
		if errors.Is(err, errs.ErrConcurrentUpdate) {
			err = errs.NewRepositoryUnavailableError("update order", err)
		}
	}
	if err != nil {
		return AssignCourierResult{}, err
	}

	if change != nil {
		change.Courier = &profile
		h.hooks.Run(ctx, *change)
	}

	return result, nil
}

func (h AssignCourierCommandHandler) attempt(
	ctx context.Context,
	cmd AssignCourierCommand,
) (AssignCourierResult, *ports.OrderChange, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AssignCourierResult{}, nil, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := loadOrder(ctx, repo, cmd.OrderID())
	if err != nil {
		return AssignCourierResult{}, nil, err
	}

	previousStatus := o.Status()
	previousCourier := copyID(o.Courier())

	outcome, err := o.AssignCourier(cmd.CourierID(), cmd.Actor(), h.now())
	if err != nil {
		return AssignCourierResult{}, nil, err
	}
	if outcome == order.AssignmentUnchanged {
		return AssignCourierResult{Order: o, Outcome: outcome}, nil, nil
	}

	if err = saveOrder(ctx, uow, repo, o); err != nil {
		return AssignCourierResult{}, nil, err
	}

	return AssignCourierResult{Order: o, Outcome: outcome}, &ports.OrderChange{
		Kind:            ports.ChangeCourierAssigned,
		Order:           o.Snapshot(),
		PreviousStatus:  previousStatus,
		PreviousCourier: previousCourier,
		Actor:           cmd.Actor(),
	}, nil
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
