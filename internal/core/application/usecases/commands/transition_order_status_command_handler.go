package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// TransitionResult is what the acting client gets back: the updated order,
// a no-op acknowledgement, or a geofence warning with the order unchanged.
type TransitionResult struct {
	Order          *order.Order
	PreviousStatus order.Status
	Changed        bool
	Warning        *services.GeofenceWarning
}

// TransitionOrderStatusCommandHandler is the single entry point for status changes.
//
// Steps:
//  1. load the order and validate the target against the transition table
//  2. check courier ownership and, for courier pickups and deliveries, the geofence
//  3. persist with a conditional write keyed on the status that was read
//  4. commit, then run post-commit hooks
//
// A conditional write that loses a race re-reads the order once: if the
// winner already reached the requested status the request is a successful
// no-op; if the winner kept the status (a reassignment or a location update)
// the transition is applied again; otherwise it fails with InvalidTransition
// (or OrderClosed).
//
// Example:
//
//	handler := NewTransitionOrderStatusCommandHandler(uowFactory, branches, hooks, logger)
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrOrderClosed):
//	    // client error
//	case errors.Is(err, errs.ErrRepositoryUnavailable):
//	    // server error
//	case result.Warning != nil:
//	    // ask the courier to move closer
//	}
type TransitionOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	branches   ports.BranchDirectory
	geofence   services.GeofenceValidator
	hooks      *PostCommitHooks
	logger     *slog.Logger
	now        func() time.Time
}

func NewTransitionOrderStatusCommandHandler(
	uowFactory OrderUoWFactory,
	branches ports.BranchDirectory,
	hooks *PostCommitHooks,
	logger *slog.Logger,
) TransitionOrderStatusCommandHandler {
	return TransitionOrderStatusCommandHandler{
		uowFactory: uowFactory,
		branches:   branches,
		geofence:   services.NewGeofenceValidator(),
		hooks:      hooks,
		logger:     logger.With("component", "transition_order_status"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle applies the transition. The returned error is one of ObjectNotFound,
// ValueIsInvalid, InvalidTransition, OrderClosed, CourierMismatch or
// RepositoryUnavailable.
func (h TransitionOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd TransitionOrderStatusCommand,
) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}

	result, err := h.attempt(ctx, cmd, "")
	if errors.Is(err, errs.ErrConcurrentUpdate) {
		h.logger.InfoContext(ctx, "order changed concurrently, re-reading",
			"order_id", cmd.OrderID().String(), "target", cmd.Target().String())
		result, err = h.attempt(ctx, cmd, result.PreviousStatus)
	}
	if err != nil {
		return TransitionResult{}, err
	}

	if result.Changed {
		h.hooks.Run(ctx, ports.OrderChange{
			Kind:           ports.ChangeStatus,
			Order:          result.Order.Snapshot(),
			PreviousStatus: result.PreviousStatus,
			Actor:          cmd.Actor(),
		})
	}

	return result, nil
}

func (h TransitionOrderStatusCommandHandler) attempt(
	ctx context.Context,
	cmd TransitionOrderStatusCommand,
	lostAt order.Status,
) (TransitionResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return TransitionResult{}, errs.NewRepositoryUnavailableError("begin", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := loadOrder(ctx, repo, cmd.OrderID())
	if err != nil {
		return TransitionResult{}, err
	}

	previous := o.Status()
	noop, err := o.CheckTransition(cmd.Target(), cmd.Actor())
	if err != nil {
		return TransitionResult{}, err
	}
	if noop {
		return TransitionResult{Order: o, PreviousStatus: previous}, nil
	}
	if lostAt != "" && previous != lostAt {
		return TransitionResult{}, errs.NewInvalidTransitionErrorWithCause(previous, cmd.Target(),
			errs.NewConcurrentUpdateError(o.ID(), previous))
	}

	warning, err := h.checkGeofence(ctx, o, cmd)
	if err != nil {
		return TransitionResult{}, err
	}
	if warning != nil {
		return TransitionResult{Order: o, PreviousStatus: previous, Warning: warning}, nil
	}

	now := h.now()
	if geo := cmd.Geo(); geo != nil && cmd.Actor().IsCourier() {
		if _, err = o.RecordCourierLocation(*geo, now); err != nil {
			return TransitionResult{}, err
		}
	}

	if _, err = o.TransitionTo(cmd.Target(), cmd.Actor(), cmd.Message(), now); err != nil {
		return TransitionResult{}, err
	}

	if err = saveOrder(ctx, uow, repo, o); err != nil {
		// the status read is kept for the re-read after a lost race
		return TransitionResult{PreviousStatus: previous}, err
	}

	return TransitionResult{Order: o, PreviousStatus: previous, Changed: true}, nil
}

// checkGeofence validates proximity for courier pickups and deliveries.
// Unknown coordinates skip the check.
func (h TransitionOrderStatusCommandHandler) checkGeofence(
	ctx context.Context,
	o *order.Order,
	cmd TransitionOrderStatusCommand,
) (*services.GeofenceWarning, error) {
	if !h.geofence.Applies(cmd.Target(), cmd.Actor()) {
		return nil, nil
	}

	in := services.GeofenceInput{
		Target:      cmd.Target(),
		Courier:     cmd.Geo(),
		Destination: o.Destination(),
	}
	if in.Courier == nil {
		in.Courier = o.CourierPosition()
	}
	if cmd.Target() == order.PickedUp {
		in.Branch = h.branchLocation(ctx, o.BranchID())
	}

	warning, err := h.geofence.Validate(in)
	if err != nil {
		return nil, err
	}
	if warning != nil {
		h.logger.InfoContext(ctx, "geofence check failed",
			"order_id", o.ID().String(),
			"target", cmd.Target().String(),
			"distance_km", warning.DistanceKm,
			"required_km", warning.RequiredDistanceKm,
		)
	}
	return warning, nil
}

func (h TransitionOrderStatusCommandHandler) branchLocation(ctx context.Context, branchID kernel.UUID) *kernel.Location {
	if h.branches == nil {
		return nil
	}
	loc, err := h.branches.Location(ctx, branchID)
	if err != nil {
		h.logger.WarnContext(ctx, "branch location unavailable, skipping pickup geofence",
			"branch_id", branchID.String(), "error", err)
		return nil
	}
	return loc
}

// loadOrder reads an order, keeping not-found distinct from storage failures.
func loadOrder(ctx context.Context, repo ports.OrderRepository, id kernel.UUID) (*order.Order, error) {
	o, err := repo.Get(ctx, id)
	if err == nil {
		return o, nil
	}
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, err
	}
	return nil, errs.NewRepositoryUnavailableError("get order", err)
}

// saveOrder writes and commits. ErrConcurrentUpdate is passed through for the
// caller to re-read; everything else is a storage failure.
func saveOrder(ctx context.Context, uow TxManager, repo ports.OrderRepository, o *order.Order) error {
	if err := repo.Update(ctx, o); err != nil {
		if errors.Is(err, errs.ErrConcurrentUpdate) || errors.Is(err, errs.ErrObjectNotFound) {
			return err
		}
		return errs.NewRepositoryUnavailableError("update order", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return errs.NewRepositoryUnavailableError("commit", err)
	}
	return nil
}
