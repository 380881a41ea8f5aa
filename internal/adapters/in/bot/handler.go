package bot

import (
	"context"
	"log/slog"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

type StatusTransitioner interface {
	Handle(ctx context.Context, cmd commands.TransitionOrderStatusCommand) (commands.TransitionResult, error)
}

type CourierAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignCourierCommand) (commands.AssignCourierResult, error)
}

// Callback is one button press. FromID is the acting user; Geo is the
// location shared with the press, if any.
type Callback struct {
	Data   string
	FromID kernel.UUID
	Geo    *kernel.Location
}

// Result holds exactly one of Transition or Assignment.
type Result struct {
	Action     Action
	Transition *commands.TransitionResult
	Assignment *commands.AssignCourierResult
}

// Handler routes decoded callbacks to the same command handlers the REST
// ingress uses.
type Handler struct {
	transitions StatusTransitioner
	assigner    CourierAssigner
	logger      *slog.Logger
}

func NewHandler(transitions StatusTransitioner, assigner CourierAssigner, logger *slog.Logger) *Handler {
	return &Handler{
		transitions: transitions,
		assigner:    assigner,
		logger:      logger.With("component", "bot_ingress"),
	}
}

func (h *Handler) Handle(ctx context.Context, cb Callback) (Result, error) {
	action, err := ParseAction(cb.Data)
	if err != nil {
		return Result{}, err
	}

	actor, err := order.NewActor(cb.FromID, action.Kind.Role())
	if err != nil {
		return Result{}, err
	}

	h.logger.InfoContext(ctx, "callback received",
		"action", string(action.Kind), "order_id", action.OrderID.String(), "from", cb.FromID.String())

	if action.Kind == CourierAccept {
		cmd, cmdErr := commands.NewAssignCourierCommand(action.OrderID, cb.FromID, actor)
		if cmdErr != nil {
			return Result{}, cmdErr
		}
		assignment, handleErr := h.assigner.Handle(ctx, cmd)
		if handleErr != nil {
			return Result{}, handleErr
		}
		return Result{Action: action, Assignment: &assignment}, nil
	}

	target, _ := action.Kind.Target()
	var geo *kernel.Location
	if actor.IsCourier() {
		geo = cb.Geo
	}
	cmd, err := commands.NewTransitionOrderStatusCommand(action.OrderID, target, actor, "", geo)
	if err != nil {
		return Result{}, err
	}
	transition, err := h.transitions.Handle(ctx, cmd)
	if err != nil {
		return Result{}, err
	}
	return Result{Action: action, Transition: &transition}, nil
}
