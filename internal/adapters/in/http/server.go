package http

import (
	"context"
	"log/slog"
	"net/http"

	"orderflow/internal/adapters/in/bot"
	"orderflow/internal/adapters/out/broadcast"
	"orderflow/internal/core/application/tracking"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/generated/servers"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Use case ports the server depends on. Command and query handlers satisfy
// them directly.
type (
	OrderCreator interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
	}
	StatusTransitioner interface {
		Handle(ctx context.Context, cmd commands.TransitionOrderStatusCommand) (commands.TransitionResult, error)
	}
	CourierAssigner interface {
		Handle(ctx context.Context, cmd commands.AssignCourierCommand) (commands.AssignCourierResult, error)
	}
	ArrivalMarker interface {
		Handle(ctx context.Context, cmd commands.MarkCustomerArrivedCommand) (*order.Order, error)
	}
	LocationReporter interface {
		Handle(ctx context.Context, cmd commands.UpdateCourierLocationCommand) (commands.UpdateCourierLocationResult, error)
	}
	OrderReader interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error)
	}
	ActiveOrdersReader interface {
		Handle(ctx context.Context, query queries.GetActiveOrdersQuery) ([]queries.ActiveOrderView, error)
	}
	TrackingSessions interface {
		Start(orderID, observerID kernel.UUID, source tracking.Source) (tracking.Session, error)
		Stop(ctx context.Context, orderID, observerID kernel.UUID) bool
	}
	BotCallbacks interface {
		Handle(ctx context.Context, cb bot.Callback) (bot.Result, error)
	}
	RoomSubscriber interface {
		Subscribe(room string) *broadcast.Subscription
	}
)

// Handlers groups the use cases behind the REST endpoints.
type Handlers struct {
	CreateOrder    OrderCreator
	Transition     StatusTransitioner
	AssignCourier  CourierAssigner
	MarkArrived    ArrivalMarker
	ReportLocation LocationReporter
	GetOrder       OrderReader
	ActiveOrders   ActiveOrdersReader
	Tracking       TrackingSessions
	Bot            BotCallbacks
	Rooms          RoomSubscriber
}

// Server implements servers.ServerInterface on top of the order use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

var _ servers.ServerInterface = (*Server)(nil)

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http_server")}
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body servers.NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	draft, err := draftFromRequest(body)
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewCreateOrderCommand(draft)
	if err != nil {
		return s.fail(ctx, err)
	}

	o, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, orderResponse(o))
}

// GetOrder handles GET /api/v1/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderId openapi_types.UUID, params servers.GetOrderParams) error {
	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	limit := 0
	if params.History != nil {
		limit = *params.History
	}

	query, err := queries.NewGetOrderQuery(id, limit)
	if err != nil {
		return s.fail(ctx, err)
	}
	view, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderViewResponse(view))
}

// GetActiveOrders handles GET /api/v1/branches/{branchId}/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context, branchId openapi_types.UUID) error {
	id, err := kernel.UUIDFromBytes(branchId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	query, err := queries.NewGetActiveOrdersQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	views, err := s.h.ActiveOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]servers.ActiveOrder, len(views))
	for i, v := range views {
		response[i] = activeOrderResponse(v)
	}
	return ctx.JSON(http.StatusOK, response)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{orderId}/status. A courier
// outside the geofence gets 202 with the warning and the order unchanged.
func (s *Server) UpdateOrderStatus(ctx echo.Context, orderId openapi_types.UUID) error {
	var body servers.StatusUpdate
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	target, err := order.ParseStatus(body.Status)
	if err != nil {
		return s.fail(ctx, err)
	}
	actor, err := actorFromRequest(body.ActorId, body.ActorRole)
	if err != nil {
		return s.fail(ctx, err)
	}
	geo, err := optionalLocation(body.Lat, body.Lon)
	if err != nil {
		return s.fail(ctx, err)
	}
	message := ""
	if body.Message != nil {
		message = *body.Message
	}

	cmd, err := commands.NewTransitionOrderStatusCommand(id, target, actor, message, geo)
	if err != nil {
		return s.fail(ctx, err)
	}
	result, err := s.h.Transition.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	if result.Warning != nil {
		return ctx.JSON(http.StatusAccepted, warningResponse(*result.Warning, result.Order))
	}
	return ctx.JSON(http.StatusOK, orderResponse(result.Order))
}

// AssignCourier handles PATCH /api/v1/orders/{orderId}/assign-courier.
func (s *Server) AssignCourier(ctx echo.Context, orderId openapi_types.UUID) error {
	var body servers.CourierAssignment
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	courierID, err := kernel.UUIDFromBytes(body.CourierId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	actor := order.SystemActor()
	if body.ActorId != nil {
		if actor, err = actorFromRequest(*body.ActorId, string(order.RoleAdmin)); err != nil {
			return s.fail(ctx, err)
		}
	}

	cmd, err := commands.NewAssignCourierCommand(id, courierID, actor)
	if err != nil {
		return s.fail(ctx, err)
	}
	result, err := s.h.AssignCourier.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, servers.AssignmentResult{
		Message: result.Outcome.Message(),
		Order:   orderResponse(result.Order),
	})
}

// MarkCustomerArrived handles POST /api/v1/orders/{orderId}/arrived.
func (s *Server) MarkCustomerArrived(ctx echo.Context, orderId openapi_types.UUID) error {
	var body servers.Arrival
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&body); err != nil {
			return badRequest(ctx, "Invalid request body")
		}
	}

	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	table := ""
	if body.TableNumber != nil {
		table = *body.TableNumber
	}

	cmd, err := commands.NewMarkCustomerArrivedCommand(id, table)
	if err != nil {
		return s.fail(ctx, err)
	}
	o, err := s.h.MarkArrived.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, orderResponse(o))
}

// ReportCourierLocation handles PUT /api/v1/couriers/{courierId}/location.
func (s *Server) ReportCourierLocation(ctx echo.Context, courierId openapi_types.UUID) error {
	var body servers.CourierLocationReport
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	id, err := kernel.UUIDFromBytes(courierId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	loc, err := kernel.NewLocation(body.Lat, body.Lon)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(id, loc, body.IsAvailable)
	if err != nil {
		return s.fail(ctx, err)
	}
	result, err := s.h.ReportLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	orders := make([]openapi_types.UUID, len(result.Orders))
	for i, o := range result.Orders {
		orders[i] = o.ID().Bytes()
	}
	return ctx.JSON(http.StatusOK, servers.CourierLocationResult{
		CourierId:   result.Courier.ID.Bytes(),
		IsOnline:    result.Courier.IsOnline,
		IsAvailable: result.Courier.IsAvailable,
		Orders:      orders,
	})
}

// StartTracking handles POST /api/v1/orders/{orderId}/tracking. Closed orders
// cannot be tracked.
func (s *Server) StartTracking(ctx echo.Context, orderId openapi_types.UUID) error {
	var body servers.TrackingRequest
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	observerID, err := kernel.UUIDFromBytes(body.ObserverId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	source, err := tracking.ParseSource(body.Source)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(id, 1)
	if err != nil {
		return s.fail(ctx, err)
	}
	view, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	if view.Status.IsTerminal() {
		return s.fail(ctx, errs.NewOrderClosedError(id, view.Status))
	}

	session, err := s.h.Tracking.Start(id, observerID, source)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, servers.TrackingSession{
		OrderId:      session.OrderID.Bytes(),
		ObserverId:   session.ObserverID.Bytes(),
		Source:       string(session.Source),
		StartTime:    session.StartTime,
		LastActivity: session.LastActivity,
		IsActive:     session.IsActive,
	})
}

// StopTracking handles DELETE /api/v1/orders/{orderId}/tracking/{observerId}.
func (s *Server) StopTracking(ctx echo.Context, orderId openapi_types.UUID, observerId openapi_types.UUID) error {
	id, err := kernel.UUIDFromBytes(orderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	observerID, err := kernel.UUIDFromBytes(observerId[:])
	if err != nil {
		return s.fail(ctx, err)
	}

	if !s.h.Tracking.Stop(ctx.Request().Context(), id, observerID) {
		return s.fail(ctx, errs.NewObjectNotFoundError("tracking session", observerID.String()))
	}
	return ctx.NoContent(http.StatusNoContent)
}

// HandleBotCallback handles POST /api/v1/bot/callbacks.
func (s *Server) HandleBotCallback(ctx echo.Context) error {
	var body servers.BotCallback
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	fromID, err := kernel.UUIDFromBytes(body.FromId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	geo, err := optionalLocation(body.Lat, body.Lon)
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.h.Bot.Handle(ctx.Request().Context(), bot.Callback{Data: body.Data, FromID: fromID, Geo: geo})
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, botResponse(result))
}
