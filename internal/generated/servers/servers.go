// Package servers holds the HTTP contract of the service: the OpenAPI
// document, the request and response models it describes, and the echo
// wrapper that binds path and query parameters before calling a
// ServerInterface implementation.
package servers

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

//go:embed openapi.json
var spec []byte

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Location defines model for Location.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CourierPosition defines model for CourierPosition.
type CourierPosition struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Item defines model for Item.
type Item struct {
	ProductId string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// HistoryEntry defines model for HistoryEntry.
type HistoryEntry struct {
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
	UpdatedBy *openapi_types.UUID `json:"updatedBy"`
}

// CourierFlow defines model for CourierFlow.
type CourierFlow struct {
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// Order defines model for Order.
type Order struct {
	Id              openapi_types.UUID  `json:"id"`
	Number          int                 `json:"number"`
	Type            string              `json:"type"`
	BranchId        openapi_types.UUID  `json:"branchId"`
	CustomerId      openapi_types.UUID  `json:"customerId"`
	CourierId       *openapi_types.UUID `json:"courierId,omitempty"`
	CourierName     *string             `json:"courierName,omitempty"`
	CustomerName    string              `json:"customerName"`
	Total           int64               `json:"total"`
	TableNumber     *string             `json:"tableNumber,omitempty"`
	Items           []Item              `json:"items"`
	Status          string              `json:"status"`
	Destination     *Location           `json:"destination,omitempty"`
	CourierLocation *CourierPosition    `json:"courierLocation,omitempty"`
	CourierFlow     CourierFlow         `json:"courierFlow"`
	History         []HistoryEntry      `json:"history"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// ActiveOrder defines model for ActiveOrder.
type ActiveOrder struct {
	Id           openapi_types.UUID  `json:"id"`
	Number       int                 `json:"number"`
	Type         string              `json:"type"`
	Status       string              `json:"status"`
	CustomerName string              `json:"customerName"`
	Total        int64               `json:"total"`
	TableNumber  *string             `json:"tableNumber,omitempty"`
	CourierId    *openapi_types.UUID `json:"courierId,omitempty"`
	CourierName  *string             `json:"courierName,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	Id           *openapi_types.UUID `json:"id,omitempty"`
	Number       int                 `json:"number"`
	Type         string              `json:"type"`
	BranchId     openapi_types.UUID  `json:"branchId"`
	CustomerId   openapi_types.UUID  `json:"customerId"`
	CustomerName *string             `json:"customerName,omitempty"`
	Total        int64               `json:"total"`
	TableNumber  *string             `json:"tableNumber,omitempty"`
	Items        *[]Item             `json:"items,omitempty"`
	Destination  *Location           `json:"destination,omitempty"`
}

// StatusUpdate defines model for StatusUpdate.
type StatusUpdate struct {
	Status    string             `json:"status"`
	Message   *string            `json:"message,omitempty"`
	ActorId   openapi_types.UUID `json:"actorId"`
	ActorRole string             `json:"actorRole"`
	Lat       *float64           `json:"lat,omitempty"`
	Lon       *float64           `json:"lon,omitempty"`
}

// GeofenceWarning defines model for GeofenceWarning.
type GeofenceWarning struct {
	Message          string  `json:"message"`
	Reference        string  `json:"reference"`
	Distance         float64 `json:"distance"`
	RequiredDistance float64 `json:"requiredDistance"`
	Status           string  `json:"status"`
}

// CourierAssignment defines model for CourierAssignment.
type CourierAssignment struct {
	CourierId openapi_types.UUID  `json:"courierId"`
	ActorId   *openapi_types.UUID `json:"actorId,omitempty"`
}

// AssignmentResult defines model for AssignmentResult.
type AssignmentResult struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

// Arrival defines model for Arrival.
type Arrival struct {
	TableNumber *string `json:"tableNumber,omitempty"`
}

// CourierLocationReport defines model for CourierLocationReport.
type CourierLocationReport struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

// CourierLocationResult defines model for CourierLocationResult.
type CourierLocationResult struct {
	CourierId   openapi_types.UUID   `json:"courierId"`
	IsOnline    bool                 `json:"isOnline"`
	IsAvailable bool                 `json:"isAvailable"`
	Orders      []openapi_types.UUID `json:"orders"`
}

// TrackingRequest defines model for TrackingRequest.
type TrackingRequest struct {
	ObserverId openapi_types.UUID `json:"observerId"`
	Source     string             `json:"source"`
}

// TrackingSession defines model for TrackingSession.
type TrackingSession struct {
	OrderId      openapi_types.UUID `json:"orderId"`
	ObserverId   openapi_types.UUID `json:"observerId"`
	Source       string             `json:"source"`
	StartTime    time.Time          `json:"startTime"`
	LastActivity time.Time          `json:"lastActivity"`
	IsActive     bool               `json:"isActive"`
}

// BotCallback defines model for BotCallback.
type BotCallback struct {
	Data   string             `json:"data"`
	FromId openapi_types.UUID `json:"fromId"`
	Lat    *float64           `json:"lat,omitempty"`
	Lon    *float64           `json:"lon,omitempty"`
}

// BotResult defines model for BotResult.
type BotResult struct {
	Action  string             `json:"action"`
	OrderId openapi_types.UUID `json:"orderId"`
	Message string             `json:"message"`
	Status  *string            `json:"status,omitempty"`
	Warning *GeofenceWarning   `json:"warning,omitempty"`
}

// GetOrderParams defines parameters for GetOrder.
type GetOrderParams struct {
	History *int `form:"history,omitempty" json:"history,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Create an order
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// Get an order with its recent history
	// (GET /api/v1/orders/{orderId})
	GetOrder(ctx echo.Context, orderId openapi_types.UUID, params GetOrderParams) error
	// List non-terminal orders of a branch
	// (GET /api/v1/branches/{branchId}/orders/active)
	GetActiveOrders(ctx echo.Context, branchId openapi_types.UUID) error
	// Request a status transition
	// (PATCH /api/v1/orders/{orderId}/status)
	UpdateOrderStatus(ctx echo.Context, orderId openapi_types.UUID) error
	// Assign or replace the courier
	// (PATCH /api/v1/orders/{orderId}/assign-courier)
	AssignCourier(ctx echo.Context, orderId openapi_types.UUID) error
	// Dine-in customer arrived
	// (POST /api/v1/orders/{orderId}/arrived)
	MarkCustomerArrived(ctx echo.Context, orderId openapi_types.UUID) error
	// Report courier location
	// (PUT /api/v1/couriers/{courierId}/location)
	ReportCourierLocation(ctx echo.Context, courierId openapi_types.UUID) error
	// Start a live tracking session
	// (POST /api/v1/orders/{orderId}/tracking)
	StartTracking(ctx echo.Context, orderId openapi_types.UUID) error
	// Stop a live tracking session
	// (DELETE /api/v1/orders/{orderId}/tracking/{observerId})
	StopTracking(ctx echo.Context, orderId openapi_types.UUID, observerId openapi_types.UUID) error
	// Server-Sent Events stream of one room
	// (GET /api/v1/rooms/{room}/events)
	StreamRoomEvents(ctx echo.Context, room string) error
	// Conversational callback ingress
	// (POST /api/v1/bot/callbacks)
	HandleBotCallback(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

func (w *ServerInterfaceWrapper) GetOrder(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}

	var params GetOrderParams
	err = runtime.BindQueryParameter("form", true, false, "history", ctx.QueryParams(), &params.History)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter history: %s", err))
	}

	return w.Handler.GetOrder(ctx, orderId, params)
}

func (w *ServerInterfaceWrapper) GetActiveOrders(ctx echo.Context) error {
	branchId, err := bindUUID(ctx, "branchId")
	if err != nil {
		return err
	}
	return w.Handler.GetActiveOrders(ctx, branchId)
}

func (w *ServerInterfaceWrapper) UpdateOrderStatus(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.UpdateOrderStatus(ctx, orderId)
}

func (w *ServerInterfaceWrapper) AssignCourier(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.AssignCourier(ctx, orderId)
}

func (w *ServerInterfaceWrapper) MarkCustomerArrived(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.MarkCustomerArrived(ctx, orderId)
}

func (w *ServerInterfaceWrapper) ReportCourierLocation(ctx echo.Context) error {
	courierId, err := bindUUID(ctx, "courierId")
	if err != nil {
		return err
	}
	return w.Handler.ReportCourierLocation(ctx, courierId)
}

func (w *ServerInterfaceWrapper) StartTracking(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	return w.Handler.StartTracking(ctx, orderId)
}

func (w *ServerInterfaceWrapper) StopTracking(ctx echo.Context) error {
	orderId, err := bindUUID(ctx, "orderId")
	if err != nil {
		return err
	}
	observerId, err := bindUUID(ctx, "observerId")
	if err != nil {
		return err
	}
	return w.Handler.StopTracking(ctx, orderId, observerId)
}

func (w *ServerInterfaceWrapper) StreamRoomEvents(ctx echo.Context) error {
	var room string
	err := runtime.BindStyledParameterWithOptions("simple", "room", ctx.Param("room"), &room,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter room: %s", err))
	}
	return w.Handler.StreamRoomEvents(ctx, room)
}

func (w *ServerInterfaceWrapper) HandleBotCallback(ctx echo.Context) error {
	return w.Handler.HandleBotCallback(ctx)
}

func bindUUID(ctx echo.Context, name string) (openapi_types.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return id, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return id, nil
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, prefixing every path with baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.POST(baseURL+"/api/v1/orders", wrapper.CreateOrder)
	router.GET(baseURL+"/api/v1/orders/:orderId", wrapper.GetOrder)
	router.GET(baseURL+"/api/v1/branches/:branchId/orders/active", wrapper.GetActiveOrders)
	router.PATCH(baseURL+"/api/v1/orders/:orderId/status", wrapper.UpdateOrderStatus)
	router.PATCH(baseURL+"/api/v1/orders/:orderId/assign-courier", wrapper.AssignCourier)
	router.POST(baseURL+"/api/v1/orders/:orderId/arrived", wrapper.MarkCustomerArrived)
	router.PUT(baseURL+"/api/v1/couriers/:courierId/location", wrapper.ReportCourierLocation)
	router.POST(baseURL+"/api/v1/orders/:orderId/tracking", wrapper.StartTracking)
	router.DELETE(baseURL+"/api/v1/orders/:orderId/tracking/:observerId", wrapper.StopTracking)
	router.GET(baseURL+"/api/v1/rooms/:room/events", wrapper.StreamRoomEvents)
	router.POST(baseURL+"/api/v1/bot/callbacks", wrapper.HandleBotCallback)
}

// RawSpec returns the embedded OpenAPI document.
func RawSpec() []byte {
	return spec
}

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("error loading openapi document: %w", err)
	}
	return doc, nil
}
