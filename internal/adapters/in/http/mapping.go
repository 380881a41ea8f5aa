package http

import (
	"orderflow/internal/adapters/in/bot"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/generated/servers"
	"orderflow/internal/pkg/errs"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// responseHistory is how many history entries mutation responses carry.
const responseHistory = queries.DefaultHistoryLimit

func draftFromRequest(body servers.NewOrder) (order.Draft, error) {
	t, err := order.ParseType(body.Type)
	if err != nil {
		return order.Draft{}, err
	}

	draft := order.Draft{
		ID:     kernel.NewUUID(),
		Number: body.Number,
		Type:   t,
		Total:  body.Total,
	}
	if body.Id != nil {
		if draft.ID, err = kernel.UUIDFromBytes(body.Id[:]); err != nil {
			return order.Draft{}, err
		}
	}
	if draft.BranchID, err = kernel.UUIDFromBytes(body.BranchId[:]); err != nil {
		return order.Draft{}, err
	}
	if draft.CustomerID, err = kernel.UUIDFromBytes(body.CustomerId[:]); err != nil {
		return order.Draft{}, err
	}
	if body.CustomerName != nil {
		draft.CustomerName = *body.CustomerName
	}
	if body.TableNumber != nil {
		draft.TableNumber = *body.TableNumber
	}
	if body.Items != nil {
		for _, it := range *body.Items {
			draft.Items = append(draft.Items, order.Item{
				ProductID: it.ProductId,
				Name:      it.Name,
				Quantity:  it.Quantity,
				Price:     it.Price,
			})
		}
	}
	if body.Destination != nil {
		dest, locErr := kernel.NewLocation(body.Destination.Lat, body.Destination.Lon)
		if locErr != nil {
			return order.Draft{}, locErr
		}
		draft.Destination = &dest
	}

	return draft, nil
}

func actorFromRequest(id openapi_types.UUID, role string) (order.Actor, error) {
	actorID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return order.Actor{}, err
	}
	r, err := order.ParseRole(role)
	if err != nil {
		return order.Actor{}, err
	}
	return order.NewActor(actorID, r)
}

// optionalLocation needs both coordinates or neither.
func optionalLocation(lat, lon *float64) (*kernel.Location, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, errs.NewValueIsRequiredError("lat and lon")
	}
	loc, err := kernel.NewLocation(*lat, *lon)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func orderResponse(o *order.Order) servers.Order {
	s := o.Snapshot()
	resp := servers.Order{
		Id:           s.ID.Bytes(),
		Number:       s.Number,
		Type:         string(s.Type),
		BranchId:     s.BranchID.Bytes(),
		CustomerId:   s.CustomerID.Bytes(),
		CourierId:    uuidPtr(s.CourierID),
		CustomerName: s.CustomerName,
		Total:        s.Total,
		TableNumber:  stringPtr(s.TableNumber),
		Items:        itemsResponse(s.Items),
		Status:       string(s.Status),
		CourierFlow:  flowResponse(s.CourierFlow),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Delivery != nil {
		resp.Destination = locationResponse(s.Delivery.Destination)
		resp.CourierLocation = courierPositionResponse(s.Delivery.CourierLocation)
	}

	history := o.LastHistory(responseHistory)
	resp.History = make([]servers.HistoryEntry, len(history))
	for i, h := range history {
		resp.History[i] = servers.HistoryEntry{
			Status:    string(h.Status),
			Message:   h.Message,
			Timestamp: h.Timestamp,
			UpdatedBy: uuidPtr(h.UpdatedBy),
		}
	}
	return resp
}

func orderViewResponse(v queries.OrderView) servers.Order {
	resp := servers.Order{
		Id:              v.ID.Bytes(),
		Number:          v.Number,
		Type:            string(v.Type),
		BranchId:        v.BranchID.Bytes(),
		CustomerId:      v.CustomerID.Bytes(),
		CourierId:       uuidPtr(v.CourierID),
		CourierName:     v.CourierName,
		CustomerName:    v.CustomerName,
		Total:           v.Total,
		TableNumber:     stringPtr(v.TableNumber),
		Items:           itemsResponse(v.Items),
		Status:          string(v.Status),
		Destination:     locationResponse(v.Destination),
		CourierLocation: courierPositionResponse(v.CourierLocation),
		CourierFlow:     flowResponse(v.CourierFlow),
		History:         make([]servers.HistoryEntry, len(v.History)),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	for i, h := range v.History {
		resp.History[i] = servers.HistoryEntry{
			Status:    string(h.Status),
			Message:   h.Message,
			Timestamp: h.Timestamp,
			UpdatedBy: uuidPtr(h.UpdatedBy),
		}
	}
	return resp
}

func activeOrderResponse(v queries.ActiveOrderView) servers.ActiveOrder {
	return servers.ActiveOrder{
		Id:           v.ID.Bytes(),
		Number:       v.Number,
		Type:         string(v.Type),
		Status:       string(v.Status),
		CustomerName: v.CustomerName,
		Total:        v.Total,
		TableNumber:  stringPtr(v.TableNumber),
		CourierId:    uuidPtr(v.CourierID),
		CourierName:  v.CourierName,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func warningResponse(w services.GeofenceWarning, o *order.Order) servers.GeofenceWarning {
	resp := servers.GeofenceWarning{
		Message:          w.Message,
		Reference:        string(w.Reference),
		Distance:         w.DistanceKm,
		RequiredDistance: w.RequiredDistanceKm,
	}
	if o != nil {
		resp.Status = string(o.Status())
	}
	return resp
}

func botResponse(r bot.Result) servers.BotResult {
	resp := servers.BotResult{
		Action:  string(r.Action.Kind),
		OrderId: r.Action.OrderID.Bytes(),
	}

	switch {
	case r.Assignment != nil:
		resp.Message = r.Assignment.Outcome.Message()
		resp.Status = statusPtr(r.Assignment.Order)
	case r.Transition != nil && r.Transition.Warning != nil:
		w := warningResponse(*r.Transition.Warning, r.Transition.Order)
		resp.Message = w.Message
		resp.Warning = &w
		resp.Status = statusPtr(r.Transition.Order)
	case r.Transition != nil && r.Transition.Changed:
		resp.Message = "status updated"
		resp.Status = statusPtr(r.Transition.Order)
	default:
		resp.Message = "status unchanged"
		if r.Transition != nil {
			resp.Status = statusPtr(r.Transition.Order)
		}
	}
	return resp
}

func itemsResponse(items []order.Item) []servers.Item {
	resp := make([]servers.Item, len(items))
	for i, it := range items {
		resp[i] = servers.Item{ProductId: it.ProductID, Name: it.Name, Quantity: it.Quantity, Price: it.Price}
	}
	return resp
}

func flowResponse(f order.CourierFlow) servers.CourierFlow {
	return servers.CourierFlow{
		AcceptedAt:  f.AcceptedAt,
		PickedUpAt:  f.PickedUpAt,
		DeliveredAt: f.DeliveredAt,
		CancelledAt: f.CancelledAt,
	}
}

func locationResponse(l *kernel.Location) *servers.Location {
	if l == nil {
		return nil
	}
	return &servers.Location{Lat: l.Lat(), Lon: l.Lon()}
}

func courierPositionResponse(c *order.CourierLocation) *servers.CourierPosition {
	if c == nil {
		return nil
	}
	return &servers.CourierPosition{Lat: c.Location.Lat(), Lon: c.Location.Lon(), UpdatedAt: c.UpdatedAt}
}

func uuidPtr(id *kernel.UUID) *openapi_types.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusPtr(o *order.Order) *string {
	if o == nil {
		return nil
	}
	s := string(o.Status())
	return &s
}
