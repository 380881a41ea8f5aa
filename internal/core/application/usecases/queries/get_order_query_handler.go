package queries

import (
	"context"
	"encoding/json"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads an order, its courier name and the tail of its
// history in two statements.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

type orderRow struct {
	ID                       uuid.UUID
	Number                   int
	Type                     string
	BranchID                 uuid.UUID
	CustomerID               uuid.UUID
	CourierID                *uuid.UUID
	CourierName              *string
	CustomerName             string
	Total                    int64
	TableNumber              string
	Items                    []byte
	Status                   string
	DestinationLat           *float64
	DestinationLon           *float64
	CourierLat               *float64
	CourierLon               *float64
	CourierLocationUpdatedAt *time.Time
	AcceptedAt               *time.Time
	PickedUpAt               *time.Time
	DeliveredAt              *time.Time
	CancelledAt              *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type historyRow struct {
	Status     string
	Message    string
	RecordedAt time.Time
	UpdatedBy  *uuid.UUID
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	db := h.db.WithContext(ctx)

	var rows []orderRow
	err := db.Raw(`
		SELECT
			o.id, o.number, o.type, o.branch_id, o.customer_id, o.courier_id,
			c.name AS courier_name,
			o.customer_name, o.total, o.table_number, o.items, o.status,
			o.destination_lat, o.destination_lon,
			o.courier_lat, o.courier_lon, o.courier_location_updated_at,
			o.accepted_at, o.picked_up_at, o.delivered_at, o.cancelled_at,
			o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN couriers c ON c.id = o.courier_id
		WHERE o.id = ?
	`, query.OrderID().Bytes()).Scan(&rows).Error
	if err != nil {
		return OrderView{}, err
	}
	if len(rows) == 0 {
		return OrderView{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	var history []historyRow
	err = db.Raw(`
		SELECT status, message, recorded_at, updated_by
		FROM (
			SELECT seq, status, message, recorded_at, updated_by
			FROM order_status_history
			WHERE order_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) tail
		ORDER BY seq
	`, query.OrderID().Bytes(), query.HistoryLimit()).Scan(&history).Error
	if err != nil {
		return OrderView{}, err
	}

	return toOrderView(rows[0], history)
}

func toOrderView(r orderRow, history []historyRow) (OrderView, error) {
	v := OrderView{
		Number:       r.Number,
		Type:         order.Type(r.Type),
		CourierName:  r.CourierName,
		CustomerName: r.CustomerName,
		Total:        r.Total,
		TableNumber:  r.TableNumber,
		Status:       order.Status(r.Status),
		CourierFlow: order.CourierFlow{
			AcceptedAt:  r.AcceptedAt,
			PickedUpAt:  r.PickedUpAt,
			DeliveredAt: r.DeliveredAt,
			CancelledAt: r.CancelledAt,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		History:   make([]HistoryView, 0, len(history)),
	}

	var err error
	if v.ID, err = kernel.UUIDFromBytes(r.ID[:]); err != nil {
		return OrderView{}, err
	}
	if v.BranchID, err = kernel.UUIDFromBytes(r.BranchID[:]); err != nil {
		return OrderView{}, err
	}
	if v.CustomerID, err = kernel.UUIDFromBytes(r.CustomerID[:]); err != nil {
		return OrderView{}, err
	}
	if v.CourierID, err = optionalID(r.CourierID); err != nil {
		return OrderView{}, err
	}

	if len(r.Items) > 0 {
		var items []struct {
			ProductID string `json:"productId"`
			Name      string `json:"name"`
			Quantity  int    `json:"quantity"`
			Price     int64  `json:"price"`
		}
		if err = json.Unmarshal(r.Items, &items); err != nil {
			return OrderView{}, err
		}
		for _, it := range items {
			v.Items = append(v.Items, order.Item(it))
		}
	}

	if v.Destination, err = optionalLocation(r.DestinationLat, r.DestinationLon); err != nil {
		return OrderView{}, err
	}
	pos, err := optionalLocation(r.CourierLat, r.CourierLon)
	if err != nil {
		return OrderView{}, err
	}
	if pos != nil && r.CourierLocationUpdatedAt != nil {
		v.CourierLocation = &order.CourierLocation{Location: *pos, UpdatedAt: *r.CourierLocationUpdatedAt}
	}

	for _, h := range history {
		updatedBy, idErr := optionalID(h.UpdatedBy)
		if idErr != nil {
			return OrderView{}, idErr
		}
		v.History = append(v.History, HistoryView{
			Status:    order.Status(h.Status),
			Message:   h.Message,
			Timestamp: h.RecordedAt,
			UpdatedBy: updatedBy,
		})
	}

	return v, nil
}

func optionalID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalLocation(lat, lon *float64) (*kernel.Location, error) {
	if lat == nil || lon == nil {
		return nil, nil
	}
	loc, err := kernel.NewLocation(*lat, *lon)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
