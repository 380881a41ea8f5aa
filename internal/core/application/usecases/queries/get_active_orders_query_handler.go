package queries

import (
	"context"
	"database/sql"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetActiveOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

func (h GetActiveOrdersQueryHandler) Handle(ctx context.Context, query GetActiveOrdersQuery) ([]ActiveOrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	terminal := make([]string, 0, 3)
	for _, s := range order.AllStatuses() {
		if s.IsTerminal() {
			terminal = append(terminal, string(s))
		}
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id, o.number, o.type, o.status, o.customer_name, o.total,
			o.table_number, o.courier_id, c.name, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN couriers c ON c.id = o.courier_id
		WHERE o.branch_id = ? AND o.status NOT IN ?
		ORDER BY o.created_at, o.number
	`, query.BranchID().Bytes(), terminal).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]ActiveOrderView, 0)
	for rows.Next() {
		var (
			v                    ActiveOrderView
			id                   uuid.UUID
			courierID            uuid.NullUUID
			courierName          sql.NullString
			orderType, status    string
			createdAt, updatedAt time.Time
		)

		err = rows.Scan(
			&id,
			&v.Number,
			&orderType,
			&status,
			&v.CustomerName,
			&v.Total,
			&v.TableNumber,
			&courierID,
			&courierName,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		v.ID = orderID
		v.Type = order.Type(orderType)
		v.Status = order.Status(status)
		v.CreatedAt = createdAt
		v.UpdatedAt = updatedAt

		if courierID.Valid {
			cID, courierErr := kernel.UUIDFromBytes(courierID.UUID[:])
			if courierErr != nil {
				return nil, courierErr
			}
			v.CourierID = &cID
		}
		if courierName.Valid {
			name := courierName.String
			v.CourierName = &name
		}

		orders = append(orders, v)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
