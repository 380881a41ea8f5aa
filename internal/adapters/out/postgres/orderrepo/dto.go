// Package orderrepo persists order aggregates and their append-only status
// history with GORM.
package orderrepo

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is one row of the orders table. Courier milestones and the
// delivery coordinates are flattened into nullable columns.
type OrderDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Number       int        `gorm:"not null"`
	Type         string     `gorm:"type:varchar(16);not null"`
	BranchID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;not null"`
	CourierID    *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName string
	Total        int64
	TableNumber  string
	Items        []ItemDTO `gorm:"serializer:json"`
	Status       string    `gorm:"type:varchar(16);not null;index"`

	DestinationLat *float64
	DestinationLon *float64

	CourierLat               *float64
	CourierLon               *float64
	CourierLocationUpdatedAt *time.Time

	AcceptedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	Version   int64     `gorm:"not null;default:0"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is stored inside the items json column.
type ItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// HistoryEntryDTO is one line of the status history. Rows are only inserted.
type HistoryEntryDTO struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_history_seq"`
	Seq        int       `gorm:"not null;uniqueIndex:idx_order_history_seq"`
	Status     string    `gorm:"type:varchar(16);not null"`
	Message    string
	RecordedAt time.Time  `gorm:"not null"`
	UpdatedBy  *uuid.UUID `gorm:"type:uuid"`
}

func (HistoryEntryDTO) TableName() string {
	return "order_status_history"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	dto := OrderDTO{
		ID:           s.ID.Bytes(),
		Number:       s.Number,
		Type:         string(s.Type),
		BranchID:     s.BranchID.Bytes(),
		CustomerID:   s.CustomerID.Bytes(),
		CourierID:    rawID(s.CourierID),
		CustomerName: s.CustomerName,
		Total:        s.Total,
		TableNumber:  s.TableNumber,
		Status:       string(s.Status),
		AcceptedAt:   s.CourierFlow.AcceptedAt,
		PickedUpAt:   s.CourierFlow.PickedUpAt,
		DeliveredAt:  s.CourierFlow.DeliveredAt,
		CancelledAt:  s.CourierFlow.CancelledAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Version:      s.Version,
	}

	if len(s.Items) > 0 {
		dto.Items = make([]ItemDTO, 0, len(s.Items))
		for _, it := range s.Items {
			dto.Items = append(dto.Items, ItemDTO(it))
		}
	}

	if d := s.Delivery; d != nil {
		if d.Destination != nil {
			dto.DestinationLat, dto.DestinationLon = coords(*d.Destination)
		}
		if d.CourierLocation != nil {
			dto.CourierLat, dto.CourierLon = coords(d.CourierLocation.Location)
			at := d.CourierLocation.UpdatedAt
			dto.CourierLocationUpdatedAt = &at
		}
	}

	return dto
}

// historyFromDomain maps entries starting at sequence number base.
func historyFromDomain(orderID kernel.UUID, base int, entries []order.HistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, 0, len(entries))
	for i, e := range entries {
		out = append(out, HistoryEntryDTO{
			OrderID:    orderID.Bytes(),
			Seq:        base + i,
			Status:     string(e.Status),
			Message:    e.Message,
			RecordedAt: e.Timestamp,
			UpdatedBy:  rawID(e.UpdatedBy),
		})
	}
	return out
}

func toDomain(dto OrderDTO, history []HistoryEntryDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	branchID, err := kernel.UUIDFromBytes(dto.BranchID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	courierID, err := domainID(dto.CourierID)
	if err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:           id,
		Number:       dto.Number,
		Type:         order.Type(dto.Type),
		BranchID:     branchID,
		CustomerID:   customerID,
		CourierID:    courierID,
		CustomerName: dto.CustomerName,
		Total:        dto.Total,
		TableNumber:  dto.TableNumber,
		Status:       order.Status(dto.Status),
		CourierFlow: order.CourierFlow{
			AcceptedAt:  dto.AcceptedAt,
			PickedUpAt:  dto.PickedUpAt,
			DeliveredAt: dto.DeliveredAt,
			CancelledAt: dto.CancelledAt,
		},
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
		Version:   dto.Version,
	}

	for _, it := range dto.Items {
		s.Items = append(s.Items, order.Item(it))
	}

	if s.Type == order.TypeDelivery {
		s.Delivery = &order.DeliveryInfo{}
		if dest, locErr := location(dto.DestinationLat, dto.DestinationLon); locErr != nil {
			return nil, locErr
		} else if dest != nil {
			s.Delivery.Destination = dest
		}
		if pos, locErr := location(dto.CourierLat, dto.CourierLon); locErr != nil {
			return nil, locErr
		} else if pos != nil && dto.CourierLocationUpdatedAt != nil {
			s.Delivery.CourierLocation = &order.CourierLocation{Location: *pos, UpdatedAt: *dto.CourierLocationUpdatedAt}
		}
	}

	s.History = make([]order.HistoryEntry, 0, len(history))
	for _, h := range history {
		updatedBy, idErr := domainID(h.UpdatedBy)
		if idErr != nil {
			return nil, idErr
		}
		s.History = append(s.History, order.HistoryEntry{
			Status:    order.Status(h.Status),
			Message:   h.Message,
			Timestamp: h.RecordedAt,
			UpdatedBy: updatedBy,
		})
	}

	return order.RestoreOrder(s)
}

func rawID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func coords(l kernel.Location) (*float64, *float64) {
	lat, lon := l.Lat(), l.Lon()
	return &lat, &lon
}

func location(lat, lon *float64) (*kernel.Location, error) {
	if lat == nil || lon == nil {
		return nil, nil
	}
	l, err := kernel.NewLocation(*lat, *lon)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
