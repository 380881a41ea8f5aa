// Package events turns committed order changes into the typed room events
// consumed by admin dashboards, customer sessions and courier clients.
package events

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// Location is a coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func locationOf(l *kernel.Location) *Location {
	if l == nil {
		return nil
	}
	return &Location{Lat: l.Lat(), Lon: l.Lon()}
}

// OrderUpdated goes to order:<id>, branch:<branchId> and branch:default.
type OrderUpdated struct {
	OrderID         string       `json:"orderId"`
	Status          order.Status `json:"status"`
	CourierID       *string      `json:"courierId,omitempty"`
	CourierName     *string      `json:"courierName,omitempty"`
	CourierLocation *Location    `json:"courierLocation,omitempty"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// OrderStatusUpdated goes to branch:<branchId> and branch:default.
type OrderStatusUpdated struct {
	OrderID       string       `json:"orderId"`
	Status        order.Status `json:"status"`
	CourierID     *string      `json:"courierId"`
	CourierStatus string       `json:"courierStatus"`
	DeliveredAt   *time.Time   `json:"deliveredAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewOrder goes to branch:<branchId> and branch:default.
type NewOrder struct {
	OrderID      string       `json:"orderId"`
	OrderNumber  int          `json:"orderNumber"`
	CustomerName string       `json:"customerName"`
	Total        int64        `json:"total"`
	OrderType    order.Type   `json:"orderType"`
	Status       order.Status `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// CourierLocation goes to branch:<branchId> of the courier and branch:default.
type CourierLocation struct {
	CourierID   string    `json:"courierId"`
	Location    Location  `json:"location"`
	IsOnline    bool      `json:"isOnline"`
	IsAvailable bool      `json:"isAvailable"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Item is an order line in customer-arrived.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CustomerArrived goes to branch:<branchId> and branch:default for dine-in arrivals.
type CustomerArrived struct {
	OrderID     string `json:"orderId"`
	TableNumber string `json:"tableNumber"`
	Customer    string `json:"customer"`
	Total       int64  `json:"total"`
	Items       []Item `json:"items"`
}

// TrackingSessionEnded goes to user:<observerId>.
type TrackingSessionEnded struct {
	OrderID    string    `json:"orderId"`
	Reason     string    `json:"reason"`
	DurationMs int64     `json:"durationMs"`
	StartedAt  time.Time `json:"startedAt"`
	EndedAt    time.Time `json:"endedAt"`
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
