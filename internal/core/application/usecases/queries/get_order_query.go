// Package queries holds the read side: raw SQL against the tables the
// repositories write, returning flat views for the REST ingress.
package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order with its most recent history entries.
//
// Example:
//
//	query, err := NewGetOrderQuery(orderID, 0) // last 10 entries
//	view, err := handler.Handle(ctx, query)
type GetOrderQuery struct {
	orderID      kernel.UUID
	historyLimit int

	guard guard.ConstructorGuard
}

// NewGetOrderQuery uses DefaultHistoryLimit when historyLimit is zero.
func NewGetOrderQuery(orderID kernel.UUID, historyLimit int) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}
	if historyLimit == 0 {
		historyLimit = DefaultHistoryLimit
	}
	if historyLimit < 1 || historyLimit > MaxHistoryLimit {
		return GetOrderQuery{}, errs.NewValueIsOutOfRangeError("history", historyLimit, 1, MaxHistoryLimit)
	}

	return GetOrderQuery{
		orderID:      orderID,
		historyLimit: historyLimit,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }
func (q GetOrderQuery) HistoryLimit() int    { return q.historyLimit }

// OrderView is the order as shown to dashboards and customers.
type OrderView struct {
	ID              kernel.UUID
	Number          int
	Type            order.Type
	BranchID        kernel.UUID
	CustomerID      kernel.UUID
	CourierID       *kernel.UUID
	CourierName     *string
	CustomerName    string
	Total           int64
	TableNumber     string
	Items           []order.Item
	Status          order.Status
	Destination     *kernel.Location
	CourierLocation *order.CourierLocation
	CourierFlow     order.CourierFlow
	History         []HistoryView
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HistoryView is one history line, oldest first.
type HistoryView struct {
	Status    order.Status
	Message   string
	Timestamp time.Time
	UpdatedBy *kernel.UUID
}
