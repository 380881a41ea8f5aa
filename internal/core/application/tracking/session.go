// Package tracking keeps the live (order, observer) tracking sessions and
// closes them when the order finishes or the observer goes quiet.
package tracking

import (
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// DefaultTimeout closes sessions without activity for this long.
const DefaultTimeout = 2 * time.Hour

// Source is the audience that started tracking.
type Source string

const (
	SourceCustomer Source = "customer"
	SourceAdmin    Source = "admin"
	SourceCourier  Source = "courier"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceCustomer, SourceAdmin, SourceCourier:
		return src, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("tracking source is invalid",
			fmt.Errorf("%q is not a valid source", s))
	}
}

// EndReason is recorded in the archive when a session closes.
type EndReason string

const (
	ReasonOrderCompleted  EndReason = "order_completed"
	ReasonOrderDelivered  EndReason = "order_delivered"
	ReasonOrderCancelled  EndReason = "order_cancelled"
	ReasonSessionTimeout  EndReason = "session_timeout"
	ReasonObserverStopped EndReason = "observer_stopped"
)

// reasonFor maps a terminal status to its close reason.
func reasonFor(status order.Status) (EndReason, bool) {
	switch status {
	case order.Completed:
		return ReasonOrderCompleted, true
	case order.Delivered:
		return ReasonOrderDelivered, true
	case order.Cancelled:
		return ReasonOrderCancelled, true
	default:
		return "", false
	}
}

// Session is a copy of one tracking session's state.
type Session struct {
	OrderID      kernel.UUID `json:"orderId"`
	ObserverID   kernel.UUID `json:"observerId"`
	Source       Source      `json:"source"`
	StartTime    time.Time   `json:"startTime"`
	LastActivity time.Time   `json:"lastActivity"`
	IsActive     bool        `json:"isActive"`
}

type key struct {
	orderID    kernel.UUID
	observerID kernel.UUID
}
