// Package bot decodes conversational callback tokens and forwards them to the
// order command handlers.
package bot

import (
	"fmt"
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// Kind is the action part of a callback token.
type Kind string

const (
	CourierAccept     Kind = "courier_accept"
	CourierPickedUp   Kind = "courier_picked_up"
	CourierOnDelivery Kind = "courier_on_delivery"
	CourierDelivered  Kind = "courier_delivered"
	AdminConfirm      Kind = "admin_confirm"
	AdminReady        Kind = "admin_ready"
	AdminCancel       Kind = "admin_cancel"
)

var targets = map[Kind]order.Status{
	CourierPickedUp:   order.PickedUp,
	CourierOnDelivery: order.OnDelivery,
	CourierDelivered:  order.Delivered,
	AdminConfirm:      order.Confirmed,
	AdminReady:        order.Ready,
	AdminCancel:       order.Cancelled,
}

// Role is who may press the button.
func (k Kind) Role() order.Role {
	if strings.HasPrefix(string(k), "courier_") {
		return order.RoleCourier
	}
	return order.RoleAdmin
}

// Target is the requested status. CourierAccept has none: it assigns.
func (k Kind) Target() (order.Status, bool) {
	s, ok := targets[k]
	return s, ok
}

func (k Kind) valid() bool {
	_, ok := targets[k]
	return ok || k == CourierAccept
}

// Action is a decoded callback token.
type Action struct {
	Kind    Kind
	OrderID kernel.UUID
}

// ParseAction decodes "<action>_<orderId>". Order ids never contain an
// underscore, so the last one separates the two parts.
func ParseAction(data string) (Action, error) {
	i := strings.LastIndexByte(data, '_')
	if i <= 0 || i == len(data)-1 {
		return Action{}, errs.NewValueIsInvalidError("callback data")
	}

	kind := Kind(data[:i])
	if !kind.valid() {
		return Action{}, errs.NewValueIsInvalidErrorWithCause("callback action", fmt.Errorf("unknown action %q", kind))
	}

	id, err := kernel.UUIDFromString(data[i+1:])
	if err != nil {
		return Action{}, errs.NewValueIsInvalidErrorWithCause("callback order id", err)
	}

	return Action{Kind: kind, OrderID: id}, nil
}

func (a Action) String() string {
	return string(a.Kind) + "_" + a.OrderID.String()
}
