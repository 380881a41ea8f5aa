package http_test

import (
	"errors"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var assertErr = errors.New("connection refused")

func newOrder(t *testing.T, typ order.Type) *order.Order {
	t.Helper()

	draft := order.Draft{
		ID:           kernel.NewUUID(),
		Number:       1042,
		Type:         typ,
		BranchID:     kernel.NewUUID(),
		CustomerID:   kernel.NewUUID(),
		CustomerName: "Dilnoza",
		Total:        35000,
		Items:        []order.Item{{ProductID: "plov-1", Name: "Plov", Quantity: 1, Price: 35000}},
	}
	switch typ {
	case order.TypeDelivery:
		dest, err := kernel.NewLocation(41.300, 69.250)
		require.NoError(t, err)
		draft.Destination = &dest
	case order.TypeDineIn, order.TypeTable:
		draft.TableNumber = "7"
	}

	o, err := order.NewOrder(draft, time.Now().UTC())
	require.NoError(t, err)
	return o
}

func admin(t *testing.T) order.Actor {
	t.Helper()
	actor, err := order.NewActor(kernel.NewUUID(), order.RoleAdmin)
	require.NoError(t, err)
	return actor
}
