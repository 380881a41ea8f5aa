// Package ports defines the contracts between the order lifecycle core and
// infrastructure. Adapters under internal/adapters implement them; the
// application layer depends only on these interfaces.
package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// The status history is stored append-only next to the order row.
type OrderRepository interface {
	// Add persists a new order aggregate with its initial history entry.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate with a single
	// conditional write keyed on the order id and the status it was read with.
	// Unsaved history entries are appended in the same transaction.
	//
	// Returns errs.ErrConcurrentUpdate when another writer changed the status
	// first; the caller is expected to re-read the order and decide again.
	//
	// Example:
	//   err := repo.Update(ctx, o)
	//   if errors.Is(err, errs.ErrConcurrentUpdate) {
	//       fresh, _ := repo.Get(ctx, o.ID())
	//       // retry against fresh.Status()
	//   }
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier, including the
	// full status history in append order.
	// Returns errs.ErrObjectNotFound when no such order exists.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetActiveByCourier retrieves the non-terminal orders assigned to a courier.
	GetActiveByCourier(ctx context.Context, courierID kernel.UUID) ([]*order.Order, error)
}
