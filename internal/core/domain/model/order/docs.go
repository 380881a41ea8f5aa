// Package order provides the Order aggregate and its lifecycle state machine.
//
// The package includes:
//   - Order: identity, ownership, delivery data and the append-only status history
//   - Status: the closed status enumeration and its transition table
//   - Type: delivery, pickup, dine-in and table orders
//   - Actor: who requested a change
//
// Key business rules:
//   - status moves only through the transition table in status.go
//   - requesting the current status again is a no-op, not an error
//   - delivered, completed and cancelled are terminal
//   - couriers may be reassigned while the order is open; the same courier twice is a no-op
//   - courier-initiated transitions require the courier to be the assigned one
package order
