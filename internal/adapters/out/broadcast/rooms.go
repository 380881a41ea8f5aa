// Package broadcast fans order events out to in-process room subscribers and
// optional relay sinks.
package broadcast

import (
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
)

// DefaultBranchRoom is the superadmin overview of every branch.
const DefaultBranchRoom = "branch:default"

const (
	orderPrefix  = "order:"
	branchPrefix = "branch:"
	userPrefix   = "user:"
)

func OrderRoom(id kernel.UUID) string  { return orderPrefix + id.String() }
func BranchRoom(id kernel.UUID) string { return branchPrefix + id.String() }
func UserRoom(id kernel.UUID) string   { return userPrefix + id.String() }

// Rooms lists the rooms an event is addressed to, without duplicates. Every
// branch event is mirrored to DefaultBranchRoom.
func Rooms(event ports.Event) []string {
	rooms := make([]string, 0, 4)
	if id := event.Keys.OrderID; id != nil {
		rooms = append(rooms, OrderRoom(*id))
	}
	if id := event.Keys.BranchID; id != nil {
		rooms = append(rooms, BranchRoom(*id), DefaultBranchRoom)
	}
	if id := event.Keys.UserID; id != nil {
		rooms = append(rooms, UserRoom(*id))
	}
	return rooms
}

// ValidRoom reports whether name is a room this service publishes to.
func ValidRoom(name string) bool {
	if name == DefaultBranchRoom {
		return true
	}
	for _, prefix := range []string{orderPrefix, branchPrefix, userPrefix} {
		if id, ok := strings.CutPrefix(name, prefix); ok {
			_, err := kernel.UUIDFromString(id)
			return err == nil
		}
	}
	return false
}
