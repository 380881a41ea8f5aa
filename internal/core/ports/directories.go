package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// BranchDirectory resolves branch coordinates for the pickup geofence.
// Branch management itself lives outside this service.
type BranchDirectory interface {
	// Location returns the branch coordinates, or nil when they are unknown.
	// Returns errs.ErrObjectNotFound for an unknown branch.
	Location(ctx context.Context, branchID kernel.UUID) (*kernel.Location, error)
}

// CourierProfile is the read model of a courier used in broadcast payloads.
type CourierProfile struct {
	ID          kernel.UUID
	Name        string
	BranchID    *kernel.UUID
	Location    *kernel.Location
	IsOnline    bool
	IsAvailable bool
	UpdatedAt   time.Time
}

// CourierPresence is a courier location report.
type CourierPresence struct {
	CourierID   kernel.UUID
	Location    kernel.Location
	IsAvailable *bool
	ReportedAt  time.Time
}

// CourierDirectory reads courier profiles and records their presence.
type CourierDirectory interface {
	// Get returns the courier profile.
	// Returns errs.ErrObjectNotFound for an unknown courier.
	Get(ctx context.Context, courierID kernel.UUID) (CourierProfile, error)

	// ReportPresence stores the latest location, marks the courier online and
	// returns the updated profile. A nil IsAvailable keeps the stored flag.
	ReportPresence(ctx context.Context, presence CourierPresence) (CourierProfile, error)
}
