package services

import (
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

const (
	// PickupRadiusKm is how close a courier must be to the branch to pick up.
	PickupRadiusKm = 0.2
	// DeliveryRadiusKm is how close a courier must be to the destination to deliver.
	DeliveryRadiusKm = 0.1
)

// GeofenceReference names the coordinate a check measures against.
type GeofenceReference string

const (
	ReferenceBranch      GeofenceReference = "branch"
	ReferenceDestination GeofenceReference = "destination"
)

// GeofenceWarning is returned instead of an error when a courier is too far
// away. The transition is not applied; the courier may move and retry.
type GeofenceWarning struct {
	Message            string            `json:"message"`
	Reference          GeofenceReference `json:"reference"`
	DistanceKm         float64           `json:"distance"`
	RequiredDistanceKm float64           `json:"requiredDistance"`
}

// GeofenceInput carries the coordinates known for one check. Nil pointers are unknown.
type GeofenceInput struct {
	Target      order.Status
	Courier     *kernel.Location
	Branch      *kernel.Location
	Destination *kernel.Location
}

// GeofenceValidator is a stateless domain service.
//
// Rules:
//   - picked_up requires the courier within PickupRadiusKm of the branch
//   - delivered requires the courier within DeliveryRadiusKm of the destination
//   - an unknown reference or courier coordinate skips the check (fail-open)
//
// Example:
//
//	warning, err := services.NewGeofenceValidator().Validate(services.GeofenceInput{
//	    Target:  order.PickedUp,
//	    Courier: &courierLoc,
//	    Branch:  branchLoc,
//	})
//	if warning != nil {
//	    // ask the courier to move closer
//	}
type GeofenceValidator struct {
	pickupRadiusKm   float64
	deliveryRadiusKm float64
}

// NewGeofenceValidator creates a validator with the standard radii.
func NewGeofenceValidator() GeofenceValidator {
	return GeofenceValidator{
		pickupRadiusKm:   PickupRadiusKm,
		deliveryRadiusKm: DeliveryRadiusKm,
	}
}

// Applies reports whether a transition by actor needs a proximity check.
// Only courier-initiated moves to picked_up or delivered are gated.
func (v GeofenceValidator) Applies(target order.Status, actor order.Actor) bool {
	return actor.IsCourier() && (target == order.PickedUp || target == order.Delivered)
}

// Validate returns a warning when the courier is outside the radius, nil otherwise.
func (v GeofenceValidator) Validate(in GeofenceInput) (*GeofenceWarning, error) {
	var (
		reference GeofenceReference
		point     *kernel.Location
		radius    float64
	)

	switch in.Target {
	case order.PickedUp:
		reference, point, radius = ReferenceBranch, in.Branch, v.pickupRadiusKm
	case order.Delivered:
		reference, point, radius = ReferenceDestination, in.Destination, v.deliveryRadiusKm
	default:
		return nil, nil
	}

	if point == nil || in.Courier == nil {
		return nil, nil
	}

	distance, err := in.Courier.DistanceKm(*point)
	if err != nil {
		return nil, err
	}
	if distance <= radius {
		return nil, nil
	}

	return &GeofenceWarning{
		Message:            warningMessage(reference, distance, radius),
		Reference:          reference,
		DistanceKm:         distance,
		RequiredDistanceKm: radius,
	}, nil
}

func warningMessage(reference GeofenceReference, distance, radius float64) string {
	switch reference {
	case ReferenceBranch:
		return fmt.Sprintf("You are %.0f m from the restaurant. Come within %.0f m to confirm pickup.",
			distance*1000, radius*1000)
	default:
		return fmt.Sprintf("You are %.0f m from the customer. Come within %.0f m to confirm delivery.",
			distance*1000, radius*1000)
	}
}
