package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand is a courier position report.
type UpdateCourierLocationCommand struct {
	courierID   kernel.UUID
	location    kernel.Location
	isAvailable *bool

	guard guard.ConstructorGuard
}

// NewUpdateCourierLocationCommand validates the courier id and the location.
// A nil isAvailable keeps the stored availability.
func NewUpdateCourierLocationCommand(
	courierID kernel.UUID,
	location kernel.Location,
	isAvailable *bool,
) (UpdateCourierLocationCommand, error) {
	if err := errors.Join(courierID.Validate(), location.Validate()); err != nil {
		return UpdateCourierLocationCommand{}, err
	}

	return UpdateCourierLocationCommand{
		courierID:   courierID,
		location:    location,
		isAvailable: isAvailable,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) CourierID() kernel.UUID    { return c.courierID }
func (c UpdateCourierLocationCommand) Location() kernel.Location { return c.location }
func (c UpdateCourierLocationCommand) IsAvailable() *bool        { return c.isAvailable }
