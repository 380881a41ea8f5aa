package order

import (
	"fmt"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// Role identifies which audience initiated a change.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCourier  Role = "courier"
	RoleCustomer Role = "customer"
	RoleSystem   Role = "system"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleCourier, RoleCustomer, RoleSystem:
		return r, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("actor role is invalid", fmt.Errorf("%q is not a valid role", s))
	}
}

// Actor is whoever requested a change. System actors have no ID and are
// recorded as a null updatedBy.
type Actor struct {
	ID   *kernel.UUID
	Role Role
}

// NewActor builds a non-system actor.
func NewActor(id kernel.UUID, role Role) (Actor, error) {
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Actor{}, err
	}
	if role == RoleSystem {
		return SystemActor(), nil
	}
	return Actor{ID: &id, Role: role}, nil
}

// SystemActor is used for timers and sweeps.
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

func (a Actor) IsCourier() bool {
	return a.Role == RoleCourier
}

func (a Actor) String() string {
	if a.ID == nil {
		return string(a.Role)
	}
	return fmt.Sprintf("%s:%s", a.Role, a.ID)
}
