package order

import (
	"fmt"

	"orderflow/internal/pkg/errs"
)

// Type selects geofence rules and notification wording.
type Type string

const (
	TypeDelivery Type = "delivery"
	TypePickup   Type = "pickup"
	TypeDineIn   Type = "dine_in"
	TypeTable    Type = "table"
)

// ParseType converts a wire value into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t Type) Validate() error {
	switch t {
	case TypeDelivery, TypePickup, TypeDineIn, TypeTable:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("order type is invalid", fmt.Errorf("%q is not a valid order type", string(t)))
	}
}

func (t Type) String() string {
	return string(t)
}

// IsOnPremises reports whether the customer eats at the branch.
func (t Type) IsOnPremises() bool {
	return t == TypeDineIn || t == TypeTable
}
