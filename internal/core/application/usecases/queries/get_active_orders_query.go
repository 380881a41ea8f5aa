package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery lists the non-terminal orders of one branch for its
// dashboard, oldest first.
type GetActiveOrdersQuery struct {
	branchID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetActiveOrdersQuery(branchID kernel.UUID) (GetActiveOrdersQuery, error) {
	if err := branchID.Validate(); err != nil {
		return GetActiveOrdersQuery{}, err
	}
	return GetActiveOrdersQuery{branchID: branchID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

func (q GetActiveOrdersQuery) BranchID() kernel.UUID { return q.branchID }

// ActiveOrderView is one dashboard row.
type ActiveOrderView struct {
	ID           kernel.UUID
	Number       int
	Type         order.Type
	Status       order.Status
	CustomerName string
	Total        int64
	TableNumber  string
	CourierID    *kernel.UUID
	CourierName  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
