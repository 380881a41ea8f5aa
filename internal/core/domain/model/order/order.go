package order

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")
)

// AssignmentOutcome describes what AssignCourier changed.
type AssignmentOutcome int

const (
	// AssignmentUnchanged means the same courier was already assigned.
	AssignmentUnchanged AssignmentOutcome = iota
	// AssignmentNew means the order had no courier before.
	AssignmentNew
	// AssignmentChanged means a different courier replaced the previous one.
	AssignmentChanged
)

// Message is the user-facing wording returned by the assign-courier endpoint.
func (a AssignmentOutcome) Message() string {
	switch a {
	case AssignmentUnchanged:
		return "courier already assigned"
	case AssignmentChanged:
		return "courier changed"
	default:
		return "courier assigned"
	}
}

// Draft carries the input of a new order.
type Draft struct {
	ID           kernel.UUID
	Number       int
	Type         Type
	BranchID     kernel.UUID
	CustomerID   kernel.UUID
	CustomerName string
	Total        int64
	TableNumber  string
	Items        []Item
	Destination  *kernel.Location
}

// Order is the aggregate root of the lifecycle. All status changes go through
// TransitionTo, AssignCourier or CompletePickup.
//
// Order follows these invariants:
//   - status only moves through the transition table
//   - history is append-only; entries are never modified
//   - terminal orders refuse every mutation
//   - deliveryInfo is present exactly for delivery orders
type Order struct {
	id           kernel.UUID
	number       int
	orderType    Type
	branchID     kernel.UUID
	customerID   kernel.UUID
	courierID    *kernel.UUID
	customerName string
	total        int64
	tableNumber  string
	items        []Item

	status      Status
	history     []HistoryEntry
	courierFlow CourierFlow
	delivery    *DeliveryInfo

	createdAt time.Time
	updatedAt time.Time

	// version counts persisted writes; persistedStatus keys the conditional update.
	version         int64
	persistedStatus Status
	// persistedHistory counts history entries already stored.
	persistedHistory int

	isConstructed bool
}

// NewOrder creates a pending order with an initial history entry.
//
// Example:
//
//	o, err := order.NewOrder(order.Draft{
//	    ID:         kernel.NewUUID(),
//	    Number:     1042,
//	    Type:       order.TypeDelivery,
//	    BranchID:   branchID,
//	    CustomerID: customerID,
//	    Destination: &destination,
//	}, time.Now())
func NewOrder(d Draft, now time.Time) (*Order, error) {
	o := &Order{
		number:        d.Number,
		customerName:  d.CustomerName,
		tableNumber:   d.TableNumber,
		items:         copyItems(d.Items),
		status:        Pending,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(d.ID),
		o.setType(d.Type),
		o.setBranch(d.BranchID),
		o.setCustomer(d.CustomerID),
		o.setTotal(d.Total),
		o.setDestination(d.Type, d.Destination),
	); err != nil {
		return nil, err
	}

	o.history = []HistoryEntry{{
		Status:    Pending,
		Message:   "order created",
		Timestamp: now,
		UpdatedBy: &o.customerID,
	}}
	return o, nil
}

// Snapshot is the full persisted state of an order.
type Snapshot struct {
	ID           kernel.UUID
	Number       int
	Type         Type
	BranchID     kernel.UUID
	CustomerID   kernel.UUID
	CourierID    *kernel.UUID
	CustomerName string
	Total        int64
	TableNumber  string
	Items        []Item
	Status       Status
	History      []HistoryEntry
	CourierFlow  CourierFlow
	Delivery     *DeliveryInfo
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// RestoreOrder rebuilds an order from storage. History and status are taken
// as-is but still validated.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		number:        s.Number,
		courierID:     s.CourierID,
		customerName:  s.CustomerName,
		tableNumber:   s.TableNumber,
		items:         copyItems(s.Items),
		courierFlow:   s.CourierFlow,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		version:       s.Version,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setType(s.Type),
		o.setBranch(s.BranchID),
		o.setCustomer(s.CustomerID),
		o.setTotal(s.Total),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Type == TypeDelivery {
		o.delivery = &DeliveryInfo{}
		if s.Delivery != nil {
			*o.delivery = *s.Delivery
		}
	}

	o.status = s.Status
	o.persistedStatus = s.Status
	o.history = append(make([]HistoryEntry, 0, len(s.History)), s.History...)
	o.persistedHistory = len(o.history)
	return o, nil
}

// Snapshot exports the state for persistence.
func (o *Order) Snapshot() Snapshot {
	s := Snapshot{
		ID:           o.id,
		Number:       o.number,
		Type:         o.orderType,
		BranchID:     o.branchID,
		CustomerID:   o.customerID,
		CourierID:    o.courierID,
		CustomerName: o.customerName,
		Total:        o.total,
		TableNumber:  o.tableNumber,
		Items:        o.Items(),
		Status:       o.status,
		History:      o.History(),
		CourierFlow:  o.courierFlow,
		CreatedAt:    o.createdAt,
		UpdatedAt:    o.updatedAt,
		Version:      o.version,
	}
	if o.delivery != nil {
		d := *o.delivery
		s.Delivery = &d
	}
	return s
}

// Validate ensures the Order was built by a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

func (o *Order) ID() kernel.UUID          { return o.id }
func (o *Order) Number() int              { return o.number }
func (o *Order) Type() Type               { return o.orderType }
func (o *Order) BranchID() kernel.UUID    { return o.branchID }
func (o *Order) CustomerID() kernel.UUID  { return o.customerID }
func (o *Order) Courier() *kernel.UUID    { return o.courierID }
func (o *Order) CustomerName() string     { return o.customerName }
func (o *Order) Total() int64             { return o.total }
func (o *Order) TableNumber() string      { return o.tableNumber }
func (o *Order) Status() Status           { return o.status }
func (o *Order) Items() []Item            { return copyItems(o.items) }
func (o *Order) CourierFlow() CourierFlow { return o.courierFlow }
func (o *Order) CreatedAt() time.Time     { return o.createdAt }
func (o *Order) UpdatedAt() time.Time     { return o.updatedAt }
func (o *Order) Version() int64           { return o.version }

// Delivery returns a copy of the delivery info, nil for non-delivery orders.
func (o *Order) Delivery() *DeliveryInfo {
	if o.delivery == nil {
		return nil
	}
	d := *o.delivery
	return &d
}

// Destination returns the delivery destination if known.
func (o *Order) Destination() *kernel.Location {
	if o.delivery == nil {
		return nil
	}
	return o.delivery.Destination
}

// CourierPosition returns the last reported courier location if known.
func (o *Order) CourierPosition() *kernel.Location {
	if o.delivery == nil || o.delivery.CourierLocation == nil {
		return nil
	}
	loc := o.delivery.CourierLocation.Location
	return &loc
}

// History returns a copy of the status history.
func (o *Order) History() []HistoryEntry {
	out := make([]HistoryEntry, len(o.history))
	copy(out, o.history)
	return out
}

// LastHistory returns up to n most recent history entries, oldest first.
func (o *Order) LastHistory(n int) []HistoryEntry {
	if n <= 0 || n >= len(o.history) {
		return o.History()
	}
	out := make([]HistoryEntry, n)
	copy(out, o.history[len(o.history)-n:])
	return out
}

// UnsavedHistory returns entries appended since the order was built or last persisted.
func (o *Order) UnsavedHistory() []HistoryEntry {
	out := make([]HistoryEntry, len(o.history)-o.persistedHistory)
	copy(out, o.history[o.persistedHistory:])
	return out
}

// MarkPersisted records a successful write with the new version.
func (o *Order) MarkPersisted(version int64) {
	o.version = version
	o.persistedStatus = o.status
	o.persistedHistory = len(o.history)
}

// PersistedStatus is the status last read from or written to storage.
// It is empty for orders that were never stored.
func (o *Order) PersistedStatus() Status {
	return o.persistedStatus
}

// IsClosed reports whether the order is in a terminal status.
func (o *Order) IsClosed() bool {
	return o.status.IsTerminal()
}

// CheckTransition validates a requested status without mutating the order.
//
// Returns:
//   - (false, nil) when target differs and is allowed
//   - (true, nil) when target equals the current status (no-op)
//   - OrderClosed for terminal orders, InvalidTransition for targets outside the table
//   - CourierMismatch when a courier acts on an order assigned to someone else
func (o *Order) CheckTransition(target Status, actor Actor) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, err
	}
	if target == o.status {
		return true, nil
	}
	if o.status.IsTerminal() {
		return false, errs.NewClosedTransitionError(o.id, o.status, target)
	}
	if err := o.status.ValidateTransition(target); err != nil {
		return false, err
	}
	if actor.IsCourier() && (actor.ID == nil || !kernel.EqualPtr(o.courierID, actor.ID)) {
		id := kernel.UUID{}
		if actor.ID != nil {
			id = *actor.ID
		}
		return false, errs.NewCourierMismatchError(o.id, id)
	}
	return false, nil
}

// TransitionTo moves the order to target and appends a history entry.
// The same status is a successful no-op that appends nothing.
//
// Example:
//
//	changed, err := o.TransitionTo(order.Confirmed, admin, "", time.Now())
//	if errors.Is(err, errs.ErrInvalidTransition) {
//	    // reject the request
//	}
func (o *Order) TransitionTo(target Status, actor Actor, message string, now time.Time) (bool, error) {
	noop, err := o.CheckTransition(target, actor)
	if err != nil || noop {
		return false, err
	}

	o.apply(target, actor, message, now)
	return true, nil
}

// AssignCourier sets or replaces the courier. Assigning the same courier again
// succeeds without changes. When the table allows it the status moves to
// assigned; otherwise only the courier reference changes. Courier flow
// timestamps are kept on reassignment.
func (o *Order) AssignCourier(courierID kernel.UUID, actor Actor, now time.Time) (AssignmentOutcome, error) {
	if err := courierID.Validate(); err != nil {
		return AssignmentUnchanged, err
	}
	if o.status.IsTerminal() {
		return AssignmentUnchanged, errs.NewOrderClosedError(o.id, o.status)
	}
	if o.courierID != nil && o.courierID.IsEqual(courierID) {
		return AssignmentUnchanged, nil
	}

	outcome := AssignmentNew
	message := fmt.Sprintf("courier %s assigned", courierID)
	if o.courierID != nil {
		outcome = AssignmentChanged
		message = fmt.Sprintf("courier changed from %s to %s", o.courierID, courierID)
	}

	id := courierID
	o.courierID = &id

	if o.status.CanTransitionTo(Assigned) {
		o.apply(Assigned, actor, message, now)
		return outcome, nil
	}

	o.history = append(o.history, HistoryEntry{
		Status:    o.status,
		Message:   message,
		Timestamp: now,
		UpdatedBy: actor.ID,
	})
	o.updatedAt = now
	return outcome, nil
}

// ValidateCompletePickup checks the deferred completion precondition.
func (o *Order) ValidateCompletePickup() error {
	if o.orderType != TypePickup {
		return errs.NewValueIsInvalidErrorWithCause("order type is invalid",
			fmt.Errorf("%s orders are not completed by timer", o.orderType))
	}
	if o.status.IsTerminal() {
		return errs.NewOrderClosedError(o.id, o.status)
	}
	if o.status != PickedUp {
		return errs.NewInvalidTransitionErrorWithCause(o.status, Completed, errors.New("order is no longer picked up"))
	}
	return nil
}

// CompletePickup applies the deferred picked_up -> completed transition of pickup orders.
func (o *Order) CompletePickup(now time.Time) error {
	if err := o.ValidateCompletePickup(); err != nil {
		return err
	}

	o.apply(Completed, SystemActor(), "pickup completed", now)
	return nil
}

// RecordCourierLocation stores the courier position on a delivery order.
// Returns false for other order types and for closed orders.
func (o *Order) RecordCourierLocation(loc kernel.Location, now time.Time) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	if o.delivery == nil || o.status.IsTerminal() {
		return false, nil
	}
	o.delivery.CourierLocation = &CourierLocation{Location: loc, UpdatedAt: now}
	o.updatedAt = now
	return true, nil
}

func (o *Order) apply(target Status, actor Actor, message string, now time.Time) {
	o.status = target
	o.history = append(o.history, HistoryEntry{
		Status:    target,
		Message:   message,
		Timestamp: now,
		UpdatedBy: actor.ID,
	})
	o.updatedAt = now

	switch target {
	case Assigned:
		if o.courierFlow.AcceptedAt == nil {
			o.courierFlow.AcceptedAt = timePtr(now)
		}
	case PickedUp:
		o.courierFlow.PickedUpAt = timePtr(now)
	case Delivered:
		o.courierFlow.DeliveredAt = timePtr(now)
	case Cancelled:
		o.courierFlow.CancelledAt = timePtr(now)
	default:
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setType(t Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	o.orderType = t
	return nil
}

func (o *Order) setBranch(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("branchId", err)
	}
	o.branchID = id
	return nil
}

func (o *Order) setCustomer(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerId", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setTotal(total int64) error {
	if total < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total is invalid", fmt.Errorf("%d is negative", total))
	}
	o.total = total
	return nil
}

// setDestination creates delivery info for delivery orders only. A missing
// destination is allowed; geofence checks against it are then skipped.
func (o *Order) setDestination(t Type, destination *kernel.Location) error {
	if t != TypeDelivery {
		return nil
	}
	o.delivery = &DeliveryInfo{}
	if destination == nil {
		return nil
	}
	if err := destination.Validate(); err != nil {
		return err
	}
	d := *destination
	o.delivery.Destination = &d
	return nil
}
