package commands_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"orderflow/internal/core/application/events"
	"orderflow/internal/core/application/notifications"
	"orderflow/internal/core/application/tracking"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOrders is an in-memory repository with the same conditional write
// semantics as the postgres one.
type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]order.Snapshot
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: make(map[string]order.Snapshot)}
}

func (r *memoryOrders) Add(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.MarkPersisted(1)
	r.orders[o.ID().String()] = o.Snapshot()
	return nil
}

func (r *memoryOrders) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID().String()]
	if !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	if stored.Status != o.PersistedStatus() || stored.Version != o.Version() {
		return errs.NewConcurrentUpdateError(o.ID(), o.PersistedStatus())
	}
	o.MarkPersisted(stored.Version + 1)
	r.orders[o.ID().String()] = o.Snapshot()
	return nil
}

func (r *memoryOrders) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(s)
}

func (r *memoryOrders) GetActiveByCourier(_ context.Context, courierID kernel.UUID) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*order.Order
	for _, s := range r.orders {
		if s.Status.IsTerminal() || !kernel.EqualPtr(s.CourierID, &courierID) {
			continue
		}
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

type memoryUoW struct{ repo *memoryOrders }

func (u memoryUoW) Begin(context.Context) error            { return nil }
func (u memoryUoW) Commit(context.Context) error           { return nil }
func (u memoryUoW) Rollback(context.Context) error         { return nil }
func (u memoryUoW) OrderRepository() ports.OrderRepository { return u.repo }
func (u memoryUoW) Create() commands.OrderUoW              { return u }

type staticBranches map[string]kernel.Location

func (b staticBranches) Location(_ context.Context, id kernel.UUID) (*kernel.Location, error) {
	loc, ok := b[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("branch", id.String())
	}
	return &loc, nil
}

type staticCouriers map[string]ports.CourierProfile

func (c staticCouriers) Get(_ context.Context, id kernel.UUID) (ports.CourierProfile, error) {
	p, ok := c[id.String()]
	if !ok {
		return ports.CourierProfile{}, errs.NewObjectNotFoundError("courier", id.String())
	}
	return p, nil
}

func (c staticCouriers) ReportPresence(_ context.Context, p ports.CourierPresence) (ports.CourierProfile, error) {
	profile := c[p.CourierID.String()]
	loc := p.Location
	profile.Location = &loc
	profile.IsOnline = true
	return profile, nil
}

type outbox struct {
	mu       sync.Mutex
	messages []ports.Message
	events   []ports.Event
	archived []ports.SessionRecord
}

func (o *outbox) Send(_ context.Context, m ports.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, m)
	return nil
}

func (o *outbox) Publish(_ context.Context, e ports.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
	return nil
}

func (o *outbox) Archive(_ context.Context, r ports.SessionRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.archived = append(o.archived, r)
	return nil
}

// drain returns the template names sent since the last call.
func (o *outbox) drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.messages))
	for _, m := range o.messages {
		names = append(names, m.Data["template"])
	}
	o.messages = nil
	return names
}

func (o *outbox) eventNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.events))
	for _, e := range o.events {
		names = append(names, e.Name)
	}
	return names
}

func Test_DeliveryOrderLifecycle(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.DiscardHandler)

	branchID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	branchLoc := location(t, 41.3110, 69.2400)
	destination := location(t, 41.3000, 69.2500)

	repo := newMemoryOrders()
	uow := memoryUoW{repo: repo}
	branches := staticBranches{branchID.String(): branchLoc}
	couriers := staticCouriers{courierID.String(): {ID: courierID, Name: "Aziz"}}
	box := &outbox{}

	dispatcher := notifications.NewDispatcher(box, couriers, logger)
	sessions := tracking.NewManager(dispatcher, box, box, logger)
	hooks := commands.NewPostCommitHooks(logger,
		events.NewBroadcaster(box, couriers, logger),
		dispatcher,
		sessions,
	)

	create := commands.NewCreateOrderCommandHandler(uow, hooks)
	transition := commands.NewTransitionOrderStatusCommandHandler(uow, branches, hooks, logger)
	assign := commands.NewAssignCourierCommandHandler(uow, couriers, hooks)

	admin := adminActor(t)
	courier := courierActor(t, courierID)

	move := func(target order.Status, actor order.Actor, geo *kernel.Location) commands.TransitionResult {
		t.Helper()
		cmd, err := commands.NewTransitionOrderStatusCommand(orderIDOf(t, repo), target, actor, "", geo)
		require.NoError(t, err)
		result, err := transition.Handle(ctx, cmd)
		require.NoError(t, err)
		return result
	}

	// create
	cmd, err := commands.NewCreateOrderCommand(order.Draft{
		ID:           kernel.NewUUID(),
		Number:       42,
		Type:         order.TypeDelivery,
		BranchID:     branchID,
		CustomerID:   kernel.NewUUID(),
		CustomerName: "Dilnoza",
		Total:        120000,
		Destination:  &destination,
	})
	require.NoError(t, err)
	created, err := create.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, order.Pending, created.Status())
	assert.Empty(t, box.drain())

	_, err = sessions.Start(created.ID(), created.CustomerID(), tracking.SourceCustomer)
	require.NoError(t, err)

	// confirm
	result := move(order.Confirmed, admin, nil)
	assert.True(t, result.Changed)
	assert.Equal(t, []string{"customer_confirmed"}, box.drain())

	// assign
	assignCmd, err := commands.NewAssignCourierCommand(created.ID(), courierID, admin)
	require.NoError(t, err)
	assigned, err := assign.Handle(ctx, assignCmd)
	require.NoError(t, err)
	assert.Equal(t, order.AssignmentNew, assigned.Outcome)
	assert.Equal(t, order.Assigned, assigned.Order.Status())
	assert.Equal(t, []string{"courier_assigned"}, box.drain())

	// pickup from 300 m away is refused with a warning
	far := location(t, 41.3137, 69.2400)
	result = move(order.PickedUp, courier, &far)
	require.NotNil(t, result.Warning)
	assert.False(t, result.Changed)
	assert.Equal(t, services.ReferenceBranch, result.Warning.Reference)
	assert.InDelta(t, 0.3, result.Warning.DistanceKm, 0.01)
	assert.InDelta(t, services.PickupRadiusKm, result.Warning.RequiredDistanceKm, 1e-9)
	assert.Equal(t, order.Assigned, statusOf(t, repo))

	// pickup from 50 m away succeeds
	near := location(t, 41.31145, 69.2400)
	result = move(order.PickedUp, courier, &near)
	assert.Nil(t, result.Warning)
	assert.True(t, result.Changed)
	assert.Equal(t, order.PickedUp, statusOf(t, repo))
	assert.Empty(t, box.drain())

	result = move(order.OnDelivery, courier, nil)
	assert.True(t, result.Changed)
	assert.Equal(t, []string{"customer_on_delivery"}, box.drain())

	// delivery from 500 m away is refused
	away := location(t, 41.3045, 69.2500)
	result = move(order.Delivered, courier, &away)
	require.NotNil(t, result.Warning)
	assert.Equal(t, services.ReferenceDestination, result.Warning.Reference)
	assert.InDelta(t, 0.5, result.Warning.DistanceKm, 0.01)
	assert.Equal(t, order.OnDelivery, statusOf(t, repo))
	assert.Len(t, sessions.Active(created.ID()), 1)

	// delivery at the door
	result = move(order.Delivered, courier, &destination)
	assert.True(t, result.Changed)
	assert.Equal(t, order.Delivered, result.Order.Status())
	assert.Equal(t, []string{"customer_delivered", "observer_session_ended"}, box.drain())

	assert.Empty(t, sessions.Active(created.ID()))
	require.Len(t, box.archived, 1)
	assert.Equal(t, string(tracking.ReasonOrderDelivered), box.archived[0].EndReason)

	names := box.eventNames()
	assert.Contains(t, names, ports.EventNewOrder)
	assert.Contains(t, names, ports.EventOrderStatusUpdated)
	assert.Contains(t, names, ports.EventTrackingSessionEnded)

	stored, err := repo.Get(ctx, created.ID())
	require.NoError(t, err)
	statuses := make([]order.Status, 0)
	for _, h := range stored.History() {
		statuses = append(statuses, h.Status)
	}
	assert.Equal(t, []order.Status{
		order.Pending, order.Confirmed, order.Assigned, order.PickedUp, order.OnDelivery, order.Delivered,
	}, statuses)

	// terminal orders refuse further changes
	closedCmd, err := commands.NewTransitionOrderStatusCommand(created.ID(), order.Cancelled, admin, "", nil)
	require.NoError(t, err)
	_, err = transition.Handle(ctx, closedCmd)
	assert.ErrorIs(t, err, errs.ErrOrderClosed)
}

func orderIDOf(t *testing.T, repo *memoryOrders) kernel.UUID {
	t.Helper()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.orders, 1)
	for _, s := range repo.orders {
		return s.ID
	}
	return kernel.UUID{}
}

func statusOf(t *testing.T, repo *memoryOrders) order.Status {
	t.Helper()
	o, err := repo.Get(t.Context(), orderIDOf(t, repo))
	require.NoError(t, err)
	return o.Status()
}

func Test_StaleLocationWriteDoesNotRevertReassignment(t *testing.T) {
	ctx := t.Context()
	logger := slog.New(slog.DiscardHandler)

	courierA := kernel.NewUUID()
	courierB := kernel.NewUUID()
	repo := newMemoryOrders()
	uow := memoryUoW{repo: repo}
	couriers := staticCouriers{
		courierA.String(): {ID: courierA, Name: "Aziz"},
		courierB.String(): {ID: courierB, Name: "Bekzod"},
	}
	hooks := commands.NewPostCommitHooks(logger)
	assign := commands.NewAssignCourierCommandHandler(uow, couriers, hooks)

	o := restoredOrder(t, order.TypeDelivery, order.Confirmed, nil)
	require.NoError(t, repo.Add(ctx, o))

	assignTo := func(courierID kernel.UUID) order.AssignmentOutcome {
		t.Helper()
		cmd, err := commands.NewAssignCourierCommand(o.ID(), courierID, adminActor(t))
		require.NoError(t, err)
		result, err := assign.Handle(ctx, cmd)
		require.NoError(t, err)
		return result.Outcome
	}

	require.Equal(t, order.AssignmentNew, assignTo(courierA))

	active, err := repo.GetActiveByCourier(ctx, courierA)
	require.NoError(t, err)
	require.Len(t, active, 1)
	stale := active[0]

	require.Equal(t, order.AssignmentChanged, assignTo(courierB))

	recorded, err := stale.RecordCourierLocation(location(t, 41.305, 69.245), testNow)
	require.NoError(t, err)
	require.True(t, recorded)
	err = repo.Update(ctx, stale)

	require.ErrorIs(t, err, errs.ErrConcurrentUpdate)
	current, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	require.NotNil(t, current.Courier())
	assert.True(t, current.Courier().IsEqual(courierB))
	assert.Nil(t, current.CourierPosition())
}
