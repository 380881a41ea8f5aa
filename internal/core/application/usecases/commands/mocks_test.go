package commands_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetActiveByCourier(ctx context.Context, courierID kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockBranchDirectory struct{ mock.Mock }

func (m *MockBranchDirectory) Location(ctx context.Context, branchID kernel.UUID) (*kernel.Location, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*kernel.Location), args.Error(1)
}

type MockCourierDirectory struct{ mock.Mock }

func (m *MockCourierDirectory) Get(ctx context.Context, courierID kernel.UUID) (ports.CourierProfile, error) {
	args := m.Called(ctx, courierID)
	return args.Get(0).(ports.CourierProfile), args.Error(1)
}

func (m *MockCourierDirectory) ReportPresence(ctx context.Context, p ports.CourierPresence) (ports.CourierProfile, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(ports.CourierProfile), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event ports.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingHook keeps every change it receives.
type recordingHook struct {
	changes []ports.OrderChange
	err     error
}

func (h *recordingHook) OnOrderChanged(_ context.Context, change ports.OrderChange) error {
	h.changes = append(h.changes, change)
	return h.err
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func location(t *testing.T, lat, lon float64) kernel.Location {
	t.Helper()
	l, err := kernel.NewLocation(lat, lon)
	require.NoError(t, err)
	return l
}

// restoredOrder builds a stored order of the given type and status.
func restoredOrder(t *testing.T, typ order.Type, status order.Status, courierID *kernel.UUID) *order.Order {
	t.Helper()
	snapshot := order.Snapshot{
		ID:           kernel.NewUUID(),
		Number:       7,
		Type:         typ,
		BranchID:     kernel.NewUUID(),
		CustomerID:   kernel.NewUUID(),
		CourierID:    courierID,
		CustomerName: "Dilnoza",
		Total:        99000,
		TableNumber:  "12",
		Status:       status,
		History: []order.HistoryEntry{
			{Status: order.Pending, Message: "order created", Timestamp: testNow.Add(-time.Hour)},
		},
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
		Version:   1,
	}
	if typ == order.TypeDelivery {
		dest := location(t, 41.300, 69.250)
		snapshot.Delivery = &order.DeliveryInfo{Destination: &dest}
	}
	o, err := order.RestoreOrder(snapshot)
	require.NoError(t, err)
	return o
}

func adminActor(t *testing.T) order.Actor {
	t.Helper()
	a, err := order.NewActor(kernel.NewUUID(), order.RoleAdmin)
	require.NoError(t, err)
	return a
}

func courierActor(t *testing.T, id kernel.UUID) order.Actor {
	t.Helper()
	a, err := order.NewActor(id, order.RoleCourier)
	require.NoError(t, err)
	return a
}

// singleUoW wires a factory that hands out one unit of work over repo.
func singleUoW(repo *MockOrderRepository) (*MockOrderUoWFactory, *MockOrderUoW) {
	uow := new(MockOrderUoW)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("OrderRepository").Return(repo)
	uow.On("Commit", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow)
	return factory, uow
}
