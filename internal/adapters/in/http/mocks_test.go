package http_test

import (
	"context"

	"orderflow/internal/adapters/in/bot"
	"orderflow/internal/core/application/tracking"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/stretchr/testify/mock"
)

type MockOrderCreator struct{ mock.Mock }

func (m *MockOrderCreator) Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockStatusTransitioner struct{ mock.Mock }

func (m *MockStatusTransitioner) Handle(ctx context.Context, cmd commands.TransitionOrderStatusCommand) (commands.TransitionResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.TransitionResult), args.Error(1)
}

type MockCourierAssigner struct{ mock.Mock }

func (m *MockCourierAssigner) Handle(ctx context.Context, cmd commands.AssignCourierCommand) (commands.AssignCourierResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignCourierResult), args.Error(1)
}

type MockArrivalMarker struct{ mock.Mock }

func (m *MockArrivalMarker) Handle(ctx context.Context, cmd commands.MarkCustomerArrivedCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockLocationReporter struct{ mock.Mock }

func (m *MockLocationReporter) Handle(ctx context.Context, cmd commands.UpdateCourierLocationCommand) (commands.UpdateCourierLocationResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.UpdateCourierLocationResult), args.Error(1)
}

type MockOrderReader struct{ mock.Mock }

func (m *MockOrderReader) Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.OrderView), args.Error(1)
}

type MockActiveOrdersReader struct{ mock.Mock }

func (m *MockActiveOrdersReader) Handle(ctx context.Context, query queries.GetActiveOrdersQuery) ([]queries.ActiveOrderView, error) {
	args := m.Called(ctx, query)
	views, _ := args.Get(0).([]queries.ActiveOrderView)
	return views, args.Error(1)
}

type MockTrackingSessions struct{ mock.Mock }

func (m *MockTrackingSessions) Start(orderID, observerID kernel.UUID, source tracking.Source) (tracking.Session, error) {
	args := m.Called(orderID, observerID, source)
	return args.Get(0).(tracking.Session), args.Error(1)
}

func (m *MockTrackingSessions) Stop(ctx context.Context, orderID, observerID kernel.UUID) bool {
	return m.Called(ctx, orderID, observerID).Bool(0)
}

type MockBotCallbacks struct{ mock.Mock }

func (m *MockBotCallbacks) Handle(ctx context.Context, cb bot.Callback) (bot.Result, error) {
	args := m.Called(ctx, cb)
	return args.Get(0).(bot.Result), args.Error(1)
}
