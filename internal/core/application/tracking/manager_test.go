package tracking_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/core/application/tracking"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifySessionEnded(ctx context.Context, record ports.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, event ports.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockSessionArchive struct{ mock.Mock }

func (m *MockSessionArchive) Archive(ctx context.Context, record ports.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	notifier  *MockNotifier
	publisher *MockEventPublisher
	archive   *MockSessionArchive
	clock     *clock
	manager   *tracking.Manager
}

func newFixture() *fixture {
	f := &fixture{
		notifier:  new(MockNotifier),
		publisher: new(MockEventPublisher),
		archive:   new(MockSessionArchive),
		clock:     &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.manager = tracking.NewManager(f.notifier, f.publisher, f.archive,
		slog.New(slog.DiscardHandler), tracking.WithClock(f.clock.Now))
	return f
}

func (f *fixture) expectClose(reason tracking.EndReason) {
	isReason := mock.MatchedBy(func(r ports.SessionRecord) bool { return r.EndReason == string(reason) })
	f.notifier.On("NotifySessionEnded", mock.Anything, isReason).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e ports.Event) bool {
		return e.Name == ports.EventTrackingSessionEnded
	})).Return(nil).Once()
	f.archive.On("Archive", mock.Anything, isReason).Return(nil).Once()
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.notifier.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.archive.AssertExpectations(t)
}

func terminalChange(orderID kernel.UUID, status order.Status) ports.OrderChange {
	return ports.OrderChange{
		Kind:           ports.ChangeStatus,
		Order:          order.Snapshot{ID: orderID, Status: status},
		PreviousStatus: order.OnDelivery,
	}
}

func TestParseSource(t *testing.T) {
	src, err := tracking.ParseSource("admin")
	require.NoError(t, err)
	assert.Equal(t, tracking.SourceAdmin, src)

	_, err = tracking.ParseSource("robot")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestManager_StartIsIdempotentPerObserver(t *testing.T) {
	f := newFixture()
	orderID, observerID := kernel.NewUUID(), kernel.NewUUID()

	first, err := f.manager.Start(orderID, observerID, tracking.SourceCustomer)
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	f.clock.Advance(time.Minute)
	second, err := f.manager.Start(orderID, observerID, tracking.SourceCustomer)
	require.NoError(t, err)

	assert.Equal(t, first.StartTime, second.StartTime)
	assert.Equal(t, first.StartTime.Add(time.Minute), second.LastActivity)
	assert.Len(t, f.manager.Active(orderID), 1)
}

func TestManager_StartRejectsUnknownSource(t *testing.T) {
	f := newFixture()

	_, err := f.manager.Start(kernel.NewUUID(), kernel.NewUUID(), tracking.Source("robot"))

	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestManager_TouchUnknownSession(t *testing.T) {
	f := newFixture()

	assert.False(t, f.manager.Touch(kernel.NewUUID(), kernel.NewUUID()))
}

func TestManager_DeliveredClosesEverySessionOnce(t *testing.T) {
	f := newFixture()
	orderID := kernel.NewUUID()
	other := kernel.NewUUID()

	_, err := f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceCustomer)
	require.NoError(t, err)
	_, err = f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceAdmin)
	require.NoError(t, err)
	_, err = f.manager.Start(other, kernel.NewUUID(), tracking.SourceCustomer)
	require.NoError(t, err)

	f.expectClose(tracking.ReasonOrderDelivered)
	f.expectClose(tracking.ReasonOrderDelivered)

	ctx := t.Context()
	require.NoError(t, f.manager.OnOrderChanged(ctx, terminalChange(orderID, order.Delivered)))
	// duplicate delivery of the same status change
	require.NoError(t, f.manager.OnOrderChanged(ctx, terminalChange(orderID, order.Delivered)))

	assert.Empty(t, f.manager.Active(orderID))
	assert.Len(t, f.manager.Active(other), 1)
	f.assertExpectations(t)
	f.archive.AssertNumberOfCalls(t, "Archive", 2)
}

func TestManager_ConcurrentTerminalEventsCloseOnce(t *testing.T) {
	f := newFixture()
	orderID, observerID := kernel.NewUUID(), kernel.NewUUID()
	_, err := f.manager.Start(orderID, observerID, tracking.SourceCustomer)
	require.NoError(t, err)

	f.expectClose(tracking.ReasonOrderCompleted)

	ctx := t.Context()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.manager.OnOrderChanged(ctx, terminalChange(orderID, order.Completed))
		}()
	}
	wg.Wait()

	f.assertExpectations(t)
	f.archive.AssertNumberOfCalls(t, "Archive", 1)
}

func TestManager_NonTerminalChangeKeepsSessions(t *testing.T) {
	f := newFixture()
	orderID := kernel.NewUUID()
	_, err := f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceCustomer)
	require.NoError(t, err)

	change := terminalChange(orderID, order.PickedUp)
	require.NoError(t, f.manager.OnOrderChanged(t.Context(), change))

	assert.Len(t, f.manager.Active(orderID), 1)
	f.archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}

func TestManager_OrderActivityDefersTimeout(t *testing.T) {
	f := newFixture()
	orderID, otherOrder := kernel.NewUUID(), kernel.NewUUID()
	_, err := f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceAdmin)
	require.NoError(t, err)
	_, err = f.manager.Start(otherOrder, kernel.NewUUID(), tracking.SourceAdmin)
	require.NoError(t, err)

	f.clock.Advance(100 * time.Minute)
	require.NoError(t, f.manager.OnOrderChanged(t.Context(), ports.OrderChange{
		Kind:  ports.ChangeCourierLocation,
		Order: order.Snapshot{ID: orderID, Status: order.OnDelivery},
	}))
	f.clock.Advance(30 * time.Minute)

	f.notifier.On("NotifySessionEnded", mock.Anything, mock.MatchedBy(func(r ports.SessionRecord) bool {
		return r.OrderID.IsEqual(otherOrder)
	})).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	f.archive.On("Archive", mock.Anything, mock.Anything).Return(nil).Once()

	assert.Equal(t, 1, f.manager.Sweep(t.Context()))
	require.Len(t, f.manager.Active(orderID), 1)
	assert.Equal(t, f.clock.Now().Add(-30*time.Minute), f.manager.Active(orderID)[0].LastActivity)
	f.assertExpectations(t)
}

func TestManager_CancelledReason(t *testing.T) {
	f := newFixture()
	orderID := kernel.NewUUID()
	_, err := f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceCourier)
	require.NoError(t, err)

	f.expectClose(tracking.ReasonOrderCancelled)

	require.NoError(t, f.manager.OnOrderChanged(t.Context(), terminalChange(orderID, order.Cancelled)))

	f.assertExpectations(t)
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	f := newFixture()
	idleOrder, busyOrder := kernel.NewUUID(), kernel.NewUUID()
	idleObserver, busyObserver := kernel.NewUUID(), kernel.NewUUID()

	_, err := f.manager.Start(idleOrder, idleObserver, tracking.SourceCustomer)
	require.NoError(t, err)
	_, err = f.manager.Start(busyOrder, busyObserver, tracking.SourceCustomer)
	require.NoError(t, err)

	f.clock.Advance(90 * time.Minute)
	require.True(t, f.manager.Touch(busyOrder, busyObserver))
	f.clock.Advance(31 * time.Minute)

	f.notifier.On("NotifySessionEnded", mock.Anything, mock.MatchedBy(func(r ports.SessionRecord) bool {
		return r.OrderID.IsEqual(idleOrder) &&
			r.EndReason == string(tracking.ReasonSessionTimeout) &&
			r.Duration == 121*time.Minute
	})).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
	f.archive.On("Archive", mock.Anything, mock.Anything).Return(nil).Once()

	closed := f.manager.Sweep(t.Context())

	assert.Equal(t, 1, closed)
	assert.Empty(t, f.manager.Active(idleOrder))
	assert.Len(t, f.manager.Active(busyOrder), 1)
	f.assertExpectations(t)
}

func TestManager_StopClosesOneSession(t *testing.T) {
	f := newFixture()
	orderID, observerID := kernel.NewUUID(), kernel.NewUUID()
	_, err := f.manager.Start(orderID, observerID, tracking.SourceAdmin)
	require.NoError(t, err)

	f.expectClose(tracking.ReasonObserverStopped)

	assert.True(t, f.manager.Stop(t.Context(), orderID, observerID))
	assert.False(t, f.manager.Stop(t.Context(), orderID, observerID))
	f.assertExpectations(t)
}

func TestManager_SideEffectFailuresAreSwallowed(t *testing.T) {
	f := newFixture()
	orderID := kernel.NewUUID()
	_, err := f.manager.Start(orderID, kernel.NewUUID(), tracking.SourceCustomer)
	require.NoError(t, err)

	f.notifier.On("NotifySessionEnded", mock.Anything, mock.Anything).Return(errors.New("fcm down")).Once()
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("amqp down")).Once()
	f.archive.On("Archive", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	err = f.manager.OnOrderChanged(t.Context(), terminalChange(orderID, order.Delivered))

	require.NoError(t, err)
	assert.Empty(t, f.manager.Active(orderID))
	f.assertExpectations(t)
}
