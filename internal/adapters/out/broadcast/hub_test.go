package broadcast_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/adapters/out/broadcast"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSink struct{ mock.Mock }

func (m *MockSink) Name() string { return "mock" }

func (m *MockSink) Relay(ctx context.Context, env broadcast.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newHub(opts ...broadcast.HubOption) *broadcast.Hub {
	opts = append([]broadcast.HubOption{broadcast.WithClock(func() time.Time { return fixedNow })}, opts...)
	return broadcast.NewHub(slog.New(slog.DiscardHandler), opts...)
}

func receive(t *testing.T, sub *broadcast.Subscription) broadcast.Envelope {
	t.Helper()
	select {
	case env := <-sub.C():
		return env
	case <-time.After(time.Second):
		t.Fatalf("no envelope on %s", sub.Room())
		return broadcast.Envelope{}
	}
}

func assertEmpty(t *testing.T, sub *broadcast.Subscription) {
	t.Helper()
	select {
	case env := <-sub.C():
		t.Fatalf("unexpected envelope %s on %s", env.Event, sub.Room())
	default:
	}
}

func TestRooms(t *testing.T) {
	orderID, branchID, userID := kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()

	tests := []struct {
		name  string
		event ports.Event
		want  []string
	}{
		{
			name:  "order updated goes to order and branch, mirrored",
			event: ports.Event{Name: ports.EventOrderUpdated, Keys: ports.RoomKeys{OrderID: &orderID, BranchID: &branchID}},
			want:  []string{"order:" + orderID.String(), "branch:" + branchID.String(), broadcast.DefaultBranchRoom},
		},
		{
			name:  "status updated is mirrored",
			event: ports.Event{Name: ports.EventOrderStatusUpdated, Keys: ports.RoomKeys{BranchID: &branchID}},
			want:  []string{"branch:" + branchID.String(), broadcast.DefaultBranchRoom},
		},
		{
			name:  "new order is mirrored",
			event: ports.Event{Name: ports.EventNewOrder, Keys: ports.RoomKeys{BranchID: &branchID}},
			want:  []string{"branch:" + branchID.String(), broadcast.DefaultBranchRoom},
		},
		{
			name:  "customer arrived is mirrored",
			event: ports.Event{Name: ports.EventCustomerArrived, Keys: ports.RoomKeys{BranchID: &branchID}},
			want:  []string{"branch:" + branchID.String(), broadcast.DefaultBranchRoom},
		},
		{
			name:  "courier location is mirrored",
			event: ports.Event{Name: ports.EventCourierLocation, Keys: ports.RoomKeys{BranchID: &branchID}},
			want:  []string{"branch:" + branchID.String(), broadcast.DefaultBranchRoom},
		},
		{
			name:  "session ended goes to the user",
			event: ports.Event{Name: ports.EventTrackingSessionEnded, Keys: ports.RoomKeys{UserID: &userID}},
			want:  []string{"user:" + userID.String()},
		},
		{
			name:  "order-only event is not mirrored",
			event: ports.Event{Name: ports.EventOrderUpdated, Keys: ports.RoomKeys{OrderID: &orderID}},
			want:  []string{"order:" + orderID.String()},
		},
		{
			name:  "no keys",
			event: ports.Event{Name: ports.EventOrderUpdated},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, broadcast.Rooms(tt.event))
		})
	}
}

func TestValidRoom(t *testing.T) {
	id := kernel.NewUUID().String()

	assert.True(t, broadcast.ValidRoom("order:"+id))
	assert.True(t, broadcast.ValidRoom("branch:"+id))
	assert.True(t, broadcast.ValidRoom("user:"+id))
	assert.True(t, broadcast.ValidRoom("branch:default"))
	assert.False(t, broadcast.ValidRoom("order:default"))
	assert.False(t, broadcast.ValidRoom("kitchen:"+id))
	assert.False(t, broadcast.ValidRoom(""))
}

func TestHub_PublishWithoutSubscribersIsNoop(t *testing.T) {
	branchID := kernel.NewUUID()

	err := newHub().Publish(t.Context(), ports.Event{
		Name:    ports.EventNewOrder,
		Keys:    ports.RoomKeys{BranchID: &branchID},
		Payload: map[string]string{"orderId": "x"},
	})

	assert.NoError(t, err)
}

func TestHub_FansOutWithTimestampAndMirror(t *testing.T) {
	hub := newHub()
	branchID := kernel.NewUUID()
	branch := hub.Subscribe(broadcast.BranchRoom(branchID))
	defer branch.Close()
	overview := hub.Subscribe(broadcast.DefaultBranchRoom)
	defer overview.Close()
	otherBranch := hub.Subscribe(broadcast.BranchRoom(kernel.NewUUID()))
	defer otherBranch.Close()

	err := hub.Publish(t.Context(), ports.Event{
		Name:    ports.EventOrderStatusUpdated,
		Keys:    ports.RoomKeys{BranchID: &branchID},
		Payload: map[string]string{"status": "ready"},
	})
	require.NoError(t, err)

	got := receive(t, branch)
	assert.Equal(t, ports.EventOrderStatusUpdated, got.Event)
	assert.Equal(t, broadcast.BranchRoom(branchID), got.Room)
	assert.Equal(t, fixedNow, got.Timestamp)
	assert.JSONEq(t, `{"status":"ready"}`, string(got.Data))

	mirror := receive(t, overview)
	assert.Equal(t, broadcast.DefaultBranchRoom, mirror.Room)
	assert.Equal(t, got.Timestamp, mirror.Timestamp)

	assertEmpty(t, otherBranch)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newHub(broadcast.WithBuffer(1))
	orderID := kernel.NewUUID()
	slow := hub.Subscribe(broadcast.OrderRoom(orderID))
	defer slow.Close()

	event := ports.Event{Name: ports.EventOrderUpdated, Keys: ports.RoomKeys{OrderID: &orderID}, Payload: 1}
	done := make(chan struct{})
	go func() {
		for range 5 {
			_ = hub.Publish(t.Context(), event)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, uint64(4), slow.Dropped())
	receive(t, slow)
}

func TestHub_SinkFailureStillServesLocalSubscribers(t *testing.T) {
	sink := new(MockSink)
	sink.On("Relay", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	hub := newHub(broadcast.WithSink(sink))

	orderID := kernel.NewUUID()
	sub := hub.Subscribe(broadcast.OrderRoom(orderID))
	defer sub.Close()

	err := hub.Publish(t.Context(), ports.Event{Name: ports.EventOrderUpdated, Keys: ports.RoomKeys{OrderID: &orderID}, Payload: 1})

	require.ErrorIs(t, err, errs.ErrBroadcastUnavailable)
	receive(t, sub)
}

func TestHub_RelaysEveryRoom(t *testing.T) {
	sink := new(MockSink)
	sink.On("Relay", mock.Anything, mock.MatchedBy(func(env broadcast.Envelope) bool {
		return env.Event == ports.EventNewOrder
	})).Return(nil).Twice()
	hub := newHub(broadcast.WithSink(sink))
	branchID := kernel.NewUUID()

	err := hub.Publish(t.Context(), ports.Event{Name: ports.EventNewOrder, Keys: ports.RoomKeys{BranchID: &branchID}, Payload: 1})

	require.NoError(t, err)
	sink.AssertExpectations(t)
}

func TestHub_UnmarshalablePayload(t *testing.T) {
	orderID := kernel.NewUUID()

	err := newHub().Publish(t.Context(), ports.Event{
		Name:    ports.EventOrderUpdated,
		Keys:    ports.RoomKeys{OrderID: &orderID},
		Payload: make(chan int),
	})

	assert.Error(t, err)
}

func TestSubscription_CloseTwiceAndCleanup(t *testing.T) {
	hub := newHub()
	room := broadcast.UserRoom(kernel.NewUUID())
	sub := hub.Subscribe(room)
	require.Equal(t, 1, hub.Subscribers(room))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers(room))
	_, open := <-sub.C()
	assert.False(t, open)
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	hub := newHub()
	orderID := kernel.NewUUID()
	event := ports.Event{Name: ports.EventOrderUpdated, Keys: ports.RoomKeys{OrderID: &orderID}, Payload: 1}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = hub.Publish(context.Background(), event)
			}
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				sub := hub.Subscribe(broadcast.OrderRoom(orderID))
				sub.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.Subscribers(broadcast.OrderRoom(orderID)))
}

func TestEnvelope_JSON(t *testing.T) {
	env := broadcast.Envelope{
		Event:     ports.EventCourierLocation,
		Room:      "branch:default",
		Timestamp: fixedNow,
		Data:      json.RawMessage(`{"courierId":"c"}`),
	}

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	assert.JSONEq(t, `{"event":"courier:location","room":"branch:default","timestamp":"2025-03-01T09:30:00Z","data":{"courierId":"c"}}`, string(raw))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "branch.default", broadcast.RoutingKey("branch:default"))
	assert.Equal(t, "plain", broadcast.RoutingKey("plain"))
}
