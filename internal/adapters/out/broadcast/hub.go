package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Envelope is what subscribers and relays receive. Timestamp is set by the
// hub when the event is published.
type Envelope struct {
	Event     string          `json:"event"`
	Room      string          `json:"room"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Sink forwards envelopes beyond this process.
type Sink interface {
	Name() string
	Relay(ctx context.Context, env Envelope) error
}

// HubOption configures a Hub.
type HubOption func(*Hub)

func WithSink(s Sink) HubOption {
	return func(h *Hub) { h.sinks = append(h.sinks, s) }
}

func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// Hub implements ports.EventPublisher over in-memory rooms.
//
// Sends to subscribers never block: a subscriber whose queue is full misses
// that message. A room without subscribers swallows events.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	sinks  []Sink
	buffer int
	now    func() time.Time
	logger *slog.Logger
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		buffer: DefaultBuffer,
		now:    time.Now,
		logger: logger.With("component", "broadcast_hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers the event to every local subscriber of its rooms, then
// hands it to the relay sinks. Only sink failures are returned.
func (h *Hub) Publish(ctx context.Context, event ports.Event) error {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name, err)
	}

	ts := h.now().UTC()
	var relayErrs []error
	for _, room := range Rooms(event) {
		env := Envelope{Event: event.Name, Room: room, Timestamp: ts, Data: data}
		h.Deliver(env)

		for _, sink := range h.sinks {
			if sinkErr := sink.Relay(ctx, env); sinkErr != nil {
				relayErrs = append(relayErrs, errs.NewBroadcastUnavailableError(sink.Name(), sinkErr))
			}
		}
	}

	return errors.Join(relayErrs...)
}

// Deliver hands an envelope to local subscribers only. Bridges from other
// processes use it so that relayed events are not relayed again.
func (h *Hub) Deliver(env Envelope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.rooms[env.Room] {
		select {
		case sub.ch <- env:
			delivered++
		default:
			sub.dropped.Add(1)
		}
	}
	if n := len(h.rooms[env.Room]); delivered < n {
		h.logger.Debug("slow subscribers skipped", "room", env.Room, "event", env.Event, "skipped", n-delivered)
	}
	return delivered
}

// Subscribe attaches a new subscriber to room. Close it when done.
func (h *Hub) Subscribe(room string) *Subscription {
	sub := &Subscription{
		room: room,
		ch:   make(chan Envelope, h.buffer),
		hub:  h,
	}

	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Subscription]struct{})
	}
	h.rooms[room][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Subscribers counts the current subscribers of room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.rooms[sub.room]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.rooms, sub.room)
		}
	}
	close(sub.ch)
}

// Subscription is one listener on one room.
type Subscription struct {
	room    string
	ch      chan Envelope
	hub     *Hub
	once    sync.Once
	dropped atomic.Uint64
}

// C yields envelopes until Close is called.
func (s *Subscription) C() <-chan Envelope { return s.ch }

func (s *Subscription) Room() string { return s.room }

// Dropped counts envelopes skipped because the queue was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscription and closes C. It is safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}
