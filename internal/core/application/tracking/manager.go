package tracking

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"orderflow/internal/core/application/events"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
)

// SessionEndNotifier tells an observer that tracking stopped.
type SessionEndNotifier interface {
	NotifySessionEnded(ctx context.Context, record ports.SessionRecord) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the in-memory session table.
//
// Sessions move inactive -> active -> closed. A session is removed from the
// table under the lock before any close side effect runs, so each session is
// archived and announced at most once even when the terminal status change is
// delivered more than once.
//
// Example:
//
//	m := tracking.NewManager(dispatcher, hub, archive, logger)
//	m.Start(orderID, observerID, tracking.SourceCustomer)
//	hooks := commands.NewPostCommitHooks(logger, broadcaster, dispatcher, m)
type Manager struct {
	mu       sync.Mutex
	sessions map[key]*Session

	timeout   time.Duration
	notifier  SessionEndNotifier
	publisher ports.EventPublisher
	archive   ports.SessionArchive
	logger    *slog.Logger
	now       func() time.Time
}

func NewManager(
	notifier SessionEndNotifier,
	publisher ports.EventPublisher,
	archive ports.SessionArchive,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		sessions:  make(map[key]*Session),
		timeout:   DefaultTimeout,
		notifier:  notifier,
		publisher: publisher,
		archive:   archive,
		logger:    logger.With("component", "tracking_manager"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session, or refreshes the activity of an open one.
func (m *Manager) Start(orderID, observerID kernel.UUID, source Source) (Session, error) {
	if _, err := ParseSource(string(source)); err != nil {
		return Session{}, err
	}

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{orderID, observerID}
	if s, ok := m.sessions[k]; ok {
		s.LastActivity = now
		return *s, nil
	}

	s := &Session{
		OrderID:      orderID,
		ObserverID:   observerID,
		Source:       source,
		StartTime:    now,
		LastActivity: now,
		IsActive:     true,
	}
	m.sessions[k] = s
	return *s, nil
}

// Touch records observer activity. It reports false for unknown sessions.
func (m *Manager) Touch(orderID, observerID kernel.UUID) bool {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key{orderID, observerID}]
	if ok {
		s.LastActivity = now
	}
	return ok
}

// Stop closes one session at the observer's request.
func (m *Manager) Stop(ctx context.Context, orderID, observerID kernel.UUID) bool {
	now := m.now()
	m.mu.Lock()
	s, ok := m.sessions[key{orderID, observerID}]
	if ok {
		m.detach(s)
	}
	m.mu.Unlock()

	if ok {
		m.finish(ctx, *s, ReasonObserverStopped, now)
	}
	return ok
}

// Active lists the open sessions of an order, oldest first.
func (m *Manager) Active(orderID kernel.UUID) []Session {
	m.mu.Lock()
	out := make([]Session, 0)
	for k, s := range m.sessions {
		if k.orderID.IsEqual(orderID) {
			out = append(out, *s)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// OnOrderChanged implements ports.OrderChangeHook. Terminal statuses close
// every session of the order; activity on the order refreshes them.
func (m *Manager) OnOrderChanged(ctx context.Context, change ports.OrderChange) error {
	reason, terminal := reasonFor(change.Order.Status)
	now := m.now()
	m.mu.Lock()
	if !terminal {
		for k, s := range m.sessions {
			if k.orderID.IsEqual(change.Order.ID) {
				s.LastActivity = now
			}
		}
		m.mu.Unlock()
		return nil
	}

	closing := make([]Session, 0)
	for k, s := range m.sessions {
		if k.orderID.IsEqual(change.Order.ID) {
			m.detach(s)
			closing = append(closing, *s)
		}
	}
	m.mu.Unlock()

	for _, s := range closing {
		m.finish(ctx, s, reason, now)
	}
	return nil
}

// Sweep closes sessions idle for longer than the timeout and returns how
// many were closed.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	m.mu.Lock()
	closing := make([]Session, 0)
	for _, s := range m.sessions {
		if now.Sub(s.LastActivity) > m.timeout {
			m.detach(s)
			closing = append(closing, *s)
		}
	}
	m.mu.Unlock()

	for _, s := range closing {
		m.finish(ctx, s, ReasonSessionTimeout, now)
	}
	return len(closing)
}

// detach must be called with mu held.
func (m *Manager) detach(s *Session) {
	s.IsActive = false
	delete(m.sessions, key{s.OrderID, s.ObserverID})
}

// finish runs the close side effects outside the lock. Failures are logged only.
func (m *Manager) finish(ctx context.Context, s Session, reason EndReason, now time.Time) {
	record := ports.SessionRecord{
		OrderID:    s.OrderID,
		ObserverID: s.ObserverID,
		Source:     string(s.Source),
		StartedAt:  s.StartTime,
		EndedAt:    now,
		Duration:   now.Sub(s.StartTime),
		EndReason:  string(reason),
	}
	log := m.logger.With("order_id", s.OrderID.String(), "observer_id", s.ObserverID.String(), "reason", string(reason))

	if m.notifier != nil {
		if err := m.notifier.NotifySessionEnded(ctx, record); err != nil {
			log.WarnContext(ctx, "session ended notification failed", "error", err)
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, events.TrackingSessionEndedEvent(record)); err != nil {
			log.WarnContext(ctx, "session ended broadcast failed", "error", err)
		}
	}
	if m.archive != nil {
		if err := m.archive.Archive(ctx, record); err != nil {
			log.ErrorContext(ctx, "session archive failed", "error", err)
		}
	}

	log.InfoContext(ctx, "tracking session closed", "duration", record.Duration.String())
}
