package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// DefaultPickupCompletionDelay is how long a picked up pickup order waits
// before it is completed.
const DefaultPickupCompletionDelay = 5 * time.Minute

type pickupCompleter interface {
	Handle(ctx context.Context, cmd commands.CompletePickupOrderCommand) error
}

// PickupCompletionScheduler arms one timer per pickup order that reaches
// picked_up. It is registered as a post-commit hook.
type PickupCompletionScheduler struct {
	mu      sync.Mutex
	timers  map[kernel.UUID]*time.Timer
	stopped bool

	handler pickupCompleter
	delay   time.Duration
	wg      sync.WaitGroup
	logger  *slog.Logger
}

func NewPickupCompletionScheduler(handler pickupCompleter, delay time.Duration, logger *slog.Logger) *PickupCompletionScheduler {
	if delay <= 0 {
		delay = DefaultPickupCompletionDelay
	}
	return &PickupCompletionScheduler{
		timers:  make(map[kernel.UUID]*time.Timer),
		handler: handler,
		delay:   delay,
		logger:  logger.With("component", "pickup_completion_scheduler"),
	}
}

// OnOrderChanged implements ports.OrderChangeHook.
func (s *PickupCompletionScheduler) OnOrderChanged(ctx context.Context, change ports.OrderChange) error {
	if change.Order.Type != order.TypePickup {
		return nil
	}

	switch {
	case change.Order.Status == order.PickedUp && change.StatusChanged():
		s.arm(ctx, change.Order.ID)
	case change.Order.Status.IsTerminal():
		s.disarm(change.Order.ID)
	}
	return nil
}

// Pending counts armed timers.
func (s *PickupCompletionScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer and waits for running completions.
func (s *PickupCompletionScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *PickupCompletionScheduler) arm(ctx context.Context, orderID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
	}

	s.timers[orderID] = time.AfterFunc(s.delay, func() { s.fire(orderID) })
	s.logger.DebugContext(ctx, "pickup completion armed", "order_id", orderID.String(), "delay", s.delay.String())
}

func (s *PickupCompletionScheduler) disarm(orderID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[orderID]; ok {
		t.Stop()
		delete(s.timers, orderID)
	}
}

func (s *PickupCompletionScheduler) fire(orderID kernel.UUID) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, orderID)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx := context.Background()
	cmd, err := commands.NewCompletePickupOrderCommand(orderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "invalid pickup completion", "order_id", orderID.String(), "error", err)
		return
	}

	err = s.handler.Handle(ctx, cmd)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "pickup order completed", "order_id", orderID.String())
	case errors.Is(err, errs.ErrOrderClosed), errors.Is(err, errs.ErrInvalidTransition):
		// the order moved on while the timer was pending
		s.logger.DebugContext(ctx, "pickup completion skipped", "order_id", orderID.String(), "reason", err)
	default:
		s.logger.ErrorContext(ctx, "pickup completion failed", "order_id", orderID.String(), "error", err)
	}
}
