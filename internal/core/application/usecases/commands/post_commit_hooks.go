package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"orderflow/internal/core/ports"
)

// PostCommitHooks runs the registered hooks, in registration order, after a
// change is durably committed. A failing or panicking hook is logged and the
// remaining hooks still run.
//
// Example:
//
//	hooks := commands.NewPostCommitHooks(logger, broadcaster, dispatcher, trackingManager)
//	hooks.Register(pickupScheduler)
type PostCommitHooks struct {
	mu     sync.RWMutex
	hooks  []ports.OrderChangeHook
	logger *slog.Logger
}

func NewPostCommitHooks(logger *slog.Logger, hooks ...ports.OrderChangeHook) *PostCommitHooks {
	return &PostCommitHooks{
		hooks:  hooks,
		logger: logger.With("component", "post_commit_hooks"),
	}
}

// Register appends a hook. Hooks that depend on command handlers are
// registered after those handlers are built.
func (h *PostCommitHooks) Register(hook ports.OrderChangeHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Run invokes every hook for the change.
func (h *PostCommitHooks) Run(ctx context.Context, change ports.OrderChange) {
	if h == nil {
		return
	}

	h.mu.RLock()
	hooks := append([]ports.OrderChangeHook(nil), h.hooks...)
	h.mu.RUnlock()

	for _, hook := range hooks {
		if err := h.runOne(ctx, hook, change); err != nil {
			h.logger.WarnContext(ctx, "post-commit hook failed",
				"hook", fmt.Sprintf("%T", hook),
				"order_id", change.Order.ID.String(),
				"kind", string(change.Kind),
				"error", err,
			)
		}
	}
}

func (h *PostCommitHooks) runOne(ctx context.Context, hook ports.OrderChangeHook, change ports.OrderChange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return hook.OnOrderChanged(ctx, change)
}
