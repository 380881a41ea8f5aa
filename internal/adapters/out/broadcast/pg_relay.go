package broadcast

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"

	"github.com/lib/pq"
)

// maxNotifyPayload is the PostgreSQL NOTIFY payload limit.
const maxNotifyPayload = 8000

// notification is the NOTIFY payload exchanged between hub processes.
type notification struct {
	Origin   string   `json:"origin"`
	Envelope Envelope `json:"envelope"`
}

// PGNotifyRelay forwards envelopes to other processes through pg_notify.
type PGNotifyRelay struct {
	db      *sql.DB
	channel string
	origin  string
}

// NewPGNotifyRelay publishes on channel. origin identifies this process so
// the matching PGListenBridge can skip its own notifications.
func NewPGNotifyRelay(db *sql.DB, channel, origin string) *PGNotifyRelay {
	return &PGNotifyRelay{db: db, channel: channel, origin: origin}
}

func (r *PGNotifyRelay) Name() string { return "pg_notify:" + r.channel }

func (r *PGNotifyRelay) Relay(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(notification{Origin: r.origin, Envelope: env})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if len(payload) > maxNotifyPayload {
		return fmt.Errorf("notification for %s is %d bytes, limit is %d", env.Room, len(payload), maxNotifyPayload)
	}

	_, err = r.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", r.channel, string(payload))
	return err
}

// PGListenBridge feeds notifications from other processes into the local hub.
type PGListenBridge struct {
	hub      *Hub
	listener *pq.Listener
	channel  string
	origin   string
	logger   *slog.Logger
}

// NewOrigin returns a random process identifier for relay/bridge pairs.
func NewOrigin() string {
	return kernel.NewUUID().String()
}

func NewPGListenBridge(hub *Hub, dsn, channel, origin string, logger *slog.Logger) *PGListenBridge {
	logger = logger.With("component", "pg_listen_bridge", "channel", channel)
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("listener event", "event", int(ev), "error", err)
		}
	})

	return &PGListenBridge{
		hub:      hub,
		listener: listener,
		channel:  channel,
		origin:   origin,
		logger:   logger,
	}
}

// Run listens until ctx is done.
func (b *PGListenBridge) Run(ctx context.Context) error {
	if err := b.listener.Listen(b.channel); err != nil {
		return fmt.Errorf("listen %s: %w", b.channel, err)
	}
	defer func() {
		_ = b.listener.Close()
	}()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-b.listener.Notify:
			// nil after a reconnect
			if n != nil {
				b.handle(n.Extra)
			}
		case <-ping.C:
			if err := b.listener.Ping(); err != nil {
				b.logger.WarnContext(ctx, "listener ping failed", "error", err)
			}
		}
	}
}

func (b *PGListenBridge) handle(payload string) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		b.logger.Warn("malformed notification", "error", err)
		return
	}
	if n.Origin == b.origin {
		return
	}
	b.hub.Deliver(n.Envelope)
}
