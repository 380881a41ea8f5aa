package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// SessionRecord is the analytics record written when a tracking session closes.
type SessionRecord struct {
	OrderID    kernel.UUID
	ObserverID kernel.UUID
	Source     string
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
	EndReason  string
}

// SessionArchive stores closed tracking sessions.
type SessionArchive interface {
	Archive(ctx context.Context, record SessionRecord) error
}
