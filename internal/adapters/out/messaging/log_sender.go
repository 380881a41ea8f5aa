package messaging

import (
	"context"
	"log/slog"

	"orderflow/internal/core/ports"
)

// LogSender writes notifications to the log. It stands in for FCM when no
// credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "log_sender")}
}

func (s *LogSender) Send(ctx context.Context, msg ports.Message) error {
	s.logger.InfoContext(ctx, "notification",
		"audience", string(msg.Audience),
		"recipient", msg.Recipient.String(),
		"title", msg.Title,
		"body", msg.Body,
	)
	return nil
}
