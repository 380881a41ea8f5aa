package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
)

// Audience is who a notification is meant for.
type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceCourier  Audience = "courier"
	AudienceObserver Audience = "observer"
)

// Message is a rendered notification for one recipient.
type Message struct {
	Audience  Audience
	Recipient kernel.UUID
	Title     string
	Body      string
	Data      map[string]string
}

// MessageSender delivers rendered notifications through the bot transport.
// Failures are reported but never roll back the state change that caused them.
type MessageSender interface {
	Send(ctx context.Context, message Message) error
}
