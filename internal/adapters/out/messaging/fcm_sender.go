// Package messaging delivers rendered notifications to people.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"orderflow/internal/core/ports"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// fcmClient is the part of *messaging.Client the sender uses.
type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender pushes notifications through Firebase Cloud Messaging. Every
// person's devices subscribe to the topic "user_<id>", so the sender needs
// no token lookup.
type FCMSender struct {
	client fcmClient
	logger *slog.Logger
}

// NewFCMSender initializes a Firebase app from a service account file.
func NewFCMSender(ctx context.Context, credentialsFile string, logger *slog.Logger) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return newFCMSender(client, logger), nil
}

func newFCMSender(client fcmClient, logger *slog.Logger) *FCMSender {
	return &FCMSender{client: client, logger: logger.With("component", "fcm_sender")}
}

func (s *FCMSender) Send(ctx context.Context, msg ports.Message) error {
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["audience"] = string(msg.Audience)

	id, err := s.client.Send(ctx, &messaging.Message{
		Topic: Topic(msg),
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "notification sent", "topic", Topic(msg), "message_id", id)
	return nil
}

// Topic is the FCM topic of the recipient.
func Topic(msg ports.Message) string {
	return "user_" + msg.Recipient.String()
}
