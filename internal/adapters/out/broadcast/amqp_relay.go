package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// amqpChannel is the part of *amqp.Channel the relay publishes with.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPRelay publishes envelopes to a RabbitMQ topic exchange with the room
// as routing key, so consumers can bind to e.g. "branch.*" or "order.#".
type AMQPRelay struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// NewAMQPRelay dials the broker and declares a durable topic exchange.
func NewAMQPRelay(amqpURL, exchange string) (*AMQPRelay, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPRelay{conn: conn, channel: channel, exchange: exchange}, nil
}

func newAMQPRelayWithChannel(channel amqpChannel, exchange string) *AMQPRelay {
	return &AMQPRelay{channel: channel, exchange: exchange}
}

func (r *AMQPRelay) Name() string { return "amqp:" + r.exchange }

// Relay publishes one envelope. amqp channels are not safe for concurrent
// publishing, hence the mutex.
func (r *AMQPRelay) Relay(_ context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.Publish(
		r.exchange,
		RoutingKey(env.Room),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    env.Timestamp,
			Type:         env.Event,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (r *AMQPRelay) Close() {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// RoutingKey turns "branch:<id>" into "branch.<id>" for topic bindings.
func RoutingKey(room string) string {
	for i := 0; i < len(room); i++ {
		if room[i] == ':' {
			return room[:i] + "." + room[i+1:]
		}
	}
	return room
}
