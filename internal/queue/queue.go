// Package queue publishes application events to a message broker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/observability"
)

// Routing keys.
const (
	KeyNotificationCreated = "notification.created"
	KeyReferralApplied     = "referral.applied"
)

// Publisher sends JSON events by routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NoOpPublisher drops every event. It is used when the queue is disabled.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, string, any) error { return nil }
func (NoOpPublisher) Close() error                               { return nil }

// AMQPPublisher publishes persistent messages to a topic exchange.
type AMQPPublisher struct {
	exchange string
	conn     *amqp.Connection

	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex
	ch *amqp.Channel
}

// NewAMQPPublisher connects to url and declares exchange as a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{exchange: exchange, conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) (err error) {
	defer func() { observability.RecordPublish(routingKey, err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	log.Info().Str("exchange", p.exchange).Msg("Shutting down queue publisher")

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil && !p.conn.IsClosed() {
		log.Warn().Err(err).Msg("close amqp channel")
	}
	return p.conn.Close()
}

var (
	_ Publisher = NoOpPublisher{}
	_ Publisher = (*AMQPPublisher)(nil)
)
