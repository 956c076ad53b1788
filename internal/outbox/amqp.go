package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	enrichmentExchange = "trips"
	enrichmentQueue    = "trip.enrichment"
	enrichmentKey      = "trip.completed"
)

// AMQPPublisher publishes enrichment messages to RabbitMQ.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher opens a channel and declares the enrichment topology.
func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// PublishEnrichment sends the message as persistent JSON.
func (p *AMQPPublisher) PublishEnrichment(ctx context.Context, msg EnrichmentMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, enrichmentExchange, enrichmentKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

// Close releases the publisher channel.
func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(enrichmentExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(enrichmentQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(enrichmentQueue, enrichmentKey, enrichmentExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

// Ensure AMQPPublisher implements Publisher.
var _ Publisher = (*AMQPPublisher)(nil)
