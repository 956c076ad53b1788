package app

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"drivepool/internal/config"
)

// NewRabbitConnection dials RabbitMQ for the enrichment pipeline.
func NewRabbitConnection(cfg config.RabbitConfig) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return conn, nil
}
