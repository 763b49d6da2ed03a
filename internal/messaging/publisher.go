package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"little-lemon/internal/logger"
	"little-lemon/internal/models"
)

// Publisher publishes order events to the topic exchange
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderEvent publishes a persistent order event routed by its type.
func (p *Publisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := EncodeOrderEvent(event)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    event.Timestamp,
		MessageId:    event.RequestID,
		Type:         string(event.Type),
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		p.conn.Exchange(),  // exchange
		event.RoutingKey(), // routing key
		false,              // mandatory
		false,              // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", p.conn.Exchange()),
			event.RequestID, err, map[string]interface{}{
				"routing_key": event.RoutingKey(),
				"order_id":    event.OrderID,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published %s event", event.Type),
		event.RequestID, map[string]interface{}{
			"routing_key":  event.RoutingKey(),
			"order_id":     event.OrderID,
			"message_size": len(body),
		})
	return nil
}

// EncodeOrderEvent serializes an event as sent on the wire.
func EncodeOrderEvent(event models.OrderEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return body, nil
}

// DecodeOrderEvent parses an event body.
func DecodeOrderEvent(body []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.OrderEvent{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return event, nil
}
