// Package notification consumes order events and prints a human-readable
// line for each one.
package notification

import (
	"context"
	"errors"
	"fmt"
	"io"

	"little-lemon/internal/logger"
	"little-lemon/internal/messaging"
	"little-lemon/internal/models"
)

// EventSource delivers raw event bodies to a handler until ctx is done.
type EventSource interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
}

// Subscriber handles notification messages
type Subscriber struct {
	source EventSource
	logger *logger.Logger
	out    io.Writer
}

// NewSubscriber creates a new notification subscriber writing to out
func NewSubscriber(source EventSource, log *logger.Logger, out io.Writer) *Subscriber {
	return &Subscriber{
		source: source,
		logger: log,
		out:    out,
	}
}

// Start blocks consuming events until ctx is cancelled. Cancellation is a
// clean stop and returns nil.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	if err := s.source.StartConsuming(ctx, s.handleNotification); err != nil {
		if ctx.Err() == nil || !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume order events: %w", err)
		}
	}

	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	return nil
}

// handleNotification processes one order event
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	event, err := messaging.DecodeOrderEvent(body)
	if err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", "", err, nil)
		return err
	}

	s.logger.Debug("notification_received", "Received order event", event.RequestID, map[string]interface{}{
		"order_id":   event.OrderID,
		"event_type": string(event.Type),
		"actor_id":   event.ActorID,
	})

	if _, err := fmt.Fprintln(s.out, formatNotification(event)); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	s.logger.Info("notification_displayed", "Notification displayed to user", event.RequestID, map[string]interface{}{
		"order_id":   event.OrderID,
		"user_id":    event.UserID,
		"event_type": string(event.Type),
		"timestamp":  event.Timestamp.Format("2006-01-02 15:04:05"),
	})
	return nil
}

func formatNotification(event models.OrderEvent) string {
	timestamp := event.Timestamp.Format("2006-01-02 15:04:05")

	switch event.Type {
	case models.EventOrderPlaced:
		return fmt.Sprintf("[%s] Order %d placed by user %d: %d item(s), total %s.",
			timestamp, event.OrderID, event.UserID, event.ItemCount, event.Total.StringFixed(2))
	case models.EventOrderStatusChanged:
		state := "in progress"
		if event.Status {
			state = "delivered"
		}
		return fmt.Sprintf("[%s] Order %d is now %s (changed by user %d).",
			timestamp, event.OrderID, state, event.ActorID)
	case models.EventOrderDeliveryAssigned:
		crew := "nobody"
		if event.DeliveryCrewID != nil {
			crew = fmt.Sprintf("user %d", *event.DeliveryCrewID)
		}
		return fmt.Sprintf("[%s] Order %d will be delivered by %s.",
			timestamp, event.OrderID, crew)
	case models.EventOrderDeleted:
		return fmt.Sprintf("[%s] Order %d has been deleted.", timestamp, event.OrderID)
	default:
		return fmt.Sprintf("[%s] Order %d: %s.", timestamp, event.OrderID, event.Type)
	}
}
