package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEventType identifies an order lifecycle event.
type OrderEventType string

const (
	EventOrderPlaced           OrderEventType = "order.placed"
	EventOrderStatusChanged    OrderEventType = "order.status_changed"
	EventOrderDeliveryAssigned OrderEventType = "order.delivery_assigned"
	EventOrderDeleted          OrderEventType = "order.deleted"
)

// OrderEvent is published after an order transition commits.
type OrderEvent struct {
	Type           OrderEventType  `json:"type"`
	OrderID        int64           `json:"order_id"`
	UserID         int64           `json:"user_id"`
	DeliveryCrewID *int64          `json:"delivery_crew_id,omitempty"`
	Status         bool            `json:"status"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count,omitempty"`
	ActorID        int64           `json:"actor_id"`
	RequestID      string          `json:"request_id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NewOrderEvent builds an event from the order's current state.
func NewOrderEvent(eventType OrderEventType, order Order, actorID int64, requestID string) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		DeliveryCrewID: order.DeliveryCrewID,
		Status:         order.Status,
		Total:          order.Total,
		ActorID:        actorID,
		RequestID:      requestID,
		Timestamp:      time.Now().UTC(),
	}
}

// RoutingKey returns the topic routing key for the event.
func (e OrderEvent) RoutingKey() string {
	return string(e.Type)
}
