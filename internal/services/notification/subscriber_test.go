package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"little-lemon/internal/logger"
	"little-lemon/internal/messaging"
	"little-lemon/internal/models"
)

type fakeSource struct {
	bodies [][]byte
	errs   []error
}

func (f *fakeSource) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	for _, b := range f.bodies {
		f.errs = append(f.errs, handler(ctx, b))
	}
	return nil
}

func TestFormatNotification(t *testing.T) {
	ts := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	crew := int64(4)

	tests := []struct {
		name  string
		event models.OrderEvent
		want  string
	}{
		{
			name:  "placed",
			event: models.OrderEvent{Type: models.EventOrderPlaced, OrderID: 7, UserID: 3, ItemCount: 2, Total: decimal.RequireFromString("43"), Timestamp: ts},
			want:  "[2024-03-09 18:30:00] Order 7 placed by user 3: 2 item(s), total 43.00.",
		},
		{
			name:  "delivered",
			event: models.OrderEvent{Type: models.EventOrderStatusChanged, OrderID: 7, Status: true, ActorID: 4, Timestamp: ts},
			want:  "[2024-03-09 18:30:00] Order 7 is now delivered (changed by user 4).",
		},
		{
			name:  "back in progress",
			event: models.OrderEvent{Type: models.EventOrderStatusChanged, OrderID: 7, ActorID: 1, Timestamp: ts},
			want:  "[2024-03-09 18:30:00] Order 7 is now in progress (changed by user 1).",
		},
		{
			name:  "assigned",
			event: models.OrderEvent{Type: models.EventOrderDeliveryAssigned, OrderID: 7, DeliveryCrewID: &crew, Timestamp: ts},
			want:  "[2024-03-09 18:30:00] Order 7 will be delivered by user 4.",
		},
		{
			name:  "deleted",
			event: models.OrderEvent{Type: models.EventOrderDeleted, OrderID: 7, Timestamp: ts},
			want:  "[2024-03-09 18:30:00] Order 7 has been deleted.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNotification(tt.event))
		})
	}
}

func TestSubscriberHandlesEvents(t *testing.T) {
	event := models.OrderEvent{
		Type:      models.EventOrderDeleted,
		OrderID:   12,
		Timestamp: time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC),
	}
	body, err := messaging.EncodeOrderEvent(event)
	require.NoError(t, err)

	source := &fakeSource{bodies: [][]byte{body, []byte("not json")}}
	var out bytes.Buffer
	sub := NewSubscriber(source, logger.Discard(), &out)

	require.NoError(t, sub.Start(context.Background()))
	require.Len(t, source.errs, 2)
	assert.NoError(t, source.errs[0])
	assert.Error(t, source.errs[1])
	assert.Equal(t, "[2024-03-09 18:30:00] Order 12 has been deleted.\n", out.String())
}

type blockingSource struct {
	started chan struct{}
}

func (b *blockingSource) StartConsuming(ctx context.Context, _ messaging.MessageHandler) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

type brokenSource struct{ err error }

func (b brokenSource) StartConsuming(context.Context, messaging.MessageHandler) error {
	return b.err
}

func TestStartReturnsNilOnShutdown(t *testing.T) {
	source := &blockingSource{started: make(chan struct{})}
	sub := NewSubscriber(source, logger.Discard(), &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	<-source.started
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop after cancel")
	}
}

func TestStartReportsConsumerFailure(t *testing.T) {
	sub := NewSubscriber(brokenSource{err: errors.New("failed to set QoS")}, logger.Discard(), &bytes.Buffer{})
	err := sub.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set QoS")

	// A cancellation error while ctx is still live is a real failure.
	sub = NewSubscriber(brokenSource{err: context.Canceled}, logger.Discard(), &bytes.Buffer{})
	assert.ErrorIs(t, sub.Start(context.Background()), context.Canceled)
}
