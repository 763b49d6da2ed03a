// Package order implements the order workflow: placing an order from a
// cart, listing and viewing orders, status changes, delivery crew
// assignment and deletion.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"little-lemon/internal/apperr"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/policy"
	"little-lemon/internal/store"
	"little-lemon/internal/validation"
)

// Publisher receives order events after their transaction commits.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

type Service struct {
	store     store.Store
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewService builds the order service. publisher may be nil, in which case
// no events are emitted.
func NewService(st store.Store, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		store:     st,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// PlaceOrder converts the requester's cart into an order in one
// transaction. The cart lines are locked first, so two concurrent calls
// cannot both consume the same cart: the loser sees an empty cart.
func (s *Service) PlaceOrder(ctx context.Context, requester models.Requester) (*models.OrderDetail, error) {
	if err := policy.Check(requester, policy.OrderPlace, policy.Ownership{IsOwner: true}); err != nil {
		return nil, err
	}

	var detail models.OrderDetail
	err := s.store.InTx(ctx, func(q store.Queries) error {
		lines, err := q.LockCartLines(ctx, requester.User.ID)
		if err != nil {
			return fmt.Errorf("lock cart lines: %w", err)
		}
		if len(lines) == 0 {
			return apperr.EmptyCartError{}
		}

		order := models.Order{
			UserID: requester.User.ID,
			Status: false,
			Total:  models.CartTotal(lines),
			Date:   models.NewDate(s.now()),
		}
		if order.Total.GreaterThan(models.MaxAmount) {
			return totalTooLarge()
		}
		if err := q.InsertOrder(ctx, &order); err != nil {
			if errors.Is(err, store.ErrOutOfRange) {
				return totalTooLarge()
			}
			return fmt.Errorf("insert order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := models.OrderItemFromCartLine(order.ID, line)
			if err := q.InsertOrderItem(ctx, &item); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return apperr.ConflictError{Message: fmt.Sprintf("menu item %d appears twice in the order", line.MenuItemID)}
				}
				return fmt.Errorf("insert order item: %w", err)
			}
			items = append(items, item)
		}

		// Only the locked lines become order items, so only they leave the
		// cart. A line added concurrently stays for the next order.
		ids := make([]int64, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ID)
		}
		if _, err := q.DeleteCartLinesByID(ctx, ids); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		detail = models.OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_placed", "Order placed", logger.RequestID(ctx), map[string]interface{}{
		"order_id":   detail.Order.ID,
		"user_id":    detail.Order.UserID,
		"total":      detail.Order.Total.StringFixed(2),
		"item_count": len(detail.Items),
	})
	event := models.NewOrderEvent(models.EventOrderPlaced, detail.Order, requester.User.ID, logger.RequestID(ctx))
	event.ItemCount = len(detail.Items)
	s.publish(ctx, event)

	return &detail, nil
}

// ListOrders returns the orders visible to the requester.
func (s *Service) ListOrders(ctx context.Context, requester models.Requester) ([]models.Order, error) {
	if err := policy.Check(requester, policy.OrderList, policy.Ownership{IsOwner: true}); err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrders(ctx, policy.OrderScope(requester))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns an order with its items and their menu items.
func (s *Service) GetOrder(ctx context.Context, requester models.Requester, orderID int64) (*models.OrderDetail, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, orderID)
	}
	if err := policy.Check(requester, policy.OrderView, policy.OwnershipOf(requester, *order)); err != nil {
		return nil, err
	}

	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &models.OrderDetail{Order: *order, Items: items}, nil
}

// ToggleStatus flips the order between in progress and delivered. The
// order row is locked for the read-modify-write so concurrent toggles are
// applied one after another.
func (s *Service) ToggleStatus(ctx context.Context, requester models.Requester, orderID int64) (*models.Order, error) {
	var updated models.Order
	err := s.store.InTx(ctx, func(q store.Queries) error {
		order, err := q.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, orderID)
		}
		if err := policy.Check(requester, policy.OrderToggle, policy.OwnershipOf(requester, *order)); err != nil {
			return err
		}

		order.Status = !order.Status
		if err := q.UpdateOrderStatus(ctx, orderID, order.Status); err != nil {
			return notFound(err, orderID)
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_status_changed", "Order status changed", logger.RequestID(ctx), map[string]interface{}{
		"order_id":   orderID,
		"status":     updated.Status,
		"actor_id":   requester.User.ID,
		"actor_role": requester.Roles.String(),
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderStatusChanged, updated, requester.User.ID, logger.RequestID(ctx)))

	return &updated, nil
}

// AssignDeliveryCrew sets the order's delivery crew to the user named in
// req. Only managers may assign. The order is left unchanged on any error.
func (s *Service) AssignDeliveryCrew(ctx context.Context, requester models.Requester, orderID int64, req models.AssignDeliveryCrewRequest) (*models.Order, error) {
	if err := policy.Check(requester, policy.OrderAssignCrew, policy.Ownership{}); err != nil {
		return nil, err
	}
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	var updated models.Order
	err := s.store.InTx(ctx, func(q store.Queries) error {
		order, err := q.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, orderID)
		}

		crew, err := q.UserByUsername(ctx, req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFoundError{Resource: "user", Key: req.Username}
			}
			return fmt.Errorf("get delivery crew: %w", err)
		}

		if err := q.UpdateOrderDeliveryCrew(ctx, orderID, crew.ID); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperr.ConflictError{Message: fmt.Sprintf("%s is already assigned to another order of this customer", crew.Username)}
			}
			return notFound(err, orderID)
		}

		crewID := crew.ID
		order.DeliveryCrewID = &crewID
		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order_crew_assigned", "Delivery crew assigned", logger.RequestID(ctx), map[string]interface{}{
		"order_id":         orderID,
		"delivery_crew_id": *updated.DeliveryCrewID,
		"actor_id":         requester.User.ID,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderDeliveryAssigned, updated, requester.User.ID, logger.RequestID(ctx)))

	return &updated, nil
}

// DeleteOrder removes an order and its items. Only managers may delete.
func (s *Service) DeleteOrder(ctx context.Context, requester models.Requester, orderID int64) error {
	if err := policy.Check(requester, policy.OrderDelete, policy.Ownership{}); err != nil {
		return err
	}

	var deleted models.Order
	err := s.store.InTx(ctx, func(q store.Queries) error {
		order, err := q.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, orderID)
		}
		if err := q.DeleteOrder(ctx, orderID); err != nil {
			return notFound(err, orderID)
		}
		deleted = *order
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("order_deleted", "Order deleted", logger.RequestID(ctx), map[string]interface{}{
		"order_id": orderID,
		"actor_id": requester.User.ID,
	})
	s.publish(ctx, models.NewOrderEvent(models.EventOrderDeleted, deleted, requester.User.ID, logger.RequestID(ctx)))

	return nil
}

// publish is best effort: the state change has already committed, so a
// broker failure is logged and not returned.
func (s *Service) publish(ctx context.Context, event models.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("order_event_publish_failed", "Failed to publish order event", logger.RequestID(ctx), err, map[string]interface{}{
			"order_id":   event.OrderID,
			"event_type": string(event.Type),
		})
	}
}

func totalTooLarge() error {
	return apperr.ValidationError{
		Field:   "total",
		Message: fmt.Sprintf("order total exceeds the maximum of %s", models.MaxAmount.StringFixed(2)),
	}
}

func notFound(err error, orderID int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundError{Resource: "order", Key: orderID}
	}
	return err
}
