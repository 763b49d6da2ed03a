// Package cart manages each user's pending cart lines.
package cart

import (
	"context"
	"errors"
	"fmt"

	"little-lemon/internal/apperr"
	"little-lemon/internal/logger"
	"little-lemon/internal/models"
	"little-lemon/internal/policy"
	"little-lemon/internal/store"
	"little-lemon/internal/validation"
)

type Service struct {
	store  store.Store
	logger *logger.Logger
}

func NewService(st store.Store, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		logger: log,
	}
}

// ListItems returns the requester's own cart lines.
func (s *Service) ListItems(ctx context.Context, requester models.Requester) ([]models.CartLine, error) {
	if err := policy.Check(requester, policy.CartList, policy.Ownership{IsOwner: true}); err != nil {
		return nil, err
	}

	lines, err := s.store.ListCartLines(ctx, requester.User.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}

// AddItem prices the menu item at its current price and appends a line to
// the target user's cart. The target defaults to the requester; naming
// another user requires the manager role.
func (s *Service) AddItem(ctx context.Context, requester models.Requester, req models.AddCartItemRequest) (*models.CartLine, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	target, err := s.targetUser(ctx, requester, req.Username)
	if err != nil {
		return nil, err
	}

	item, err := s.store.MenuItemByID(ctx, req.MenuItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFoundError{Resource: "menu item", Key: req.MenuItemID}
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	line := models.NewCartLine(target.ID, *item, req.Quantity)
	if line.Price.GreaterThan(models.MaxAmount) {
		return nil, priceTooLarge()
	}
	if err := s.store.InsertCartLine(ctx, &line); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, apperr.ConflictError{Message: fmt.Sprintf("menu item %d is already in the cart", item.ID)}
		case errors.Is(err, store.ErrOutOfRange):
			return nil, priceTooLarge()
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.NotFoundError{Resource: "menu item", Key: req.MenuItemID}
		}
		return nil, fmt.Errorf("insert cart line: %w", err)
	}

	s.logger.Info("cart_item_added", "Menu item added to cart", logger.RequestID(ctx), map[string]interface{}{
		"user_id":     target.ID,
		"actor_id":    requester.User.ID,
		"menuitem_id": line.MenuItemID,
		"quantity":    line.Quantity,
		"price":       line.Price.StringFixed(2),
	})

	return &line, nil
}

func priceTooLarge() error {
	return apperr.ValidationError{
		Field:   "quantity",
		Message: fmt.Sprintf("line price exceeds the maximum of %s", models.MaxAmount.StringFixed(2)),
	}
}

func (s *Service) targetUser(ctx context.Context, requester models.Requester, username string) (models.User, error) {
	if username == "" || username == requester.User.Username {
		if err := policy.Check(requester, policy.CartAdd, policy.Ownership{IsOwner: true}); err != nil {
			return models.User{}, err
		}
		return requester.User, nil
	}

	if err := policy.Check(requester, policy.CartAddForOther, policy.Ownership{}); err != nil {
		return models.User{}, err
	}
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, apperr.NotFoundError{Resource: "user", Key: username}
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return *user, nil
}

// Clear removes every line in the requester's cart and reports how many
// were removed. Clearing an empty cart is not an error.
func (s *Service) Clear(ctx context.Context, requester models.Requester) (int64, error) {
	if err := policy.Check(requester, policy.CartClear, policy.Ownership{IsOwner: true}); err != nil {
		return 0, err
	}

	n, err := s.store.DeleteCartLines(ctx, requester.User.ID)
	if err != nil {
		return 0, fmt.Errorf("delete cart lines: %w", err)
	}

	if n > 0 {
		s.logger.Info("cart_cleared", "Cart cleared", logger.RequestID(ctx), map[string]interface{}{
			"user_id": requester.User.ID,
			"removed": n,
		})
	}
	return n, nil
}
