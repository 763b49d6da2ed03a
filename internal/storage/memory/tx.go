package memory

import (
	"context"
	"fmt"
	"slices"

	"little-lemon/internal/models"
	"little-lemon/internal/store"
)

var _ store.Queries = (*tx)(nil)

// tx applies queries to a state without locking; the caller holds Store.mu.
type tx struct {
	st *state
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func copyOrder(o models.Order) *models.Order {
	if o.DeliveryCrewID != nil {
		crew := *o.DeliveryCrewID
		o.DeliveryCrewID = &crew
	}
	return &o
}

func (t *tx) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (t *tx) UserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, id := range sortedKeys(t.st.users) {
		if u := t.st.users[id]; u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
}

func (t *tx) UserGroups(_ context.Context, userID int64) ([]string, error) {
	return slices.Clone(t.st.groups[userID]), nil
}

func (t *tx) MenuItemByID(_ context.Context, id int64) (*models.MenuItem, error) {
	m, ok := t.st.menuItems[id]
	if !ok {
		return nil, fmt.Errorf("menu item %d: %w", id, store.ErrNotFound)
	}
	if c, ok := t.st.categories[m.CategoryID]; ok {
		m.Category = &c
	}
	return &m, nil
}

func (t *tx) InsertCartLine(_ context.Context, line *models.CartLine) error {
	if _, ok := t.st.users[line.UserID]; !ok {
		return fmt.Errorf("user %d: %w", line.UserID, store.ErrNotFound)
	}
	if _, ok := t.st.menuItems[line.MenuItemID]; !ok {
		return fmt.Errorf("menu item %d: %w", line.MenuItemID, store.ErrNotFound)
	}
	for _, existing := range t.st.cartLines {
		if existing.UserID == line.UserID && existing.MenuItemID == line.MenuItemID {
			return fmt.Errorf("cart line (user %d, menu item %d): %w", line.UserID, line.MenuItemID, store.ErrConflict)
		}
	}
	line.ID = t.st.nextCartLineID
	t.st.nextCartLineID++
	t.st.cartLines[line.ID] = *line
	return nil
}

func (t *tx) ListCartLines(_ context.Context, userID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	for _, id := range sortedKeys(t.st.cartLines) {
		if l := t.st.cartLines[id]; l.UserID == userID {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (t *tx) LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return t.ListCartLines(ctx, userID)
}

func (t *tx) DeleteCartLines(_ context.Context, userID int64) (int64, error) {
	var n int64
	for id, l := range t.st.cartLines {
		if l.UserID == userID {
			delete(t.st.cartLines, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteCartLinesByID(_ context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := t.st.cartLines[id]; ok {
			delete(t.st.cartLines, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) InsertOrder(_ context.Context, order *models.Order) error {
	if _, ok := t.st.users[order.UserID]; !ok {
		return fmt.Errorf("user %d: %w", order.UserID, store.ErrNotFound)
	}
	if err := t.checkOrderPair(0, order.UserID, order.DeliveryCrewID); err != nil {
		return err
	}
	order.ID = t.st.nextOrderID
	t.st.nextOrderID++
	t.st.orders[order.ID] = *copyOrder(*order)
	return nil
}

// checkOrderPair enforces unique (user, delivery_crew); NULL crews never collide.
func (t *tx) checkOrderPair(orderID, userID int64, crewID *int64) error {
	if crewID == nil {
		return nil
	}
	for id, o := range t.st.orders {
		if id != orderID && o.UserID == userID && o.IsAssignedTo(*crewID) {
			return fmt.Errorf("order (user %d, delivery crew %d): %w", userID, *crewID, store.ErrConflict)
		}
	}
	return nil
}

func (t *tx) InsertOrderItem(_ context.Context, item *models.OrderItem) error {
	if _, ok := t.st.orders[item.OrderID]; !ok {
		return fmt.Errorf("order %d: %w", item.OrderID, store.ErrNotFound)
	}
	if _, ok := t.st.menuItems[item.MenuItemID]; !ok {
		return fmt.Errorf("menu item %d: %w", item.MenuItemID, store.ErrNotFound)
	}
	for _, existing := range t.st.orderItems {
		if existing.OrderID == item.OrderID && existing.MenuItemID == item.MenuItemID {
			return fmt.Errorf("order item (order %d, menu item %d): %w", item.OrderID, item.MenuItemID, store.ErrConflict)
		}
	}
	item.ID = t.st.nextOrderItemID
	t.st.nextOrderItemID++
	stored := *item
	stored.MenuItem = nil
	t.st.orderItems[item.ID] = stored
	return nil
}

func (t *tx) OrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return copyOrder(o), nil
}

func (t *tx) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return t.OrderByID(ctx, id)
}

func (t *tx) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	for _, id := range sortedKeys(t.st.orders) {
		o := t.st.orders[id]
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.DeliveryCrewID != nil && !o.IsAssignedTo(*filter.DeliveryCrewID) {
			continue
		}
		orders = append(orders, *copyOrder(o))
	}
	return orders, nil
}

func (t *tx) UpdateOrderStatus(_ context.Context, id int64, status bool) error {
	o, ok := t.st.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	o.Status = status
	t.st.orders[id] = o
	return nil
}

func (t *tx) UpdateOrderDeliveryCrew(_ context.Context, id int64, crewID int64) error {
	o, ok := t.st.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	if _, ok := t.st.users[crewID]; !ok {
		return fmt.Errorf("user %d: %w", crewID, store.ErrNotFound)
	}
	if err := t.checkOrderPair(id, o.UserID, &crewID); err != nil {
		return err
	}
	o.DeliveryCrewID = &crewID
	t.st.orders[id] = o
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := t.st.orders[id]; !ok {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	delete(t.st.orders, id)
	for itemID, item := range t.st.orderItems {
		if item.OrderID == id {
			delete(t.st.orderItems, itemID)
		}
	}
	return nil
}

func (t *tx) ListOrderItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	for _, id := range sortedKeys(t.st.orderItems) {
		item := t.st.orderItems[id]
		if item.OrderID != orderID {
			continue
		}
		if m, ok := t.st.menuItems[item.MenuItemID]; ok {
			if c, ok := t.st.categories[m.CategoryID]; ok {
				m.Category = &c
			}
			item.MenuItem = &m
		}
		items = append(items, item)
	}
	return items, nil
}
