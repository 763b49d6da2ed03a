// Package memory is an in-process Entity Store used for development runs
// and tests. Transactions are serialized and applied copy-on-commit.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"little-lemon/internal/models"
	"little-lemon/internal/store"
)

type state struct {
	users      map[int64]models.User
	groups     map[int64][]string
	categories map[int64]models.Category
	menuItems  map[int64]models.MenuItem
	cartLines  map[int64]models.CartLine
	orders     map[int64]models.Order
	orderItems map[int64]models.OrderItem

	nextUserID      int64
	nextCategoryID  int64
	nextMenuItemID  int64
	nextCartLineID  int64
	nextOrderID     int64
	nextOrderItemID int64
}

func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.groups = make(map[int64][]string, len(s.groups))
	for k, v := range s.groups {
		c.groups[k] = slices.Clone(v)
	}
	c.categories = maps.Clone(s.categories)
	c.menuItems = maps.Clone(s.menuItems)
	c.cartLines = maps.Clone(s.cartLines)
	c.orders = maps.Clone(s.orders)
	c.orderItems = maps.Clone(s.orderItems)
	return &c
}

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ store.Store = (*Store)(nil)

// NewStore returns an empty store holding only the fallback category.
func NewStore() *Store {
	s := &Store{state: &state{
		users:           make(map[int64]models.User),
		groups:          make(map[int64][]string),
		categories:      make(map[int64]models.Category),
		menuItems:       make(map[int64]models.MenuItem),
		cartLines:       make(map[int64]models.CartLine),
		orders:          make(map[int64]models.Order),
		orderItems:      make(map[int64]models.OrderItem),
		nextUserID:      1,
		nextCategoryID:  1,
		nextMenuItemID:  1,
		nextCartLineID:  1,
		nextOrderID:     1,
		nextOrderItemID: 1,
	}}
	s.AddCategory("uncategorized", "Uncategorized")
	return s
}

// AddUser registers a user and its group memberships.
func (s *Store) AddUser(username, email string, groups ...string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := models.User{ID: s.state.nextUserID, Username: username, Email: email}
	s.state.users[u.ID] = u
	s.state.groups[u.ID] = slices.Clone(groups)
	s.state.nextUserID++
	return u
}

// AddToGroup adds an existing user to a group.
func (s *Store) AddToGroup(userID int64, group string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.state.groups[userID], group) {
		s.state.groups[userID] = append(s.state.groups[userID], group)
	}
}

func (s *Store) AddCategory(slug, title string) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{ID: s.state.nextCategoryID, Slug: slug, Title: title}
	s.state.categories[c.ID] = c
	s.state.nextCategoryID++
	return c
}

// AddMenuItem stores a menu item; categoryID 0 selects the fallback category.
func (s *Store) AddMenuItem(title string, price decimal.Decimal, featured bool, categoryID int64) models.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if categoryID == 0 {
		categoryID = models.FallbackCategoryID
	}
	m := models.MenuItem{ID: s.state.nextMenuItemID, Title: title, Price: price, Featured: featured, CategoryID: categoryID}
	s.state.menuItems[m.ID] = m
	s.state.nextMenuItemID++
	return m
}

// SetMenuItemPrice changes the current price of a menu item.
func (s *Store) SetMenuItemPrice(id int64, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.state.menuItems[id]
	if !ok {
		return fmt.Errorf("menu item %d: %w", id, store.ErrNotFound)
	}
	m.Price = price
	s.state.menuItems[id] = m
	return nil
}

// InTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds. Transactions never interleave.
func (s *Store) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) direct(fn func(t *tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{st: s.state})
}

func (s *Store) UserByID(ctx context.Context, id int64) (u *models.User, err error) {
	err = s.direct(func(t *tx) error { u, err = t.UserByID(ctx, id); return err })
	return u, err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (u *models.User, err error) {
	err = s.direct(func(t *tx) error { u, err = t.UserByUsername(ctx, username); return err })
	return u, err
}

func (s *Store) UserGroups(ctx context.Context, userID int64) (g []string, err error) {
	err = s.direct(func(t *tx) error { g, err = t.UserGroups(ctx, userID); return err })
	return g, err
}

func (s *Store) MenuItemByID(ctx context.Context, id int64) (m *models.MenuItem, err error) {
	err = s.direct(func(t *tx) error { m, err = t.MenuItemByID(ctx, id); return err })
	return m, err
}

func (s *Store) InsertCartLine(ctx context.Context, line *models.CartLine) error {
	return s.direct(func(t *tx) error { return t.InsertCartLine(ctx, line) })
}

func (s *Store) ListCartLines(ctx context.Context, userID int64) (l []models.CartLine, err error) {
	err = s.direct(func(t *tx) error { l, err = t.ListCartLines(ctx, userID); return err })
	return l, err
}

func (s *Store) LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return s.ListCartLines(ctx, userID)
}

func (s *Store) DeleteCartLines(ctx context.Context, userID int64) (n int64, err error) {
	err = s.direct(func(t *tx) error { n, err = t.DeleteCartLines(ctx, userID); return err })
	return n, err
}

func (s *Store) DeleteCartLinesByID(ctx context.Context, ids []int64) (n int64, err error) {
	err = s.direct(func(t *tx) error { n, err = t.DeleteCartLinesByID(ctx, ids); return err })
	return n, err
}

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	return s.direct(func(t *tx) error { return t.InsertOrder(ctx, order) })
}

func (s *Store) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	return s.direct(func(t *tx) error { return t.InsertOrderItem(ctx, item) })
}

func (s *Store) OrderByID(ctx context.Context, id int64) (o *models.Order, err error) {
	err = s.direct(func(t *tx) error { o, err = t.OrderByID(ctx, id); return err })
	return o, err
}

func (s *Store) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.OrderByID(ctx, id)
}

func (s *Store) ListOrders(ctx context.Context, filter models.OrderFilter) (o []models.Order, err error) {
	err = s.direct(func(t *tx) error { o, err = t.ListOrders(ctx, filter); return err })
	return o, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status bool) error {
	return s.direct(func(t *tx) error { return t.UpdateOrderStatus(ctx, id, status) })
}

func (s *Store) UpdateOrderDeliveryCrew(ctx context.Context, id int64, crewID int64) error {
	return s.direct(func(t *tx) error { return t.UpdateOrderDeliveryCrew(ctx, id, crewID) })
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.direct(func(t *tx) error { return t.DeleteOrder(ctx, id) })
}

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) (i []models.OrderItem, err error) {
	err = s.direct(func(t *tx) error { i, err = t.ListOrderItems(ctx, orderID); return err })
	return i, err
}
