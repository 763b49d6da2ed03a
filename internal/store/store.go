// Package store is the contract between the ordering workflows and the
// persistent Entity Store.
package store

import (
	"context"
	"errors"

	"little-lemon/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrOutOfRange is returned when a value does not fit its column.
	ErrOutOfRange = errors.New("value out of range")
)

// Queries are the reads and writes available both inside and outside a
// transaction.
type Queries interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserGroups(ctx context.Context, userID int64) ([]string, error)

	MenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)

	InsertCartLine(ctx context.Context, line *models.CartLine) error
	ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	// LockCartLines returns the user's cart lines and holds them until the
	// surrounding transaction ends.
	LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	DeleteCartLines(ctx context.Context, userID int64) (int64, error)
	// DeleteCartLinesByID removes exactly the given lines, leaving any line
	// added after they were read.
	DeleteCartLinesByID(ctx context.Context, ids []int64) (int64, error)

	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	// LockOrder returns the order and holds it until the surrounding
	// transaction ends.
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status bool) error
	UpdateOrderDeliveryCrew(ctx context.Context, id int64, crewID int64) error
	DeleteOrder(ctx context.Context, id int64) error
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// Store runs Queries directly or within a transaction. fn's writes are
// committed only if it returns nil.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
}
