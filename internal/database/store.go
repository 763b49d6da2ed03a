package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"little-lemon/internal/models"
	"little-lemon/internal/store"
)

// PostgreSQL error codes translated at the store boundary.
const (
	uniqueViolation        = "23505"
	foreignKeyViolation    = "23503"
	numericValueOutOfRange = "22003"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL Entity Store.
type Store struct {
	queries
	db *DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{queries: queries{q: db.Pool}, db: db}
}

// InTx runs fn in a READ COMMITTED transaction. Row locks taken through
// LockCartLines and LockOrder are held until commit or rollback.
func (s *Store) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapErr(err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// mapErr translates driver errors into store sentinels.
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, store.ErrConflict)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, store.ErrNotFound)
		case numericValueOutOfRange:
			return fmt.Errorf("%s: %w", pgErr.Message, store.ErrOutOfRange)
		}
	}
	return err
}

type queries struct {
	q querier
}

func (r *queries) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := r.q.QueryRow(ctx, GetUserByIDSQL, id).Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, fmt.Errorf("user %d: %w", id, mapErr(err))
	}
	return &u, nil
}

func (r *queries) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.q.QueryRow(ctx, GetUserByUsernameSQL, username).Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, fmt.Errorf("user %q: %w", username, mapErr(err))
	}
	return &u, nil
}

func (r *queries) UserGroups(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.q.Query(ctx, GetUserGroupsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("groups of user %d: %w", userID, err)
	}
	groups, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("groups of user %d: %w", userID, err)
	}
	return groups, nil
}

func (r *queries) MenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	var (
		m     models.MenuItem
		c     models.Category
		price string
	)
	err := r.q.QueryRow(ctx, GetMenuItemByIDSQL, id).Scan(&m.ID, &m.Title, &price, &m.Featured, &m.CategoryID, &c.Slug, &c.Title)
	if err != nil {
		return nil, fmt.Errorf("menu item %d: %w", id, mapErr(err))
	}
	if m.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("menu item %d price: %w", id, err)
	}
	c.ID = m.CategoryID
	m.Category = &c
	return &m, nil
}

func (r *queries) InsertCartLine(ctx context.Context, line *models.CartLine) error {
	err := r.q.QueryRow(ctx, InsertCartLineSQL,
		line.UserID, line.MenuItemID, line.Quantity, line.UnitPrice.String(), line.Price.String(),
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", mapErr(err))
	}
	return nil
}

func (r *queries) ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return r.cartLines(ctx, ListCartLinesSQL, userID)
}

func (r *queries) LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	return r.cartLines(ctx, LockCartLinesSQL, userID)
}

func (r *queries) cartLines(ctx context.Context, sql string, userID int64) ([]models.CartLine, error) {
	rows, err := r.q.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("cart of user %d: %w", userID, err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CartLine, error) {
		var (
			l                models.CartLine
			unitPrice, price string
		)
		if err := row.Scan(&l.ID, &l.UserID, &l.MenuItemID, &l.Quantity, &unitPrice, &price); err != nil {
			return l, err
		}
		return l, parseMoney(map[*decimal.Decimal]string{&l.UnitPrice: unitPrice, &l.Price: price})
	})
	if err != nil {
		return nil, fmt.Errorf("cart of user %d: %w", userID, err)
	}
	return lines, nil
}

func (r *queries) DeleteCartLines(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, DeleteCartLinesSQL, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart of user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *queries) DeleteCartLinesByID(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.q.Exec(ctx, DeleteCartLinesByIDSQL, ids)
	if err != nil {
		return 0, fmt.Errorf("delete cart lines %v: %w", ids, err)
	}
	return tag.RowsAffected(), nil
}

func (r *queries) InsertOrder(ctx context.Context, order *models.Order) error {
	err := r.q.QueryRow(ctx, InsertOrderSQL,
		order.UserID, order.DeliveryCrewID, order.Status, order.Total.String(), order.Date.Time,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", mapErr(err))
	}
	return nil
}

func (r *queries) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	err := r.q.QueryRow(ctx, InsertOrderItemSQL,
		item.OrderID, item.MenuItemID, item.Quantity, item.UnitPrice.String(), item.Price.String(),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", mapErr(err))
	}
	return nil
}

func (r *queries) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	return r.order(ctx, GetOrderByIDSQL, id)
}

func (r *queries) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.order(ctx, LockOrderSQL, id)
}

func (r *queries) order(ctx context.Context, sql string, id int64) (*models.Order, error) {
	rows, err := r.q.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", id, mapErr(err))
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (models.Order, error) {
	var (
		o     models.Order
		total string
		date  time.Time
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrewID, &o.Status, &total, &date); err != nil {
		return o, err
	}
	o.Date = models.NewDate(date)
	return o, parseMoney(map[*decimal.Decimal]string{&o.Total: total})
}

func (r *queries) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	rows, err := r.q.Query(ctx, ListOrdersSQL, filter.UserID, filter.DeliveryCrewID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *queries) UpdateOrderStatus(ctx context.Context, id int64, status bool) error {
	return r.execOne(ctx, fmt.Sprintf("update status of order %d", id), UpdateOrderStatusSQL, id, status)
}

func (r *queries) UpdateOrderDeliveryCrew(ctx context.Context, id int64, crewID int64) error {
	return r.execOne(ctx, fmt.Sprintf("assign delivery crew to order %d", id), UpdateOrderDeliveryCrewSQL, id, crewID)
}

func (r *queries) DeleteOrder(ctx context.Context, id int64) error {
	return r.execOne(ctx, fmt.Sprintf("delete order %d", id), DeleteOrderSQL, id)
}

// execOne runs a statement that must touch exactly one row.
func (r *queries) execOne(ctx context.Context, what, sql string, args ...any) error {
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

func (r *queries) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.q.Query(ctx, ListOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("items of order %d: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OrderItem, error) {
		var (
			it                          models.OrderItem
			m                           models.MenuItem
			c                           models.Category
			unitPrice, price, menuPrice string
		)
		err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &unitPrice, &price,
			&m.Title, &menuPrice, &m.Featured, &m.CategoryID, &c.Slug, &c.Title)
		if err != nil {
			return it, err
		}
		m.ID = it.MenuItemID
		c.ID = m.CategoryID
		m.Category = &c
		it.MenuItem = &m
		return it, parseMoney(map[*decimal.Decimal]string{
			&it.UnitPrice: unitPrice,
			&it.Price:     price,
			&m.Price:      menuPrice,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("items of order %d: %w", orderID, err)
	}
	return items, nil
}

func parseMoney(fields map[*decimal.Decimal]string) error {
	for dst, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", raw, err)
		}
		*dst = d
	}
	return nil
}
