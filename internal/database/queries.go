package database

// Money columns travel as text both ways so decimals never pass through float.

// Migration bookkeeping
const (
	CreateMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	SelectAppliedMigrationsSQL = `SELECT migration_name FROM schema_migrations`

	InsertMigrationSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// User and group queries
const (
	GetUserByIDSQL = `SELECT id, username, email FROM users WHERE id = $1`

	GetUserByUsernameSQL = `SELECT id, username, email FROM users WHERE username = $1`

	GetUserGroupsSQL = `
		SELECT g.name
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.name`
)

// Menu queries
const (
	GetMenuItemByIDSQL = `
		SELECT m.id, m.title, m.price::text, m.featured, m.category_id, c.slug, c.title
		FROM menu_items m
		JOIN categories c ON c.id = m.category_id
		WHERE m.id = $1`
)

// Cart queries
const (
	InsertCartLineSQL = `
		INSERT INTO cart_lines (user_id, menuitem_id, quantity, unit_price, price)
		VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric)
		RETURNING id`

	ListCartLinesSQL = `
		SELECT id, user_id, menuitem_id, quantity, unit_price::text, price::text
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY id`

	LockCartLinesSQL = ListCartLinesSQL + `
		FOR UPDATE`

	DeleteCartLinesSQL = `DELETE FROM cart_lines WHERE user_id = $1`

	DeleteCartLinesByIDSQL = `DELETE FROM cart_lines WHERE id = ANY($1)`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (user_id, delivery_crew_id, status, total, date)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
		RETURNING id`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menuitem_id, quantity, unit_price, price)
		VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric)
		RETURNING id`

	orderColumns = `id, user_id, delivery_crew_id, status, total::text, date`

	GetOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	LockOrderSQL = GetOrderByIDSQL + ` FOR UPDATE`

	ListOrdersSQL = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::bigint IS NULL OR user_id = $1)
		  AND ($2::bigint IS NULL OR delivery_crew_id = $2)
		ORDER BY id`

	UpdateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	UpdateOrderDeliveryCrewSQL = `UPDATE orders SET delivery_crew_id = $2 WHERE id = $1`

	DeleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	ListOrderItemsSQL = `
		SELECT oi.id, oi.order_id, oi.menuitem_id, oi.quantity, oi.unit_price::text, oi.price::text,
			   m.title, m.price::text, m.featured, m.category_id, c.slug, c.title
		FROM order_items oi
		JOIN menu_items m ON m.id = oi.menuitem_id
		JOIN categories c ON c.id = m.category_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
)
