package models

import "github.com/shopspring/decimal"

// CartLine is a pending item in a user's cart, priced when it was added.
// There is at most one line per (user, menu item).
type CartLine struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"user" db:"user_id"`
	MenuItemID int64           `json:"menuitem" db:"menuitem_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	Price      decimal.Decimal `json:"price" db:"price"`
}

// MaxAmount is the largest value the NUMERIC(10,2) money columns hold.
var MaxAmount = decimal.RequireFromString("99999999.99")

// NewCartLine prices a line from the menu item's current price. The result
// is frozen: later menu price changes do not affect it.
func NewCartLine(userID int64, item MenuItem, quantity int) CartLine {
	return CartLine{
		UserID:     userID,
		MenuItemID: item.ID,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		Price:      item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// CartTotal sums the price of every line.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price)
	}
	return total
}

// AddCartItemRequest is the body of POST /cart. Username defaults to the caller.
type AddCartItemRequest struct {
	Username   string `json:"username" validate:"omitempty,max=150"`
	MenuItemID int64  `json:"menuitem_id" validate:"required,gt=0"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=32767"`
}
