package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for order dates.
const DateLayout = "2006-01-02"

// Order is created atomically from a cart. Status false means in progress,
// true means delivered.
type Order struct {
	ID             int64           `json:"id" db:"id"`
	UserID         int64           `json:"user" db:"user_id"`
	DeliveryCrewID *int64          `json:"delivery_crew" db:"delivery_crew_id"`
	Status         bool            `json:"status" db:"status"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Date           Date            `json:"date" db:"date"`
}

// IsAssignedTo reports whether userID is the order's delivery crew.
func (o *Order) IsAssignedTo(userID int64) bool {
	return o.DeliveryCrewID != nil && *o.DeliveryCrewID == userID
}

// OrderItem is an immutable snapshot of a cart line at order placement.
// Unique per (order, menu item).
type OrderItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order" db:"order_id"`
	MenuItemID int64           `json:"menuitem_id" db:"menuitem_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	Price      decimal.Decimal `json:"price" db:"price"`
	MenuItem   *MenuItem       `json:"menuitem,omitempty"`
}

// OrderItemFromCartLine copies the priced fields of a cart line.
func OrderItemFromCartLine(orderID int64, line CartLine) OrderItem {
	return OrderItem{
		OrderID:    orderID,
		MenuItemID: line.MenuItemID,
		Quantity:   line.Quantity,
		UnitPrice:  line.UnitPrice,
		Price:      line.Price,
	}
}

// OrderFilter restricts ListOrders. Zero value lists every order.
type OrderFilter struct {
	UserID         *int64
	DeliveryCrewID *int64
}

// AssignDeliveryCrewRequest is the body of PUT /orders/{id}.
type AssignDeliveryCrewRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

// OrderDetail is the GET /orders/{id} payload.
type OrderDetail struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return &time.ParseError{Layout: DateLayout, Value: string(b)}
	}
	t, err := time.Parse(DateLayout, string(b[1:len(b)-1]))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
