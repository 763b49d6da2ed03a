package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartLinePricesAtInsertion(t *testing.T) {
	item := MenuItem{ID: 3, Price: decimal.RequireFromString("10.50")}
	line := NewCartLine(9, item, 3)

	assert.Equal(t, int64(9), line.UserID)
	assert.Equal(t, int64(3), line.MenuItemID)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("10.50")))
	assert.True(t, line.Price.Equal(decimal.RequireFromString("31.50")))

	// later menu price changes leave the line untouched
	item.Price = decimal.NewFromInt(99)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("31.50")))
}

func TestCartTotal(t *testing.T) {
	lines := []CartLine{
		{Price: decimal.NewFromInt(20)},
		{Price: decimal.NewFromInt(5)},
	}
	assert.True(t, CartTotal(lines).Equal(decimal.NewFromInt(25)))
	assert.True(t, CartTotal(nil).IsZero())
}

func TestOrderItemFromCartLine(t *testing.T) {
	line := CartLine{ID: 1, UserID: 2, MenuItemID: 3, Quantity: 2, UnitPrice: decimal.NewFromInt(10), Price: decimal.NewFromInt(20)}
	item := OrderItemFromCartLine(44, line)

	assert.Equal(t, int64(44), item.OrderID)
	assert.Equal(t, line.MenuItemID, item.MenuItemID)
	assert.Equal(t, line.Quantity, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(line.UnitPrice))
	assert.True(t, item.Price.Equal(line.Price))
}

func TestRoleSet(t *testing.T) {
	s := NewRoleSet(RoleCustomer, RoleDeliveryCrew)
	assert.True(t, s.Has(RoleCustomer))
	assert.True(t, s.Has(RoleDeliveryCrew))
	assert.False(t, s.Has(RoleManager))
	assert.Equal(t, "delivery_crew,customer", s.String())

	s = s.With(RoleManager)
	assert.True(t, s.Has(RoleManager))
}

func TestOrderIsAssignedTo(t *testing.T) {
	crew := int64(5)
	o := Order{DeliveryCrewID: &crew}
	assert.True(t, o.IsAssignedTo(5))
	assert.False(t, o.IsAssignedTo(6))
	assert.False(t, (&Order{}).IsAssignedTo(5))
}

func TestDateJSON(t *testing.T) {
	d := NewDate(time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}
