package models

import "github.com/shopspring/decimal"

// FallbackCategoryID is assigned to menu items created without a category.
const FallbackCategoryID int64 = 1

// Category groups menu items.
type Category struct {
	ID    int64  `json:"id" db:"id"`
	Slug  string `json:"slug" db:"slug"`
	Title string `json:"title" db:"title"`
}

// MenuItem is a sellable dish. Price is never negative.
type MenuItem struct {
	ID         int64           `json:"id" db:"id"`
	Title      string          `json:"title" db:"title"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Featured   bool            `json:"featured" db:"featured"`
	CategoryID int64           `json:"category_id" db:"category_id"`
	Category   *Category       `json:"category,omitempty"`
}
