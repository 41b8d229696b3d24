package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PizzaType represents one entry of the pizza catalog
type PizzaType struct {
	ID          string   `json:"id" gorm:"primaryKey;column:pizza_type_id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients" gorm:"serializer:json"`
}

// Pizza is a sellable item: a pizza type in a concrete size at a price
type Pizza struct {
	ID          string          `json:"id" gorm:"primaryKey;column:pizza_id"`
	PizzaTypeID string          `json:"pizza_type_id" gorm:"index"`
	Size        string          `json:"size"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`

	PizzaType *PizzaType `json:"-" gorm:"foreignKey:PizzaTypeID;references:ID"`
}

// Order is a single customer order placed at a date and time of day
type Order struct {
	ID   int       `json:"id" gorm:"primaryKey;column:order_id"`
	Date time.Time `json:"date"`
	Time time.Time `json:"time"`
}

// Hour returns the hour-of-day the order was placed (0-23)
func (o Order) Hour() int {
	return o.Time.Hour()
}

// OrderLine is one line item of an order: a pizza and a quantity
type OrderLine struct {
	ID       int    `json:"id" gorm:"primaryKey;column:order_details_id"`
	OrderID  int    `json:"order_id" gorm:"index"`
	PizzaID  string `json:"pizza_id" gorm:"index"`
	Quantity int    `json:"quantity"`

	Order *Order `json:"-" gorm:"foreignKey:OrderID;references:ID"`
	Pizza *Pizza `json:"-" gorm:"foreignKey:PizzaID;references:ID"`
}

// Pizza size enumeration. Raw input may arrive in mixed case; the stored
// form is always one of these uppercase values.
const (
	SizeS   = "S"
	SizeM   = "M"
	SizeL   = "L"
	SizeXL  = "XL"
	SizeXXL = "XXL"
)

// Sizes lists the valid pizza sizes in ascending order
var Sizes = []string{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// NormalizeSize trims and uppercases a raw size value and reports whether
// the result is part of the size enumeration
func NormalizeSize(raw string) (string, bool) {
	size := strings.ToUpper(strings.TrimSpace(raw))
	for _, s := range Sizes {
		if size == s {
			return size, true
		}
	}
	return size, false
}
