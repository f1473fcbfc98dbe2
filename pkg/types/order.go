package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusSubmitted OrderStatus = "submitted"
	StatusCanceled  OrderStatus = "canceled"
)

// MaxOrderProducts bounds the product list accepted when creating an order
const MaxOrderProducts = 5

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusCanceled:
		return true
	}
	return false
}

// IsFinal reports whether s is terminal. Finalized orders are immutable.
func (s OrderStatus) IsFinal() bool {
	return s == StatusSubmitted || s == StatusCanceled
}

// CanTransitionTo reports whether an order in status s may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == StatusPending && next.IsFinal()
}

// Order is a customer order. TotalAmount is the sum of unit price times
// quantity over Items.
type Order struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	OrderDate   time.Time       `json:"order_date"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// OrderItem is one line item of an order. ProductName and UnitPrice are
// filled from the catalog when items are read; they are not stored on the row.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	ProductName string          `json:"product_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal returns UnitPrice times Quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems returns the order total for items, rounded to cents
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(MaxPriceDecimals)
}
