package types

import (
	"github.com/shopspring/decimal"
)

// MaxPriceDecimals is the number of fractional digits a price may carry
const MaxPriceDecimals = 2

// Product is a catalog row
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Keywords    string          `json:"keywords"`
	Available   int             `json:"available"`
}

// ValidatePrice checks that price is positive with at most two decimal digits
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return InvalidInputf("price must be a positive number")
	}
	if !price.Equal(price.Truncate(MaxPriceDecimals)) {
		return InvalidInputf("price can have at most %d decimal digits", MaxPriceDecimals)
	}
	return nil
}

// MaxQuantity bounds stock levels and item quantities
const MaxQuantity = 1_000_000

// ValidateAvailability checks that an available quantity is within 0..MaxQuantity
func ValidateAvailability(quantity int) error {
	if quantity < 0 {
		return InvalidInputf("quantity must be a non-negative integer")
	}
	if quantity > MaxQuantity {
		return InvalidInputf("quantity must not exceed %d", MaxQuantity)
	}
	return nil
}
