package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		wantErr bool
	}{
		{"two decimals", "9.99", false},
		{"one decimal", "9.9", false},
		{"integer", "10", false},
		{"trailing zero", "9.990", false},
		{"three decimals", "9.999", true},
		{"zero", "0", true},
		{"negative", "-1.50", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrice(decimal.RequireFromString(tt.price))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// JSON numbers arrive as float64
	assert.Error(t, ValidatePrice(decimal.NewFromFloat(9.999)))
	assert.NoError(t, ValidatePrice(decimal.NewFromFloat(9.99)))
}

func TestValidateAvailability(t *testing.T) {
	assert.NoError(t, ValidateAvailability(0))
	assert.NoError(t, ValidateAvailability(12))
	assert.ErrorIs(t, ValidateAvailability(-1), ErrInvalidInput)
	assert.NoError(t, ValidateAvailability(MaxQuantity))
	assert.ErrorIs(t, ValidateAvailability(MaxQuantity+1), ErrInvalidInput)
}

func TestCredentialNormalize(t *testing.T) {
	cred := Credential{Name: " Wile ", Email: "\twile@acme.com  "}.Normalize()
	assert.Equal(t, Credential{Name: "Wile", Email: "wile@acme.com"}, cred)
	assert.True(t, Credential{Email: "   "}.Normalize().IsZero())
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{StatusPending, StatusSubmitted, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusPending, false},
		{StatusSubmitted, StatusCanceled, false},
		{StatusSubmitted, StatusPending, false},
		{StatusCanceled, StatusSubmitted, false},
		{StatusCanceled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, StatusPending.IsFinal())
	assert.True(t, StatusSubmitted.IsFinal())
	assert.True(t, StatusCanceled.IsFinal())
	assert.False(t, OrderStatus("shipped").IsValid())
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		{ProductID: 3, Quantity: 2, UnitPrice: decimal.NewFromFloat(0.1)},
	}

	assert.True(t, SumItems(items).Equal(decimal.RequireFromString("35.20")))
	assert.True(t, SumItems(nil).IsZero())
}

func TestUnknownProductError(t *testing.T) {
	err := fmt.Errorf("create order: %w", &UnknownProductError{IDs: []int64{7, 9}})

	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Contains(t, err.Error(), "one or more invalid product ids: 7, 9")

	var upe *UnknownProductError
	assert.True(t, errors.As(err, &upe))
	assert.Equal(t, []int64{7, 9}, upe.IDs)
}

func TestCredential(t *testing.T) {
	assert.True(t, Credential{}.IsZero())
	assert.Equal(t, "A <a@x.com>", Credential{Name: "A", Email: "a@x.com"}.String())
	assert.Equal(t, "a@x.com", Credential{Email: "a@x.com"}.String())
}
