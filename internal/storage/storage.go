package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// Storage defines the interface for persisting accounts, products and orders
type Storage interface {
	// Account operations
	CreateAccount(ctx context.Context, account *types.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*types.Account, error)

	// Product operations
	CreateProduct(ctx context.Context, product *types.Product) error
	GetProduct(ctx context.Context, productID int64) (*types.Product, error)
	ListProducts(ctx context.Context) ([]*types.Product, error)
	ListProductsByIDs(ctx context.Context, productIDs []int64) ([]*types.Product, error)
	UpdateProductAvailability(ctx context.Context, productID int64, available int) error
	UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error
	CountProducts(ctx context.Context) (int, error)

	// Order operations
	CreateOrder(ctx context.Context, order *types.Order) error
	GetOrderForAccount(ctx context.Context, orderID int64, email string) (*types.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID int64) ([]*types.Order, error)
	UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error
	FinalizeOrderStatus(ctx context.Context, orderID int64, email string, status types.OrderStatus) error

	// Order item operations
	InsertOrderItems(ctx context.Context, items []*types.OrderItem) error
	ListOrderItems(ctx context.Context, orderID int64) ([]types.OrderItem, error)
	SetOrderItemQuantity(ctx context.Context, orderID, productID int64, quantity int) (*types.OrderItem, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}
