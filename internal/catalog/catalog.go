// Package catalog implements read and update operations on catalog products
// and the keyword search over them.
package catalog

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dshills/acme-orders-mcp/internal/storage"
	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// patternCacheSize bounds the number of compiled search patterns kept
const patternCacheSize = 256

// Catalog provides product lookups and validated updates
type Catalog struct {
	storage  storage.Storage
	log      zerolog.Logger
	patterns *lru.Cache[patternKey, *searchPattern]
}

// New creates a catalog backed by store
func New(store storage.Storage, log zerolog.Logger) *Catalog {
	cache, err := lru.New[patternKey, *searchPattern](patternCacheSize)
	if err != nil {
		// Only fails for a non-positive size
		panic(fmt.Sprintf("failed to create pattern cache: %v", err))
	}
	return &Catalog{
		storage:  store,
		log:      log.With().Str("component", "catalog").Logger(),
		patterns: cache,
	}
}

// WithStore returns a copy of the catalog bound to store, typically a
// transaction owned by the caller
func (c *Catalog) WithStore(store storage.Storage) *Catalog {
	bound := *c
	bound.storage = store
	return &bound
}

// Get returns the product with the given id
func (c *Catalog) Get(ctx context.Context, productID int64) (*types.Product, error) {
	product, err := c.storage.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("product with ID %d: %w", productID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// FindByIDs returns the products matching ids. Unknown ids are absent from
// the result; callers compare against the distinct requested count.
func (c *Catalog) FindByIDs(ctx context.Context, productIDs []int64) ([]*types.Product, error) {
	products, err := c.storage.ListProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

// SetAvailability sets the available quantity and returns the updated product
func (c *Catalog) SetAvailability(ctx context.Context, productID int64, quantity int) (*types.Product, error) {
	if err := types.ValidateAvailability(quantity); err != nil {
		return nil, err
	}
	product, err := c.update(ctx, productID, func(tx storage.Tx) error {
		return tx.UpdateProductAvailability(ctx, productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Int64("product_id", productID).Int("available", quantity).Msg("availability updated")
	return product, nil
}

// SetPrice sets the unit price and returns the updated product. Existing
// order totals are not touched; they are re-priced on their next amendment.
func (c *Catalog) SetPrice(ctx context.Context, productID int64, price decimal.Decimal) (*types.Product, error) {
	if err := types.ValidatePrice(price); err != nil {
		return nil, err
	}
	product, err := c.update(ctx, productID, func(tx storage.Tx) error {
		return tx.UpdateProductPrice(ctx, productID, price)
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Int64("product_id", productID).Str("price", price.StringFixed(types.MaxPriceDecimals)).Msg("price updated")
	return product, nil
}

// update applies fn and re-reads the product in one transaction
func (c *Catalog) update(ctx context.Context, productID int64, fn func(tx storage.Tx) error) (*types.Product, error) {
	tx, err := c.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", productID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	product, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return product, nil
}
