package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// DemoCatalog is the product set loaded into a fresh database
var DemoCatalog = []types.Product{
	{Name: "Rocket Skates", Description: "Jet-propelled roller skates for rapid pursuit", Price: decimal.RequireFromString("149.99"), Keywords: "skate|rocket|speed|footwear", Available: 12},
	{Name: "Giant Magnet", Description: "Horseshoe magnet strong enough to pull anvils", Price: decimal.RequireFromString("39.50"), Keywords: "magnet|metal|tool", Available: 30},
	{Name: "Portable Hole", Description: "Fold-up black hole, place on any surface", Price: decimal.RequireFromString("75.00"), Keywords: "hole|portable|trap", Available: 8},
	{Name: "Anvil", Description: "Classic 100 lb forged steel anvil", Price: decimal.RequireFromString("89.00"), Keywords: "anvil|steel|heavy|tool", Available: 20},
	{Name: "Bird Seed", Description: "Premium birdseed, irresistible to roadrunners", Price: decimal.RequireFromString("4.99"), Keywords: "seed|bird|bait|food", Available: 200},
	{Name: "Dehydrated Boulders", Description: "Just add water for an instant boulder", Price: decimal.RequireFromString("19.95"), Keywords: "boulder|rock|trap", Available: 50},
	{Name: "Earthquake Pills", Description: "Guaranteed to produce a local earthquake", Price: decimal.RequireFromString("12.25"), Keywords: "pill|earthquake", Available: 40},
	{Name: "Jet-Propelled Pogo Stick", Description: "Pogo stick with a solid-fuel booster", Price: decimal.RequireFromString("110.00"), Keywords: "pogo|jet|jump", Available: 5},
}

// SeedCatalog inserts DemoCatalog when the products table is empty.
// It returns the number of products inserted.
func SeedCatalog(ctx context.Context, store Storage) (int, error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count, err := tx.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i := range DemoCatalog {
		product := DemoCatalog[i]
		if err := tx.CreateProduct(ctx, &product); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return len(DemoCatalog), nil
}
