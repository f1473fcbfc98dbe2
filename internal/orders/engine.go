// Package orders implements the order lifecycle engine.
//
// Orders are created pending from a list of one to five product ids, amended
// one line item at a time while pending, and finalized exactly once as
// submitted or canceled. Each operation runs in a single storage transaction,
// so partial writes are never visible.
//
// # Totals
//
// Order.TotalAmount always equals the sum of unit price times quantity over
// the order's current items. Creation captures the catalog prices at that
// moment. Amendment re-prices every item from the current catalog, so a price
// change reaches an existing order only on its next amendment. Item rows do
// not store a frozen unit price.
//
// # Ownership
//
// Every order lookup joins on the caller's email. An order that belongs to
// another account fails with types.ErrInvalidOrder exactly like a missing one.
//
// # Concurrency
//
// There is no optimistic version check: two concurrent amendments of the same
// order serialize at the transaction boundary and the last commit wins.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/acme-orders-mcp/internal/accounts"
	"github.com/dshills/acme-orders-mcp/internal/catalog"
	"github.com/dshills/acme-orders-mcp/internal/storage"
	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// Engine coordinates order operations against the store, the account
// registry and the catalog
type Engine struct {
	storage  storage.Storage
	accounts *accounts.Registry
	catalog  *catalog.Catalog
	log      zerolog.Logger
	now      func() time.Time
}

// NewEngine creates an order engine
func NewEngine(store storage.Storage, registry *accounts.Registry, cat *catalog.Catalog, log zerolog.Logger) *Engine {
	return &Engine{
		storage:  store,
		accounts: registry,
		catalog:  cat,
		log:      log.With().Str("component", "orders").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// session is the set of collaborators bound to one transaction
type session struct {
	tx       storage.Tx
	accounts *accounts.Registry
	catalog  *catalog.Catalog
}

// inTx runs fn in a transaction and commits when it succeeds
func (e *Engine) inTx(ctx context.Context, fn func(s *session) error) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	s := &session{
		tx:       tx,
		accounts: e.accounts.WithStore(tx),
		catalog:  e.catalog.WithStore(tx),
	}
	if err := fn(s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// resolveAccount maps the caller to its account
func (s *session) resolveAccount(ctx context.Context, caller types.Credential) (*types.Account, error) {
	if caller.IsZero() {
		return nil, types.ErrAccountNotRegistered
	}
	account, err := s.accounts.FindByEmail(ctx, caller.Email)
	if errors.Is(err, types.ErrNotFound) {
		return nil, types.ErrAccountNotRegistered
	}
	return account, err
}

// ownedOrder loads an order through the ownership join
func (s *session) ownedOrder(ctx context.Context, caller types.Credential, orderID int64) (*types.Order, error) {
	order, err := s.tx.GetOrderForAccount(ctx, orderID, caller.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrInvalidOrder
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

// missingProducts returns the requested ids absent from found, in request
// order without repeats
func missingProducts(requested []int64, found []*types.Product) []int64 {
	known := make(map[int64]struct{}, len(found))
	for _, p := range found {
		known[p.ID] = struct{}{}
	}
	missing := make([]int64, 0)
	for _, id := range requested {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing
}

// CreateOrder creates a pending order with one unit-quantity item per listed
// product id. Repeated ids produce repeated items and are priced per
// occurrence.
func (e *Engine) CreateOrder(ctx context.Context, caller types.Credential, productIDs []int64) (*types.Order, error) {
	caller = caller.Normalize()
	var order *types.Order
	err := e.inTx(ctx, func(s *session) error {
		account, err := s.resolveAccount(ctx, caller)
		if err != nil {
			return err
		}

		if len(productIDs) == 0 || len(productIDs) > types.MaxOrderProducts {
			return types.InvalidInputf("invalid products list. Must be an array of 1 to %d product IDs", types.MaxOrderProducts)
		}

		products, err := s.catalog.FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		if missing := missingProducts(productIDs, products); len(missing) > 0 {
			return &types.UnknownProductError{IDs: missing}
		}

		byID := make(map[int64]*types.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		lines := make([]types.OrderItem, len(productIDs))
		for i, id := range productIDs {
			lines[i] = types.OrderItem{ProductID: id, Quantity: 1, ProductName: byID[id].Name, UnitPrice: byID[id].Price}
		}

		order = &types.Order{
			AccountID:   account.ID,
			OrderDate:   e.now(),
			Status:      types.StatusPending,
			TotalAmount: types.SumItems(lines),
		}
		if err := s.tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		rows := make([]*types.OrderItem, len(lines))
		for i := range lines {
			lines[i].OrderID = order.ID
			rows[i] = &lines[i]
		}
		if err := s.tx.InsertOrderItems(ctx, rows); err != nil {
			return err
		}
		order.Items = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("order_id", order.ID).
		Str("email", caller.Email).
		Int("items", len(productIDs)).
		Str("total", order.TotalAmount.StringFixed(types.MaxPriceDecimals)).
		Msg("order created")
	return order, nil
}

// AmendOrder sets the quantity of productID on a pending order, inserting
// the line item when absent, then re-prices the whole order from the current
// catalog. The returned order includes its items.
func (e *Engine) AmendOrder(ctx context.Context, caller types.Credential, orderID, productID int64, quantity int) (*types.Order, error) {
	caller = caller.Normalize()
	var order *types.Order
	err := e.inTx(ctx, func(s *session) error {
		var err error
		order, err = s.ownedOrder(ctx, caller, orderID)
		if err != nil {
			return err
		}
		if order.Status != types.StatusPending {
			return types.ErrOrderFinalized
		}
		if quantity <= 0 || quantity > types.MaxQuantity {
			return types.InvalidInputf("quantity must be an integer from 1 to %d", types.MaxQuantity)
		}

		if _, err := s.catalog.Get(ctx, productID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return &types.UnknownProductError{IDs: []int64{productID}}
			}
			return err
		}

		if _, err := s.tx.SetOrderItemQuantity(ctx, orderID, productID, quantity); err != nil {
			return fmt.Errorf("set item quantity: %w", err)
		}

		items, err := s.tx.ListOrderItems(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		order.Items = items
		order.TotalAmount = types.SumItems(items)

		return s.tx.UpdateOrderTotal(ctx, orderID, order.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int64("order_id", orderID).
		Int64("product_id", productID).
		Int("quantity", quantity).
		Str("total", order.TotalAmount.StringFixed(types.MaxPriceDecimals)).
		Msg("order amended")
	return order, nil
}

// FinalizeOrder moves a pending order to target (submitted or canceled).
// The status change is one conditional update guarded by ownership.
// Finalizing again with the same target succeeds; moving a finalized order to
// the other terminal status fails with types.ErrOrderFinalized.
func (e *Engine) FinalizeOrder(ctx context.Context, caller types.Credential, orderID int64, target types.OrderStatus) (*types.Order, error) {
	if !types.StatusPending.CanTransitionTo(target) {
		return nil, types.InvalidInputf("cannot finalize an order as %q", target)
	}
	caller = caller.Normalize()

	var order *types.Order
	err := e.inTx(ctx, func(s *session) error {
		err := s.tx.FinalizeOrderStatus(ctx, orderID, caller.Email, target)
		if errors.Is(err, storage.ErrNotFound) {
			// No match: missing, foreign, or already in the other terminal status
			existing, lookupErr := s.ownedOrder(ctx, caller, orderID)
			if lookupErr != nil {
				return lookupErr
			}
			if existing.Status.IsFinal() {
				return types.ErrOrderFinalized
			}
			return types.ErrInvalidOrder
		}
		if err != nil {
			return fmt.Errorf("finalize order: %w", err)
		}

		order, err = s.ownedOrder(ctx, caller, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("order_id", orderID).Str("status", string(target)).Msg("order finalized")
	return order, nil
}

// GetOrder returns one of the caller's orders, with its items when withItems
// is set
func (e *Engine) GetOrder(ctx context.Context, caller types.Credential, orderID int64, withItems bool) (*types.Order, error) {
	caller = caller.Normalize()
	var order *types.Order
	err := e.inTx(ctx, func(s *session) error {
		var err error
		order, err = s.ownedOrder(ctx, caller, orderID)
		if err != nil {
			return err
		}
		if !withItems {
			return nil
		}
		order.Items, err = s.tx.ListOrderItems(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns every order of the caller's account in storage order
func (e *Engine) ListOrders(ctx context.Context, caller types.Credential) ([]*types.Order, error) {
	caller = caller.Normalize()
	var orders []*types.Order
	err := e.inTx(ctx, func(s *session) error {
		account, err := s.resolveAccount(ctx, caller)
		if err != nil {
			return err
		}
		orders, err = s.tx.ListOrdersByAccount(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
