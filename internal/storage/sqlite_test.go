package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func createTestProduct(t *testing.T, s Storage, name, price string) *types.Product {
	t.Helper()
	product := &types.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Keywords:  name,
		Available: 10,
	}
	require.NoError(t, s.CreateProduct(context.Background(), product))
	return product
}

func createTestAccount(t *testing.T, s Storage, email string) *types.Account {
	t.Helper()
	account := &types.Account{Name: "Tester", Email: email}
	require.NoError(t, s.CreateAccount(context.Background(), account))
	return account
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	assert.NotNil(t, storage.db)
}

func TestCreateAccount(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	account := createTestAccount(t, storage, "a@x.com")
	assert.Greater(t, account.ID, int64(0))
	assert.False(t, account.SignupDate.IsZero())

	// Duplicate email violates the unique constraint
	err := storage.CreateAccount(ctx, &types.Account{Name: "Other", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetAccountByEmail(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	created := createTestAccount(t, storage, "a@x.com")

	retrieved, err := storage.GetAccountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, "Tester", retrieved.Name)

	_, err = storage.GetAccountByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRoundTrip(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	product := createTestProduct(t, storage, "anvil", "89.99")

	retrieved, err := storage.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "anvil", retrieved.Name)
	assert.True(t, retrieved.Price.Equal(decimal.RequireFromString("89.99")), "got %s", retrieved.Price)
	assert.Equal(t, 10, retrieved.Available)

	_, err = storage.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	product := createTestProduct(t, storage, "anvil", "89.99")

	require.NoError(t, storage.UpdateProductAvailability(ctx, product.ID, 0))
	require.NoError(t, storage.UpdateProductPrice(ctx, product.ID, decimal.RequireFromString("12.50")))

	updated, err := storage.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Available)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.5")))

	assert.ErrorIs(t, storage.UpdateProductAvailability(ctx, 999, 1), ErrNotFound)
	assert.ErrorIs(t, storage.UpdateProductPrice(ctx, 999, decimal.NewFromInt(1)), ErrNotFound)
}

func TestListProductsByIDs(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	p1 := createTestProduct(t, storage, "one", "1.00")
	p2 := createTestProduct(t, storage, "two", "2.00")
	createTestProduct(t, storage, "three", "3.00")

	products, err := storage.ListProductsByIDs(ctx, []int64{p2.ID, p1.ID, p1.ID, 999})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, p1.ID, products[0].ID)
	assert.Equal(t, p2.ID, products[1].ID)

	empty, err := storage.ListProductsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	count, err := storage.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestOrderWithItems(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	account := createTestAccount(t, storage, "a@x.com")
	p1 := createTestProduct(t, storage, "one", "10.00")
	p2 := createTestProduct(t, storage, "two", "5.00")

	order := &types.Order{AccountID: account.ID, TotalAmount: decimal.RequireFromString("15.00")}
	require.NoError(t, storage.CreateOrder(ctx, order))
	assert.Equal(t, types.StatusPending, order.Status)

	items := []*types.OrderItem{
		{OrderID: order.ID, ProductID: p1.ID, Quantity: 1},
		{OrderID: order.ID, ProductID: p2.ID, Quantity: 1},
	}
	require.NoError(t, storage.InsertOrderItems(ctx, items))
	assert.Greater(t, items[0].ID, int64(0))

	retrieved, err := storage.GetOrderForAccount(ctx, order.ID, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, retrieved.Status)
	assert.True(t, retrieved.TotalAmount.Equal(decimal.NewFromInt(15)))

	listed, err := storage.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "one", listed[0].ProductName)
	assert.True(t, listed[0].UnitPrice.Equal(decimal.NewFromInt(10)))

	orders, err := storage.ListOrdersByAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestGetOrderForAccount_Ownership(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	owner := createTestAccount(t, storage, "owner@x.com")
	createTestAccount(t, storage, "other@x.com")

	order := &types.Order{AccountID: owner.ID}
	require.NoError(t, storage.CreateOrder(ctx, order))

	_, err := storage.GetOrderForAccount(ctx, order.ID, "other@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.GetOrderForAccount(ctx, order.ID+100, "owner@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeOrderStatus(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	owner := createTestAccount(t, storage, "owner@x.com")
	createTestAccount(t, storage, "other@x.com")

	order := &types.Order{AccountID: owner.ID}
	require.NoError(t, storage.CreateOrder(ctx, order))

	// Not owned
	err := storage.FinalizeOrderStatus(ctx, order.ID, "other@x.com", types.StatusSubmitted)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.FinalizeOrderStatus(ctx, order.ID, "owner@x.com", types.StatusSubmitted))

	// Same target matches again
	require.NoError(t, storage.FinalizeOrderStatus(ctx, order.ID, "owner@x.com", types.StatusSubmitted))

	// Other terminal status does not match
	err = storage.FinalizeOrderStatus(ctx, order.ID, "owner@x.com", types.StatusCanceled)
	assert.ErrorIs(t, err, ErrNotFound)

	retrieved, err := storage.GetOrderForAccount(ctx, order.ID, "owner@x.com")
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, retrieved.Status)
}

func TestSetOrderItemQuantity(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	account := createTestAccount(t, storage, "a@x.com")
	p1 := createTestProduct(t, storage, "one", "10.00")
	p2 := createTestProduct(t, storage, "two", "5.00")

	order := &types.Order{AccountID: account.ID}
	require.NoError(t, storage.CreateOrder(ctx, order))
	require.NoError(t, storage.InsertOrderItems(ctx, []*types.OrderItem{
		{OrderID: order.ID, ProductID: p1.ID, Quantity: 1},
		{OrderID: order.ID, ProductID: p1.ID, Quantity: 1},
	}))

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	// Existing pair: duplicates collapse into the first row
	item, err := tx.SetOrderItemQuantity(ctx, order.ID, p1.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	// New pair: inserted
	added, err := tx.SetOrderItemQuantity(ctx, order.ID, p2.ID, 2)
	require.NoError(t, err)
	assert.Greater(t, added.ID, item.ID)

	require.NoError(t, tx.Commit())

	items, err := storage.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, p2.ID, items[1].ProductID)
	assert.Equal(t, 2, items[1].Quantity)
}

func TestTransactionRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.CreateAccount(ctx, &types.Account{Name: "A", Email: "a@x.com"}))
	require.NoError(t, tx.Rollback())

	_, err = storage.GetAccountByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}

func TestForeignKeysEnforced(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	err := storage.CreateOrder(ctx, &types.Order{AccountID: 42})
	assert.Error(t, err)

	account := createTestAccount(t, storage, "a@x.com")
	order := &types.Order{AccountID: account.ID}
	require.NoError(t, storage.CreateOrder(ctx, order))

	err = storage.InsertOrderItems(ctx, []*types.OrderItem{{OrderID: order.ID, ProductID: 999, Quantity: 1}})
	assert.Error(t, err)
}

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		path   string
		params string
		want   string
	}{
		{":memory:", "a=1", "file::memory:?a=1"},
		{"data/acme.db", "a=1", "file:data/acme.db?a=1"},
		{"file:acme.db?mode=rwc", "a=1", "file:acme.db?mode=rwc&a=1"},
		{"acme.db", "", "file:acme.db"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dataSourceName(tt.path, tt.params), tt.path)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	db, err := openDatabase(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Drop idle connections so each query dials a fresh one
	db.SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&enabled))
		assert.Equal(t, 1, enabled, "connection %d", i)
	}
}

func TestSeedCatalog(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	n, err := SeedCatalog(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, len(DemoCatalog), n)

	// Second run is a no-op
	n, err = SeedCatalog(ctx, storage)
	require.NoError(t, err)
	assert.Zero(t, n)

	products, err := storage.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(DemoCatalog))
}
