package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// dataSourceName turns a database path into a file: URI carrying params.
// Both drivers read connection settings from the URI query.
func dataSourceName(dbPath, params string) string {
	dsn := dbPath
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if params == "" {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// openDatabase opens a SQLite database with appropriate settings. Foreign
// keys are a per-connection setting, so they are requested in the DSN.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dataSourceName(dbPath, foreignKeysParam))
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// A single connection serializes writers at the transaction boundary
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// Both drivers report it with the same SQLite message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireAffected maps a zero rows-affected result to ErrNotFound
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// Account operations

func (s *SQLiteStorage) createAccountWithQuerier(ctx context.Context, q querier, account *types.Account) error {
	query := `INSERT INTO accounts (name, email, signup_date) VALUES (?, ?, ?)`
	if account.SignupDate.IsZero() {
		account.SignupDate = time.Now().UTC()
	}
	result, err := q.ExecContext(ctx, query, account.Name, account.Email, account.SignupDate)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %s: %w", account.Email, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *types.Account) error {
	return s.createAccountWithQuerier(ctx, s.querier(), account)
}

func (s *SQLiteStorage) getAccountByEmailWithQuerier(ctx context.Context, q querier, email string) (*types.Account, error) {
	query := `SELECT id, name, email, signup_date FROM accounts WHERE email = ?`
	var account types.Account
	err := q.QueryRowContext(ctx, query, email).Scan(
		&account.ID, &account.Name, &account.Email, &account.SignupDate,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *SQLiteStorage) GetAccountByEmail(ctx context.Context, email string) (*types.Account, error) {
	return s.getAccountByEmailWithQuerier(ctx, s.querier(), email)
}

// Product operations

const productColumns = `id, name, description, price, keywords, available`

func scanProduct(row scanner) (*types.Product, error) {
	var product types.Product
	var description, keywords sql.NullString
	err := row.Scan(
		&product.ID, &product.Name, &description, &product.Price,
		&keywords, &product.Available,
	)
	if err != nil {
		return nil, err
	}
	product.Description = description.String
	product.Keywords = keywords.String
	return &product, nil
}

func collectProducts(rows *sql.Rows) ([]*types.Product, error) {
	defer func() { _ = rows.Close() }()

	products := make([]*types.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (s *SQLiteStorage) createProductWithQuerier(ctx context.Context, q querier, product *types.Product) error {
	query := `
		INSERT INTO products (name, description, price, keywords, available)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		product.Name, product.Description, product.Price.InexactFloat64(),
		product.Keywords, product.Available)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = id
	return nil
}

func (s *SQLiteStorage) CreateProduct(ctx context.Context, product *types.Product) error {
	return s.createProductWithQuerier(ctx, s.querier(), product)
}

func (s *SQLiteStorage) getProductWithQuerier(ctx context.Context, q querier, productID int64) (*types.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(q.QueryRowContext(ctx, query, productID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *SQLiteStorage) GetProduct(ctx context.Context, productID int64) (*types.Product, error) {
	return s.getProductWithQuerier(ctx, s.querier(), productID)
}

func (s *SQLiteStorage) listProductsWithQuerier(ctx context.Context, q querier) ([]*types.Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]*types.Product, error) {
	return s.listProductsWithQuerier(ctx, s.querier())
}

// listProductsByIDsWithQuerier returns the products matching the distinct ids.
// Unknown ids are silently absent from the result.
func (s *SQLiteStorage) listProductsByIDsWithQuerier(ctx context.Context, q querier, productIDs []int64) ([]*types.Product, error) {
	if len(productIDs) == 0 {
		return []*types.Product{}, nil
	}

	seen := make(map[int64]struct{}, len(productIDs))
	placeholders := make([]string, 0, len(productIDs))
	args := make([]interface{}, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id IN (%s) ORDER BY id`,
		productColumns, strings.Join(placeholders, ","))
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (s *SQLiteStorage) ListProductsByIDs(ctx context.Context, productIDs []int64) ([]*types.Product, error) {
	return s.listProductsByIDsWithQuerier(ctx, s.querier(), productIDs)
}

func (s *SQLiteStorage) updateProductAvailabilityWithQuerier(ctx context.Context, q querier, productID int64, available int) error {
	result, err := q.ExecContext(ctx, `UPDATE products SET available = ? WHERE id = ?`, available, productID)
	if err != nil {
		return fmt.Errorf("failed to update product availability: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) UpdateProductAvailability(ctx context.Context, productID int64, available int) error {
	return s.updateProductAvailabilityWithQuerier(ctx, s.querier(), productID, available)
}

func (s *SQLiteStorage) updateProductPriceWithQuerier(ctx context.Context, q querier, productID int64, price decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `UPDATE products SET price = ? WHERE id = ?`, price.InexactFloat64(), productID)
	if err != nil {
		return fmt.Errorf("failed to update product price: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	return s.updateProductPriceWithQuerier(ctx, s.querier(), productID, price)
}

func (s *SQLiteStorage) countProductsWithQuerier(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) CountProducts(ctx context.Context) (int, error) {
	return s.countProductsWithQuerier(ctx, s.querier())
}

// Order operations

func scanOrder(row scanner) (*types.Order, error) {
	var order types.Order
	var status string
	err := row.Scan(&order.ID, &order.AccountID, &order.OrderDate, &status, &order.TotalAmount)
	if err != nil {
		return nil, err
	}
	order.Status = types.OrderStatus(status)
	return &order, nil
}

func (s *SQLiteStorage) createOrderWithQuerier(ctx context.Context, q querier, order *types.Order) error {
	query := `
		INSERT INTO orders (account_id, order_date, status, total_amount)
		VALUES (?, ?, ?, ?)
	`
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now().UTC()
	}
	if order.Status == "" {
		order.Status = types.StatusPending
	}
	result, err := q.ExecContext(ctx, query,
		order.AccountID, order.OrderDate, string(order.Status),
		order.TotalAmount.Round(types.MaxPriceDecimals).InexactFloat64())
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = id
	return nil
}

func (s *SQLiteStorage) CreateOrder(ctx context.Context, order *types.Order) error {
	return s.createOrderWithQuerier(ctx, s.querier(), order)
}

// getOrderForAccountWithQuerier joins on accounts so that an order owned by
// another account is indistinguishable from a missing one.
func (s *SQLiteStorage) getOrderForAccountWithQuerier(ctx context.Context, q querier, orderID int64, email string) (*types.Order, error) {
	query := `
		SELECT o.id, o.account_id, o.order_date, o.status, o.total_amount
		FROM orders o
		JOIN accounts a ON o.account_id = a.id
		WHERE o.id = ? AND a.email = ?
	`
	order, err := scanOrder(q.QueryRowContext(ctx, query, orderID, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SQLiteStorage) GetOrderForAccount(ctx context.Context, orderID int64, email string) (*types.Order, error) {
	return s.getOrderForAccountWithQuerier(ctx, s.querier(), orderID, email)
}

func (s *SQLiteStorage) listOrdersByAccountWithQuerier(ctx context.Context, q querier, accountID int64) ([]*types.Order, error) {
	query := `
		SELECT id, account_id, order_date, status, total_amount
		FROM orders
		WHERE account_id = ?
	`
	rows, err := q.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*types.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *SQLiteStorage) ListOrdersByAccount(ctx context.Context, accountID int64) ([]*types.Order, error) {
	return s.listOrdersByAccountWithQuerier(ctx, s.querier(), accountID)
}

func (s *SQLiteStorage) updateOrderTotalWithQuerier(ctx context.Context, q querier, orderID int64, total decimal.Decimal) error {
	result, err := q.ExecContext(ctx, `UPDATE orders SET total_amount = ? WHERE id = ?`,
		total.Round(types.MaxPriceDecimals).InexactFloat64(), orderID)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	return s.updateOrderTotalWithQuerier(ctx, s.querier(), orderID, total)
}

// finalizeOrderStatusWithQuerier sets status with a single conditional update.
// The WHERE clause carries the ownership check and only matches orders that
// are pending or already in the target status. ErrNotFound means no row matched.
func (s *SQLiteStorage) finalizeOrderStatusWithQuerier(ctx context.Context, q querier, orderID int64, email string, status types.OrderStatus) error {
	query := `
		UPDATE orders SET status = ?
		WHERE id = ?
		  AND account_id = (SELECT id FROM accounts WHERE email = ?)
		  AND status IN (?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		string(status), orderID, email, string(types.StatusPending), string(status))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) FinalizeOrderStatus(ctx context.Context, orderID int64, email string, status types.OrderStatus) error {
	return s.finalizeOrderStatusWithQuerier(ctx, s.querier(), orderID, email, status)
}

// Order item operations

func (s *SQLiteStorage) insertOrderItemsWithQuerier(ctx context.Context, q querier, items []*types.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)`
	for _, item := range items {
		result, err := q.ExecContext(ctx, query, item.OrderID, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item for product %d: %w", item.ProductID, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = id
	}
	return nil
}

func (s *SQLiteStorage) InsertOrderItems(ctx context.Context, items []*types.OrderItem) error {
	return s.insertOrderItemsWithQuerier(ctx, s.querier(), items)
}

// listOrderItemsWithQuerier returns the items of an order joined with the
// current catalog name and price of each product
func (s *SQLiteStorage) listOrderItemsWithQuerier(ctx context.Context, q querier, orderID int64) ([]types.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, p.name, p.price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?
		ORDER BY oi.id
	`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]types.OrderItem, 0)
	for rows.Next() {
		var item types.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.ProductName, &item.UnitPrice,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStorage) ListOrderItems(ctx context.Context, orderID int64) ([]types.OrderItem, error) {
	return s.listOrderItemsWithQuerier(ctx, s.querier(), orderID)
}

// setOrderItemQuantityWithQuerier upserts the line item for (orderID, productID).
// When several rows exist for the pair, the oldest keeps the quantity and the
// rest are deleted, leaving at most one row per pair. Call it inside a
// transaction so the collapse is atomic.
func (s *SQLiteStorage) setOrderItemQuantityWithQuerier(ctx context.Context, q querier, orderID, productID int64, quantity int) (*types.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM order_items WHERE order_id = ? AND product_id = ? ORDER BY id`,
		orderID, productID)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	item := &types.OrderItem{OrderID: orderID, ProductID: productID, Quantity: quantity}

	if len(ids) == 0 {
		if err := s.insertOrderItemsWithQuerier(ctx, q, []*types.OrderItem{item}); err != nil {
			return nil, err
		}
		return item, nil
	}

	item.ID = ids[0]
	if _, err := q.ExecContext(ctx, `UPDATE order_items SET quantity = ? WHERE id = ?`, quantity, item.ID); err != nil {
		return nil, fmt.Errorf("failed to update order item: %w", err)
	}

	if len(ids) > 1 {
		placeholders := make([]string, len(ids)-1)
		args := make([]interface{}, len(ids)-1)
		for i, id := range ids[1:] {
			placeholders[i] = "?"
			args[i] = id
		}
		query := fmt.Sprintf(`DELETE FROM order_items WHERE id IN (%s)`, strings.Join(placeholders, ","))
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to collapse duplicate order items: %w", err)
		}
	}

	return item, nil
}

func (s *SQLiteStorage) SetOrderItemQuantity(ctx context.Context, orderID, productID int64, quantity int) (*types.OrderItem, error) {
	return s.setOrderItemQuantityWithQuerier(ctx, s.querier(), orderID, productID, quantity)
}

// Transaction delegation: every call runs on the transaction's querier

func (t *sqliteTx) CreateAccount(ctx context.Context, account *types.Account) error {
	return t.storage.createAccountWithQuerier(ctx, t.querier(), account)
}

func (t *sqliteTx) GetAccountByEmail(ctx context.Context, email string) (*types.Account, error) {
	return t.storage.getAccountByEmailWithQuerier(ctx, t.querier(), email)
}

func (t *sqliteTx) CreateProduct(ctx context.Context, product *types.Product) error {
	return t.storage.createProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) GetProduct(ctx context.Context, productID int64) (*types.Product, error) {
	return t.storage.getProductWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) ListProducts(ctx context.Context) ([]*types.Product, error) {
	return t.storage.listProductsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) ListProductsByIDs(ctx context.Context, productIDs []int64) ([]*types.Product, error) {
	return t.storage.listProductsByIDsWithQuerier(ctx, t.querier(), productIDs)
}

func (t *sqliteTx) UpdateProductAvailability(ctx context.Context, productID int64, available int) error {
	return t.storage.updateProductAvailabilityWithQuerier(ctx, t.querier(), productID, available)
}

func (t *sqliteTx) UpdateProductPrice(ctx context.Context, productID int64, price decimal.Decimal) error {
	return t.storage.updateProductPriceWithQuerier(ctx, t.querier(), productID, price)
}

func (t *sqliteTx) CountProducts(ctx context.Context) (int, error) {
	return t.storage.countProductsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) CreateOrder(ctx context.Context, order *types.Order) error {
	return t.storage.createOrderWithQuerier(ctx, t.querier(), order)
}

func (t *sqliteTx) GetOrderForAccount(ctx context.Context, orderID int64, email string) (*types.Order, error) {
	return t.storage.getOrderForAccountWithQuerier(ctx, t.querier(), orderID, email)
}

func (t *sqliteTx) ListOrdersByAccount(ctx context.Context, accountID int64) ([]*types.Order, error) {
	return t.storage.listOrdersByAccountWithQuerier(ctx, t.querier(), accountID)
}

func (t *sqliteTx) UpdateOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	return t.storage.updateOrderTotalWithQuerier(ctx, t.querier(), orderID, total)
}

func (t *sqliteTx) FinalizeOrderStatus(ctx context.Context, orderID int64, email string, status types.OrderStatus) error {
	return t.storage.finalizeOrderStatusWithQuerier(ctx, t.querier(), orderID, email, status)
}

func (t *sqliteTx) InsertOrderItems(ctx context.Context, items []*types.OrderItem) error {
	return t.storage.insertOrderItemsWithQuerier(ctx, t.querier(), items)
}

func (t *sqliteTx) ListOrderItems(ctx context.Context, orderID int64) ([]types.OrderItem, error) {
	return t.storage.listOrderItemsWithQuerier(ctx, t.querier(), orderID)
}

func (t *sqliteTx) SetOrderItemQuantity(ctx context.Context, orderID, productID int64, quantity int) (*types.OrderItem, error) {
	return t.storage.setOrderItemQuantityWithQuerier(ctx, t.querier(), orderID, productID, quantity)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
