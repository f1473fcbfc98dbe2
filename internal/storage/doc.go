// Package storage provides SQLite-based persistence for the catalog and orders.
//
// The storage layer manages:
//   - Accounts, unique by email
//   - Catalog products (price, available quantity)
//   - Orders and their line items
//
// # Database Schema
//
// Tables:
//   - accounts: id, name, email (UNIQUE), signup_date
//   - products: id, name, description, price, keywords, available
//   - orders: id, account_id, order_date, status, total_amount
//   - order_items: id, order_id, product_id, quantity
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("products.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	account := &types.Account{Name: "Bo", Email: "bo@bojackson.com"}
//	if err := store.CreateAccount(ctx, account); errors.Is(err, storage.ErrAlreadyExists) {
//	    // email taken
//	}
//
// # Transactions
//
// Every logical operation of the order engine runs in one transaction:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.CreateOrder(ctx, order); err != nil {
//	    return err
//	}
//	if err := tx.InsertOrderItems(ctx, items); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// The database is opened with a single connection, so transactions serialize.
// Inside a transaction every read and write must go through the Tx; calling
// the parent storage would wait for the connection the Tx holds.
//
// # Ownership
//
// GetOrderForAccount and FinalizeOrderStatus take the caller's email and join
// on accounts, so an order of another account behaves exactly like a missing
// order (ErrNotFound).
//
// # Build Tags
//
// Default build uses modernc.org/sqlite (pure Go, CGO_ENABLED=0).
// The sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
