package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestApplyMigrations(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, db))

	for _, table := range []string{"schema_version", "accounts", "products", "orders", "order_items"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}

	v, err := currentVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v.String())

	// Idempotent
	require.NoError(t, ApplyMigrations(ctx, db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, len(AllMigrations), count)
}

func TestRollbackMigration(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, RollbackMigration(ctx, db))

	assert.False(t, tableExists(t, db, "orders"))
	assert.False(t, tableExists(t, db, "accounts"))

	v, err := currentVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())

	// Nothing left to roll back
	assert.Error(t, RollbackMigration(ctx, db))
}

func TestSchemaConstraints(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, db))

	_, err := db.Exec("INSERT INTO products (name, price, available) VALUES ('bad', 0, 1)")
	assert.Error(t, err, "price must be positive")

	_, err = db.Exec("INSERT INTO products (name, price, available) VALUES ('bad', 1.5, -1)")
	assert.Error(t, err, "available must be non-negative")

	_, err = db.Exec("INSERT INTO accounts (name, email, signup_date) VALUES ('a', 'a@x.com', CURRENT_TIMESTAMP)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO orders (account_id, order_date, status) VALUES (1, CURRENT_TIMESTAMP, 'shipped')")
	assert.Error(t, err, "status must be known")
}
