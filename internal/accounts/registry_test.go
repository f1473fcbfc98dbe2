package accounts

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/acme-orders-mcp/internal/storage"
	"github.com/dshills/acme-orders-mcp/pkg/types"
)

func newTestRegistry(t *testing.T) *Registry {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewRegistry(store, zerolog.Nop())
}

func TestCreate(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	account, err := registry.Create(ctx, types.Credential{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)
	assert.Greater(t, account.ID, int64(0))
	assert.Equal(t, "A", account.Name)
	assert.Equal(t, "a@x.com", account.Email)
	assert.False(t, account.SignupDate.IsZero())
}

func TestCreate_Duplicate(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	_, err := registry.Create(ctx, types.Credential{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = registry.Create(ctx, types.Credential{Name: "Someone Else", Email: "a@x.com"})
	assert.ErrorIs(t, err, types.ErrDuplicateAccount)
}

func TestCreate_InvalidInput(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	for _, cred := range []types.Credential{
		{Name: "", Email: "a@x.com"},
		{Name: "A", Email: ""},
		{Name: "  ", Email: "  "},
	} {
		_, err := registry.Create(ctx, cred)
		assert.ErrorIs(t, err, types.ErrInvalidInput, "credential %+v", cred)
	}
}

func TestFindByEmail(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	created, err := registry.Create(ctx, types.Credential{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	found, err := registry.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = registry.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
