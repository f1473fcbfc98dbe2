// Package accounts implements the account registry: one account per distinct
// caller email, immutable after creation.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/acme-orders-mcp/internal/storage"
	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// Registry creates and looks up accounts
type Registry struct {
	storage storage.Storage
	log     zerolog.Logger
	now     func() time.Time
}

// NewRegistry creates a registry backed by store
func NewRegistry(store storage.Storage, log zerolog.Logger) *Registry {
	return &Registry{
		storage: store,
		log:     log.With().Str("component", "accounts").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithStore returns a copy of the registry bound to store, typically a
// transaction owned by the caller
func (r *Registry) WithStore(store storage.Storage) *Registry {
	bound := *r
	bound.storage = store
	return &bound
}

// Create registers a new account for the caller
func (r *Registry) Create(ctx context.Context, cred types.Credential) (*types.Account, error) {
	name := strings.TrimSpace(cred.Name)
	email := strings.TrimSpace(cred.Email)
	if name == "" || email == "" {
		return nil, types.InvalidInputf("name and email are required")
	}

	account := &types.Account{Name: name, Email: email, SignupDate: r.now()}
	err := r.storage.CreateAccount(ctx, account)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, types.ErrDuplicateAccount
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	r.log.Info().Int64("account_id", account.ID).Str("email", email).Msg("account created")
	return account, nil
}

// FindByEmail returns the account registered for email
func (r *Registry) FindByEmail(ctx context.Context, email string) (*types.Account, error) {
	account, err := r.storage.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}
