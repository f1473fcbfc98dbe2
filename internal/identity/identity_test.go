package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    types.Credential
		wantErr error
	}{
		{
			name:   "well formed",
			header: "name=Bo Jackson; email=bo@bojackson.com",
			want:   types.Credential{Name: "Bo Jackson", Email: "bo@bojackson.com"},
		},
		{
			name:   "extra keys and spacing",
			header: " scope=read ;email = a@x.com;name= A ; junk",
			want:   types.Credential{Name: "A", Email: "a@x.com"},
		},
		{
			name:   "value containing equals",
			header: "name=a=b;email=ab@x.com",
			want:   types.Credential{Name: "a=b", Email: "ab@x.com"},
		},
		{
			name:    "missing email",
			header:  "name=A",
			wantErr: ErrIncompleteIdentity,
		},
		{
			name:    "missing name",
			header:  "email=a@x.com",
			wantErr: ErrIncompleteIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver(t *testing.T) {
	t.Run("fallback disabled", func(t *testing.T) {
		r := NewResolver(false)
		_, err := r.Resolve("")
		assert.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("fallback enabled", func(t *testing.T) {
		r := NewResolver(true)
		cred, err := r.Resolve("  ")
		require.NoError(t, err)
		assert.Equal(t, DevFallback, cred)
	})

	t.Run("header wins over fallback", func(t *testing.T) {
		r := NewResolver(true)
		cred, err := r.Resolve("name=A;email=a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", cred.Email)
	})
}

func TestContextCarriage(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithCredential(context.Background(), types.Credential{Name: "A", Email: "a@x.com"})
	cred, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", cred.Email)

	ctx = WithCredential(context.Background(), types.Credential{})
	_, ok = FromContext(ctx)
	assert.False(t, ok)
}
