// Package identity turns the per-request user-info header into a typed
// caller credential.
//
// The header is a list of key=value pairs separated by semicolons:
//
//	user-info: name=Bo Jackson; email=bo@bojackson.com
//
// The credential is trusted as supplied. Transports resolve it once per
// request; handlers then pass it explicitly to the account registry and the
// order engine.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/dshills/acme-orders-mcp/pkg/types"
)

// HeaderName is the HTTP header carrying the caller identity
const HeaderName = "user-info"

var (
	// ErrNoIdentity is returned when no identity was supplied and no fallback is configured
	ErrNoIdentity = errors.New("caller identity required")
	// ErrIncompleteIdentity is returned when the header lacks a name or an email
	ErrIncompleteIdentity = errors.New("user-info header must include name and email")
)

// DevFallback is the identity substituted for requests without a header when
// the fallback is enabled. Intended for local testing only.
var DevFallback = types.Credential{Name: "Bo Jackson", Email: "bo@bojackson.com"}

// Parse reads name and email from a user-info header value.
// Unknown keys and parts without '=' are ignored.
func Parse(header string) (types.Credential, error) {
	var cred types.Credential
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			cred.Name = strings.TrimSpace(value)
		case "email":
			cred.Email = strings.TrimSpace(value)
		}
	}
	if cred.Name == "" || cred.Email == "" {
		return cred, ErrIncompleteIdentity
	}
	return cred, nil
}

// Resolver resolves header values, substituting Fallback for empty headers
type Resolver struct {
	Fallback *types.Credential
}

// NewResolver creates a resolver; allowFallback enables DevFallback
func NewResolver(allowFallback bool) *Resolver {
	r := &Resolver{}
	if allowFallback {
		fb := DevFallback
		r.Fallback = &fb
	}
	return r
}

// Resolve returns the credential for a header value
func (r *Resolver) Resolve(header string) (types.Credential, error) {
	if strings.TrimSpace(header) == "" {
		if r.Fallback != nil {
			return *r.Fallback, nil
		}
		return types.Credential{}, ErrNoIdentity
	}
	return Parse(header)
}

type contextKey struct{}

// WithCredential attaches a resolved credential to a request context.
// Only transports call this; components receive credentials as arguments.
func WithCredential(ctx context.Context, cred types.Credential) context.Context {
	return context.WithValue(ctx, contextKey{}, cred)
}

// FromContext returns the credential attached by the transport, if any
func FromContext(ctx context.Context) (types.Credential, bool) {
	cred, ok := ctx.Value(contextKey{}).(types.Credential)
	return cred, ok && !cred.IsZero()
}
