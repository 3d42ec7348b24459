package blossom

import (
	"context"

	"github.com/meigma/blossom/auth"
	"github.com/meigma/blossom/cashu"
)

// CredentialResolver produces authorization credentials on demand.
//
// The resolver is invoked only after a server responds 401, never eagerly,
// so interactive implementations prompt at most once per unsatisfied
// challenge. blob is the payload being written and may be nil for
// operations on a known hash (mirror, delete, list).
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, server, action, sha256 string, blob *Blob) (*auth.Credential, error)
}

// CredentialResolverFunc adapts a function to the CredentialResolver
// interface.
type CredentialResolverFunc func(ctx context.Context, server, action, sha256 string, blob *Blob) (*auth.Credential, error)

// ResolveCredential implements CredentialResolver.
func (f CredentialResolverFunc) ResolveCredential(ctx context.Context, server, action, sha256 string, blob *Blob) (*auth.Credential, error) {
	return f(ctx, server, action, sha256, blob)
}

// PaymentResolver mints ecash tokens to satisfy payment challenges.
//
// Every 402 challenge triggers a fresh invocation: tokens are single-use and
// are never cached or shared across servers.
type PaymentResolver interface {
	ResolvePayment(ctx context.Context, server, sha256 string, blob *Blob, req *cashu.PaymentRequest) (cashu.Token, error)
}

// PaymentResolverFunc adapts a function to the PaymentResolver interface.
type PaymentResolverFunc func(ctx context.Context, server, sha256 string, blob *Blob, req *cashu.PaymentRequest) (cashu.Token, error)

// ResolvePayment implements PaymentResolver.
func (f PaymentResolverFunc) ResolvePayment(ctx context.Context, server, sha256 string, blob *Blob, req *cashu.PaymentRequest) (cashu.Token, error) {
	return f(ctx, server, sha256, blob, req)
}
