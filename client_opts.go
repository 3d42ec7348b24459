package blossom

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/meigma/blossom/auth"
)

// Option configures a Client.
type Option func(*Client) error

// --- Transport Options ---

// WithHTTPClient sets the HTTP client used for all requests.
// The default is http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header for server requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// --- Authorization Options ---

// WithSigner installs a credential resolver that signs a fresh authorization
// event with the given nostr secret key (hex) whenever a server challenges.
//
// Combined with the credential cache used during [Client.Distribute], one
// signed event is reused across every server whose challenge it covers.
func WithSigner(secretKey string) Option {
	return func(c *Client) error {
		if secretKey == "" {
			return errors.New("blossom: empty secret key")
		}
		c.credentials = CredentialResolverFunc(func(_ context.Context, _, action, sha256 string, _ *Blob) (*auth.Credential, error) {
			return auth.New(secretKey, action, sha256, c.authTTL)
		})
		return nil
	}
}

// WithCredentialResolver sets a custom credential resolver, replacing any
// signer installed by [WithSigner]. Use this when signing requires user
// interaction (e.g., a NIP-07 style prompt or remote signer).
func WithCredentialResolver(resolver CredentialResolver) Option {
	return func(c *Client) error {
		c.credentials = resolver
		return nil
	}
}

// WithAuthTTL sets the validity window of credentials produced by
// [WithSigner]. The default is [auth.DefaultTTL].
func WithAuthTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl <= 0 {
			return errors.New("blossom: auth TTL must be positive")
		}
		c.authTTL = ttl
		return nil
	}
}

// --- Payment Options ---

// WithPaymentResolver sets the resolver that mints Cashu tokens when a
// server demands payment. Without one, paid servers fail with
// [ErrMissingPaymentHandler].
func WithPaymentResolver(resolver PaymentResolver) Option {
	return func(c *Client) error {
		c.payments = resolver
		return nil
	}
}

// --- Observability Options ---

// WithLogger sets a logger for the client.
// If nil, a discard logger is used (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}
