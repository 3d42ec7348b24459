package blossom

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/meigma/blossom/auth"
	"github.com/meigma/blossom/cashu"
)

// Client performs Blossom operations against media servers.
//
// A Client is safe for concurrent use. Servers are identified by their base
// URL (e.g., "https://blossom.example.com").
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	authTTL    time.Duration

	credentials CredentialResolver
	payments    PaymentResolver
}

// NewClient creates a client with the given options.
//
// Without [WithSigner] or [WithCredentialResolver] the client can only talk
// to servers that never challenge for authorization.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.logger
}

// http returns the HTTP client, falling back to http.DefaultClient.
func (c *Client) http() *http.Client {
	if c.httpClient == nil {
		return http.DefaultClient
	}
	return c.httpClient
}

// credentialFunc resolves one credential for a scope, or fails.
type credentialFunc func(ctx context.Context, server, action, sha256 string) (*auth.Credential, error)

// paymentFunc mints one fresh token for a payment challenge, or fails.
type paymentFunc func(ctx context.Context, server, sha256 string, req *cashu.PaymentRequest) (cashu.Token, error)

// credentialFor adapts the configured resolver for one blob. The blob may be
// nil for operations that act on a known descriptor or hash.
func (c *Client) credentialFor(blob *Blob) credentialFunc {
	return func(ctx context.Context, server, action, sha256 string) (*auth.Credential, error) {
		if c.credentials == nil {
			return nil, ErrMissingAuthHandler
		}
		cred, err := c.credentials.ResolveCredential(ctx, server, action, sha256, blob)
		if err != nil {
			return nil, err
		}
		if cred == nil {
			return nil, ErrMissingAuthHandler
		}
		return cred, nil
	}
}

// paymentFor adapts the configured payment resolver for one blob.
func (c *Client) paymentFor(blob *Blob) paymentFunc {
	return func(ctx context.Context, server, sha256 string, req *cashu.PaymentRequest) (cashu.Token, error) {
		if c.payments == nil {
			return "", ErrMissingPaymentHandler
		}
		return c.payments.ResolvePayment(ctx, server, sha256, blob, req)
	}
}
