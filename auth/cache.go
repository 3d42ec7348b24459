package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSigner is returned when a credential is required but no issuer is
// configured, or the issuer produced no credential.
var ErrNoSigner = errors.New("auth: no credential signer configured")

// IssueFunc produces a fresh credential for the given scope. It may block on
// interactive signing.
type IssueFunc func(ctx context.Context, server, action, sha256 string) (*Credential, error)

// MatchFunc reports whether an existing credential's scope covers a new
// request. It must be side-effect free.
type MatchFunc func(c *Credential, server, action, sha256 string) bool

// MatchScope is the default scope predicate: the action matches, the blob
// hash is covered, and the credential has not expired. Blossom authorization
// events are not bound to a server, so the server argument is ignored.
func MatchScope(c *Credential, _, action, sha256 string) bool {
	return c.Action() == action && c.Covers(sha256) && !c.Expired(time.Now())
}

// Cache reuses credentials across servers within one distribution run.
//
// Resolve scans cached credentials in acquisition order and returns the
// first whose scope covers the request; only when none match is the issuer
// invoked. The cache is append-only: credentials are never evicted during
// its lifetime.
type Cache struct {
	mu    sync.Mutex
	creds []*Credential
	match MatchFunc
	issue IssueFunc
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMatch overrides the scope predicate. The default is [MatchScope].
func WithMatch(match MatchFunc) CacheOption {
	return func(c *Cache) {
		if match != nil {
			c.match = match
		}
	}
}

// NewCache creates a cache that falls back to issue when no cached
// credential matches. A nil issue is allowed; Resolve then fails with
// [ErrNoSigner] on a cache miss.
func NewCache(issue IssueFunc, opts ...CacheOption) *Cache {
	c := &Cache{
		match: MatchScope,
		issue: issue,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns a credential covering the request, reusing a cached one
// when possible.
func (c *Cache) Resolve(ctx context.Context, server, action, sha256 string) (*Credential, error) {
	c.mu.Lock()
	for _, cred := range c.creds {
		if c.match(cred, server, action, sha256) {
			c.mu.Unlock()
			return cred, nil
		}
	}
	c.mu.Unlock()

	if c.issue == nil {
		return nil, ErrNoSigner
	}

	// Issue outside the lock: signing may block on user interaction.
	cred, err := c.issue(ctx, server, action, sha256)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoSigner
	}

	c.mu.Lock()
	c.creds = append(c.creds, cred)
	c.mu.Unlock()
	return cred, nil
}

// Len returns the number of cached credentials.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.creds)
}
