package blossom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meigma/blossom/auth"
)

// ListOption configures a List call.
type ListOption func(*listConfig)

type listConfig struct {
	since time.Time
	until time.Time
}

// WithSince restricts the listing to blobs uploaded at or after t.
func WithSince(t time.Time) ListOption {
	return func(cfg *listConfig) {
		cfg.since = t
	}
}

// WithUntil restricts the listing to blobs uploaded at or before t.
func WithUntil(t time.Time) ListOption {
	return func(cfg *listConfig) {
		cfg.until = t
	}
}

// List returns the descriptors of blobs the given pubkey has stored on the
// server, following the same 401/402 challenge idiom as uploads.
func (c *Client) List(ctx context.Context, server, pubkey string, opts ...ListOption) ([]Descriptor, error) {
	cfg := listConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	endpoint, err := url.JoinPath(server, "list", pubkey)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", server, err)
	}
	query := url.Values{}
	if !cfg.since.IsZero() {
		query.Set("since", strconv.FormatInt(cfg.since.Unix(), 10))
	}
	if !cfg.until.IsZero() {
		query.Set("until", strconv.FormatInt(cfg.until.Unix(), 10))
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	scope := requestScope{server: server, action: auth.ActionList}
	resp, err := c.do(ctx, scope, c.credentialFor(nil), c.paymentFor(nil), func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", server, err)
	}
	defer closeBody(resp)

	var descs []Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&descs); err != nil {
		return nil, fmt.Errorf("list %s: decode descriptors: %w", server, err)
	}
	return descs, nil
}
