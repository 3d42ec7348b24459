package blossom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/meigma/blossom/auth"
	"github.com/opencontainers/go-digest"
)

// Get retrieves a blob by hash and verifies the returned bytes against it.
// A content mismatch fails with [ErrDigestMismatch]; a missing blob fails
// with [ErrNotFound].
func (c *Client) Get(ctx context.Context, server, sha256 string) ([]byte, error) {
	endpoint, err := url.JoinPath(server, sha256)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", server, err)
	}

	scope := requestScope{server: server, action: auth.ActionGet, sha256: sha256}
	resp, err := c.do(ctx, scope, c.credentialFor(nil), c.paymentFor(nil), func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	})
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("get %s from %s: %w", sha256, server, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", server, err)
	}
	defer closeBody(resp)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: read body: %w", server, err)
	}
	if digest.SHA256.FromBytes(data).Encoded() != sha256 {
		return nil, fmt.Errorf("get %s from %s: %w", sha256, server, ErrDigestMismatch)
	}
	return data, nil
}

// Has reports whether the server stores a blob with the given hash.
func (c *Client) Has(ctx context.Context, server, sha256 string) (bool, error) {
	endpoint, err := url.JoinPath(server, sha256)
	if err != nil {
		return false, fmt.Errorf("head %s: %w", server, err)
	}

	scope := requestScope{server: server, action: auth.ActionGet, sha256: sha256}
	resp, err := c.do(ctx, scope, c.credentialFor(nil), c.paymentFor(nil), func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodHead, endpoint, http.NoBody)
	})
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", server, err)
	}
	closeBody(resp)
	return true, nil
}
