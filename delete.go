package blossom

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meigma/blossom/auth"
)

// Delete removes a blob from the server, following the same challenge idiom
// as uploads. Servers only honor deletes signed by the blob's owner.
func (c *Client) Delete(ctx context.Context, server, sha256 string) error {
	endpoint, err := url.JoinPath(server, sha256)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", server, err)
	}

	scope := requestScope{server: server, action: auth.ActionDelete, sha256: sha256}
	resp, err := c.do(ctx, scope, c.credentialFor(nil), c.paymentFor(nil), func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", server, err)
	}
	closeBody(resp)
	c.log().Debug("deleted blob", "server", server, "sha256", sha256)
	return nil
}
