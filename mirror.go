package blossom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/meigma/blossom/auth"
)

// Mirror asks the destination server to copy the blob described by src from
// the server that already holds it. No payload bytes leave the client.
//
// Mirror is semantically interchangeable with [Client.Upload]: same
// descriptor shape, same challenge handling, same failure modes. Servers
// that cannot mirror (unsupported endpoint, unreachable source) fail
// cleanly so the caller can fall back to a full upload.
func (c *Client) Mirror(ctx context.Context, server string, src *Descriptor) (*Descriptor, error) {
	return c.mirror(ctx, server, src, c.credentialFor(nil), c.paymentFor(nil))
}

func (c *Client) mirror(ctx context.Context, server string, src *Descriptor, creds credentialFunc, pay paymentFunc) (*Descriptor, error) {
	if src == nil || src.URL == "" {
		return nil, errors.New("blossom: mirror source has no URL")
	}

	endpoint, err := url.JoinPath(server, "mirror")
	if err != nil {
		return nil, fmt.Errorf("mirror to %s: %w", server, err)
	}
	payload, err := json.Marshal(map[string]string{"url": src.URL})
	if err != nil {
		return nil, fmt.Errorf("mirror to %s: %w", server, err)
	}

	scope := requestScope{server: server, action: auth.ActionUpload, sha256: src.SHA256}
	resp, err := c.do(ctx, scope, creds, pay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(headerSHA256, src.SHA256)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("mirror to %s: %w", server, err)
	}
	defer closeBody(resp)

	var desc Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("mirror to %s: decode descriptor: %w", server, err)
	}
	if desc.SHA256 != src.SHA256 {
		return nil, fmt.Errorf("mirror to %s: descriptor hash %s, want %s: %w", server, desc.SHA256, src.SHA256, ErrDigestMismatch)
	}
	c.log().Debug("mirrored blob", "server", server, "source", src.URL, "sha256", src.SHA256)
	return &desc, nil
}
