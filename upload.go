package blossom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meigma/blossom/auth"
	"github.com/meigma/blossom/cashu"
)

// Upload pushes the blob to one server, resolving authorization and payment
// challenges inline, and returns the server's descriptor.
//
// The handshake is preflight-then-commit: a HEAD request carrying the blob's
// hash, size, and type lets the server reject (or challenge) before any
// payload bytes move. Challenges are resolved lazily: nothing is attached
// until the server asks. At most one credential resolution and one token
// mint happen per attempt; a 401 that persists after a credential was
// supplied fails with [ErrUnauthorized].
func (c *Client) Upload(ctx context.Context, server string, blob *Blob) (*Descriptor, error) {
	return c.upload(ctx, server, blob, c.credentialFor(blob), c.paymentFor(blob))
}

func (c *Client) upload(ctx context.Context, server string, blob *Blob, creds credentialFunc, pay paymentFunc) (*Descriptor, error) {
	id, err := blob.Identity()
	if err != nil {
		return nil, fmt.Errorf("upload to %s: %w", server, err)
	}

	hdr := make(http.Header)
	hdr.Set(headerSHA256, id.SHA256)
	hdr.Set(headerContentLength, strconv.FormatInt(id.Size, 10))
	if id.Type != "" {
		hdr.Set(headerContentType, id.Type)
	}
	if c.userAgent != "" {
		hdr.Set("User-Agent", c.userAgent)
	}

	var authTried, payTried bool
preflight:
	for {
		status, payReq, body, err := c.preflight(ctx, server, hdr)
		if err != nil {
			return nil, fmt.Errorf("upload to %s: %w", server, err)
		}

		switch {
		case success(status):
			break preflight

		case status == http.StatusUnauthorized && !authTried:
			authTried = true
			cred, err := creds(ctx, server, auth.ActionUpload, id.SHA256)
			if err != nil {
				return nil, fmt.Errorf("upload to %s: %w", server, err)
			}
			value, err := cred.Header()
			if err != nil {
				return nil, fmt.Errorf("upload to %s: %w", server, err)
			}
			hdr.Set(headerAuthorization, value)

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, fmt.Errorf("upload to %s: %w", server, ErrUnauthorized)

		case status == http.StatusPaymentRequired && !payTried:
			payTried = true
			if payReq == nil {
				return nil, fmt.Errorf("upload to %s: %w", server, &HTTPError{Status: status, Body: body})
			}
			c.log().Debug("payment required", "server", server, "amount", payReq.String())
			token, err := pay(ctx, server, id.SHA256, payReq)
			if err != nil {
				return nil, fmt.Errorf("upload to %s: %w", server, err)
			}
			// The token is single-use. Skip re-running the preflight and
			// spend it on the commit instead.
			hdr.Set(headerCashu, string(token))
			break preflight

		default:
			return nil, fmt.Errorf("upload to %s: %w", server, &HTTPError{Status: status, Body: body})
		}
	}

	desc, err := c.commit(ctx, server, blob, id, hdr)
	if err != nil {
		return nil, fmt.Errorf("upload to %s: %w", server, err)
	}
	c.log().Debug("uploaded blob", "server", server, "sha256", id.SHA256, "size", id.Size)
	return desc, nil
}

// preflight issues the metadata-only check against the upload endpoint.
// It returns the status, the parsed payment request on a 402 (nil when the
// header is missing or malformed), and any retained error body.
func (c *Client) preflight(ctx context.Context, server string, hdr http.Header) (int, *cashu.PaymentRequest, string, error) {
	endpoint, err := url.JoinPath(server, "upload")
	if err != nil {
		return 0, nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, http.NoBody)
	if err != nil {
		return 0, nil, "", err
	}
	applyHeader(req, hdr)

	resp, err := c.http().Do(req)
	if err != nil {
		return 0, nil, "", err
	}

	var payReq *cashu.PaymentRequest
	if resp.StatusCode == http.StatusPaymentRequired {
		if value := resp.Header.Get(headerCashu); value != "" {
			parsed, parseErr := cashu.ParsePaymentRequest(value)
			if parseErr != nil {
				drainBody(resp)
				return 0, nil, "", parseErr
			}
			payReq = parsed
		}
	}
	body := drainBody(resp)
	return resp.StatusCode, payReq, body, nil
}

// commit transfers the blob body with the accumulated header set and parses
// the returned descriptor.
func (c *Client) commit(ctx context.Context, server string, blob *Blob, id Identity, hdr http.Header) (*Descriptor, error) {
	endpoint, err := url.JoinPath(server, "upload")
	if err != nil {
		return nil, err
	}
	body, err := blob.Open()
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		body.Close()
		return nil, err
	}
	req.ContentLength = id.Size
	applyHeader(req, hdr)

	resp, err := c.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if !success(resp.StatusCode) {
		return nil, &HTTPError{Status: resp.StatusCode, Body: errBody(resp)}
	}

	var desc Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if desc.SHA256 != id.SHA256 {
		return nil, fmt.Errorf("descriptor hash %s, want %s: %w", desc.SHA256, id.SHA256, ErrDigestMismatch)
	}
	return &desc, nil
}
