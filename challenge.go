package blossom

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/meigma/blossom/cashu"
)

// maxErrBody caps how much of an error response body is retained.
const maxErrBody = 8 << 10

// requestScope identifies the resource a challenged request acts on, for
// credential scoping.
type requestScope struct {
	server string
	action string
	sha256 string
}

// success reports whether an HTTP status is in the 2xx range.
func success(status int) bool {
	return status >= 200 && status < 300
}

// do issues the request produced by build and interprets the status code
// contract shared by every Blossom endpoint: 401 resolves a credential and
// retries once, 402 mints a fresh token and retries once, 403 (or a second
// 401) is terminal, and any other failure becomes an [HTTPError].
//
// build is called once per round so request bodies can be re-created. On a
// 2xx the response is returned with its body open; the caller owns it.
func (c *Client) do(ctx context.Context, scope requestScope, creds credentialFunc, pay paymentFunc, build func() (*http.Request, error)) (*http.Response, error) {
	extra := make(http.Header)
	if c.userAgent != "" {
		extra.Set("User-Agent", c.userAgent)
	}

	var authTried, payTried bool
	for {
		req, err := build()
		if err != nil {
			return nil, err
		}
		applyHeader(req, extra)

		resp, err := c.http().Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
		}
		if success(resp.StatusCode) {
			return resp, nil
		}

		payHeader := resp.Header.Get(headerCashu)
		body := drainBody(resp)

		switch {
		case resp.StatusCode == http.StatusUnauthorized && !authTried:
			authTried = true
			cred, err := creds(ctx, scope.server, scope.action, scope.sha256)
			if err != nil {
				return nil, err
			}
			value, err := cred.Header()
			if err != nil {
				return nil, err
			}
			extra.Set(headerAuthorization, value)

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ErrUnauthorized

		case resp.StatusCode == http.StatusPaymentRequired && !payTried:
			payTried = true
			if payHeader == "" {
				return nil, &HTTPError{Status: resp.StatusCode, Body: body}
			}
			payReq, err := cashu.ParsePaymentRequest(payHeader)
			if err != nil {
				return nil, err
			}
			token, err := pay(ctx, scope.server, scope.sha256, payReq)
			if err != nil {
				return nil, err
			}
			extra.Set(headerCashu, string(token))

		default:
			return nil, &HTTPError{Status: resp.StatusCode, Body: body}
		}
	}
}

// applyHeader copies accumulated challenge headers onto a request.
func applyHeader(req *http.Request, hdr http.Header) {
	for key, values := range hdr {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
}

// errBody reads a bounded prefix of the response body for error context.
// It does not close the body.
func errBody(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody)) //nolint:errcheck // best-effort error context
	return string(data)
}

// drainBody reads a bounded prefix of the response body and closes it,
// releasing the connection for reuse.
func drainBody(resp *http.Response) string {
	body := errBody(resp)
	closeBody(resp)
	return body
}

// closeBody drains and closes a response body the caller is done with.
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
	_ = resp.Body.Close()
}
