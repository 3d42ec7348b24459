package blossom

import (
	"errors"
	"fmt"

	"github.com/meigma/blossom/auth"
)

// Sentinel errors for client operations.
var (
	// ErrMissingAuthHandler is returned when a server demands authorization
	// but no credential resolver is configured or it produced no credential.
	ErrMissingAuthHandler = auth.ErrNoSigner

	// ErrMissingPaymentHandler is returned when a server demands payment
	// but no payment resolver is configured.
	ErrMissingPaymentHandler = errors.New("blossom: no payment handler configured")

	// ErrUnauthorized is returned when a server responds 403, or responds
	// 401 again after a credential was already supplied.
	ErrUnauthorized = errors.New("blossom: unauthorized")

	// ErrNotFound is returned when a blob does not exist on the server.
	ErrNotFound = errors.New("blossom: blob not found")

	// ErrDigestMismatch is returned when content does not match its expected
	// sha256 hash.
	ErrDigestMismatch = errors.New("blossom: digest mismatch")
)

// HTTPError is returned for server responses outside the challenge protocol:
// any status that is not a success and not a resolvable 401/402/403.
type HTTPError struct {
	// Status is the HTTP status code of the response.
	Status int

	// Body is the response body, truncated to a few kilobytes.
	Body string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("blossom: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("blossom: unexpected status %d: %s", e.Status, e.Body)
}
