// Package cashu carries the Cashu ecash types the Blossom payment challenge
// exchanges: a payment request demanded by a server (402) and the single-use
// token minted to satisfy it.
//
// Payment requests use the NUT-18 serialization: the "creq" prefix, a
// version letter, then an unpadded base64url CBOR map with single-letter
// keys. Token strings are opaque to this package; minting them is the
// wallet's job.
package cashu

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// requestPrefix precedes every serialized payment request.
const requestPrefix = "creq"

// requestVersionA is the only serialization version in use.
const requestVersionA = "A"

// ErrInvalidRequest is returned when a payment request string cannot be
// decoded.
var ErrInvalidRequest = errors.New("cashu: invalid payment request")

// Token is a serialized ecash token ("cashuA…" or "cashuB…").
//
// A token is redeemable exactly once. Tokens must never be reused across
// servers or requests: every payment challenge is satisfied with a freshly
// minted token.
type Token string

// PaymentRequest is a server-issued payment demand.
type PaymentRequest struct {
	// ID identifies the request so the payer can reference it.
	ID string `cbor:"i,omitempty" json:"i,omitempty"`

	// Amount is the demanded amount in Unit.
	Amount uint64 `cbor:"a,omitempty" json:"a,omitempty"`

	// Unit is the currency unit, typically "sat".
	Unit string `cbor:"u,omitempty" json:"u,omitempty"`

	// SingleUse indicates the request may be paid at most once.
	SingleUse bool `cbor:"s,omitempty" json:"s,omitempty"`

	// Mints lists mint URLs whose ecash the payee accepts.
	Mints []string `cbor:"m,omitempty" json:"m,omitempty"`

	// Description is a human-readable note from the payee.
	Description string `cbor:"d,omitempty" json:"d,omitempty"`
}

// ParsePaymentRequest decodes a NUT-18 "creqA…" payment request string.
func ParsePaymentRequest(s string) (*PaymentRequest, error) {
	if !strings.HasPrefix(s, requestPrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidRequest, requestPrefix)
	}
	rest := strings.TrimPrefix(s, requestPrefix)
	if !strings.HasPrefix(rest, requestVersionA) {
		return nil, fmt.Errorf("%w: unsupported version", ErrInvalidRequest)
	}

	raw, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimPrefix(rest, requestVersionA))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var req PaymentRequest
	if err := cbor.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return &req, nil
}

// Encode serializes the request in NUT-18 form. It is the inverse of
// [ParsePaymentRequest] and exists mainly for servers and test fixtures.
func (r *PaymentRequest) Encode() (string, error) {
	raw, err := cbor.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("cashu: encode payment request: %w", err)
	}
	return requestPrefix + requestVersionA + base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(raw), nil
}

// String renders the demand for logs and error messages.
func (r *PaymentRequest) String() string {
	unit := r.Unit
	if unit == "" {
		unit = "sat"
	}
	return fmt.Sprintf("%d %s", r.Amount, unit)
}
