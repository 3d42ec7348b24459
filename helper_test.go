package blossom_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"

	"github.com/meigma/blossom"
	"github.com/meigma/blossom/auth"
	"github.com/meigma/blossom/cashu"
)

// sha256Hex returns the hex content hash of data.
func sha256Hex(data []byte) string {
	return digest.SHA256.FromBytes(data).Encoded()
}

// writeDescriptor responds with a Blossom descriptor for the given blob.
func writeDescriptor(t *testing.T, w http.ResponseWriter, serverURL string, data []byte) {
	t.Helper()
	desc := blossom.Descriptor{
		URL:      serverURL + "/" + sha256Hex(data),
		SHA256:   sha256Hex(data),
		Size:     int64(len(data)),
		Type:     "text/plain; charset=utf-8",
		Uploaded: time.Now().Unix(),
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(desc))
}

// paymentChallenge returns an encoded NUT-18 payment request header value.
func paymentChallenge(t *testing.T, amount uint64) string {
	t.Helper()
	req := cashu.PaymentRequest{
		ID:        "test-request",
		Amount:    amount,
		Unit:      "sat",
		SingleUse: true,
		Mints:     []string{"https://mint.example.com"},
	}
	encoded, err := req.Encode()
	require.NoError(t, err)
	return encoded
}

// countingCredentials returns a resolver that counts invocations and hands
// out credentials signed with a throwaway key.
func countingCredentials(t *testing.T, calls *int) blossom.CredentialResolverFunc {
	t.Helper()
	secretKey := nostr.GeneratePrivateKey()
	return func(_ context.Context, _, action, sha256 string, _ *blossom.Blob) (*auth.Credential, error) {
		*calls++
		return auth.New(secretKey, action, sha256, time.Minute)
	}
}
