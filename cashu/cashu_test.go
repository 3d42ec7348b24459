package cashu_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/blossom/cashu"
)

func TestPaymentRequestRoundTrip(t *testing.T) {
	t.Parallel()

	req := cashu.PaymentRequest{
		ID:          "req-1",
		Amount:      21,
		Unit:        "sat",
		SingleUse:   true,
		Mints:       []string{"https://mint.example.com"},
		Description: "storage fee",
	}

	encoded, err := req.Encode()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "creqA"))

	decoded, err := cashu.ParsePaymentRequest(encoded)
	require.NoError(t, err)
	assert.Equal(t, &req, decoded)
}

func TestParsePaymentRequestInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong prefix", "cashuAeyJ0b2tlbiI6W119"},
		{"unsupported version", "creqZabcdef"},
		{"bad base64", "creqA!!!!"},
		{"not cbor", "creqAaGVsbG8"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cashu.ParsePaymentRequest(tt.input)
			require.ErrorIs(t, err, cashu.ErrInvalidRequest)
		})
	}
}

func TestPaymentRequestString(t *testing.T) {
	t.Parallel()

	req := cashu.PaymentRequest{Amount: 42, Unit: "sat"}
	assert.Equal(t, "42 sat", req.String())

	bare := cashu.PaymentRequest{Amount: 7}
	assert.Equal(t, "7 sat", bare.String())
}
