package blossom_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/blossom"
	"github.com/meigma/blossom/cashu"
)

func TestUploadDirectCommit(t *testing.T) {
	t.Parallel()

	data := []byte("hello blossom")
	var heads, puts int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		assert.Equal(t, sha256Hex(data), r.Header.Get("X-SHA-256"))
		assert.Equal(t, strconv.Itoa(len(data)), r.Header.Get("X-Content-Length"))

		switch r.Method {
		case http.MethodHead:
			heads++
		case http.MethodPut:
			puts++
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, data, body)
			writeDescriptor(t, w, server.URL, data)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient()
	require.NoError(t, err)

	desc, err := client.Upload(context.Background(), server.URL, blossom.FromBytes(data))
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(data), desc.SHA256)
	assert.Equal(t, int64(len(data)), desc.Size)
	assert.Equal(t, 1, heads, "exactly one preflight")
	assert.Equal(t, 1, puts, "exactly one commit")
}

func TestUploadAuthChallenge(t *testing.T) {
	t.Parallel()

	data := []byte("auth gated")
	var resolutions, commits int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPut {
			commits++
			writeDescriptor(t, w, server.URL, data)
		}
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithCredentialResolver(countingCredentials(t, &resolutions)),
	)
	require.NoError(t, err)

	desc, err := client.Upload(context.Background(), server.URL, blossom.FromBytes(data))
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(data), desc.SHA256)
	assert.Equal(t, 1, resolutions, "exactly one credential resolution")
	assert.Equal(t, 1, commits, "commit retried exactly once")
}

func TestUploadPersistentUnauthorized(t *testing.T) {
	t.Parallel()

	var resolutions int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithCredentialResolver(countingCredentials(t, &resolutions)),
	)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("nope")))
	require.ErrorIs(t, err, blossom.ErrUnauthorized)
	assert.Equal(t, 1, resolutions, "no second resolution after a repeated 401")
}

func TestUploadForbidden(t *testing.T) {
	t.Parallel()

	var resolutions int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithCredentialResolver(countingCredentials(t, &resolutions)),
	)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("nope")))
	require.ErrorIs(t, err, blossom.ErrUnauthorized)
	assert.Zero(t, resolutions, "403 is terminal, no remediation attempted")
}

func TestUploadPaymentChallenge(t *testing.T) {
	t.Parallel()

	data := []byte("paid content")
	var heads, mints int
	var seenRequest *cashu.PaymentRequest
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			heads++
			w.Header().Set("X-Cashu", paymentChallenge(t, 21))
			w.WriteHeader(http.StatusPaymentRequired)
		case http.MethodPut:
			require.Equal(t, "cashuAtoken", r.Header.Get("X-Cashu"), "commit carries the minted token")
			writeDescriptor(t, w, server.URL, data)
		}
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithPaymentResolver(blossom.PaymentResolverFunc(
			func(_ context.Context, _, _ string, _ *blossom.Blob, req *cashu.PaymentRequest) (cashu.Token, error) {
				mints++
				seenRequest = req
				return "cashuAtoken", nil
			})),
	)
	require.NoError(t, err)

	desc, err := client.Upload(context.Background(), server.URL, blossom.FromBytes(data))
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(data), desc.SHA256)
	assert.Equal(t, 1, heads, "the single-use token is not spent on a second preflight")
	assert.Equal(t, 1, mints)
	require.NotNil(t, seenRequest)
	assert.Equal(t, uint64(21), seenRequest.Amount)
	assert.Equal(t, "sat", seenRequest.Unit)
}

func TestUploadMissingAuthHandler(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient()
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("x")))
	require.ErrorIs(t, err, blossom.ErrMissingAuthHandler)
}

func TestUploadMissingPaymentHandler(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Cashu", paymentChallenge(t, 1))
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient()
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("x")))
	require.ErrorIs(t, err, blossom.ErrMissingPaymentHandler)
}

func TestUploadMalformedPaymentRequest(t *testing.T) {
	t.Parallel()

	var mints int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Cashu", "creqA!!not-base64!!")
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithPaymentResolver(blossom.PaymentResolverFunc(
			func(_ context.Context, _, _ string, _ *blossom.Blob, _ *cashu.PaymentRequest) (cashu.Token, error) {
				mints++
				return "cashuAnever", nil
			})),
	)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("x")))
	require.ErrorIs(t, err, cashu.ErrInvalidRequest)
	assert.Zero(t, mints, "no token is minted against a garbled demand")
}

func TestUploadServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInsufficientStorage)
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient()
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes([]byte("x")))
	var httpErr *blossom.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInsufficientStorage, httpErr.Status)
}

func TestUploadDescriptorMismatch(t *testing.T) {
	t.Parallel()

	data := []byte("real bytes")
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			// Descriptor for different content than what was sent.
			writeDescriptor(t, w, server.URL, []byte("other bytes"))
		}
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient()
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), server.URL, blossom.FromBytes(data))
	require.ErrorIs(t, err, blossom.ErrDigestMismatch)
}

func TestUploadAuthThenPayment(t *testing.T) {
	t.Parallel()

	data := []byte("auth and payment")
	var resolutions int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodHead && r.Header.Get("X-Cashu") == "" {
			w.Header().Set("X-Cashu", paymentChallenge(t, 5))
			w.WriteHeader(http.StatusPaymentRequired)
			return
		}
		if r.Method == http.MethodPut {
			require.NotEmpty(t, r.Header.Get("X-Cashu"))
			writeDescriptor(t, w, server.URL, data)
		}
	}))
	t.Cleanup(server.Close)

	client, err := blossom.NewClient(
		blossom.WithCredentialResolver(countingCredentials(t, &resolutions)),
		blossom.WithPaymentResolver(blossom.PaymentResolverFunc(
			func(_ context.Context, _, _ string, _ *blossom.Blob, _ *cashu.PaymentRequest) (cashu.Token, error) {
				return "cashuAchained", nil
			})),
	)
	require.NoError(t, err)

	desc, err := client.Upload(context.Background(), server.URL, blossom.FromBytes(data))
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(data), desc.SHA256)
	assert.Equal(t, 1, resolutions, "auth satisfied once, then payment chained")
}

func TestUploadTransportError(t *testing.T) {
	t.Parallel()

	client, err := blossom.NewClient()
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "http://127.0.0.1:1", blossom.FromBytes([]byte("x")))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blossom.ErrUnauthorized)

	var httpErr *blossom.HTTPError
	assert.False(t, errors.As(err, &httpErr), "transport failures are not HTTP errors")
}
