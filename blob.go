package blossom

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/opencontainers/go-digest"
)

// sniffLen is how many leading bytes feed media type detection.
const sniffLen = 3072

// Blob is a re-readable binary payload.
//
// The upload protocol reads a blob at least twice: once to derive its
// identity (hash, size, type) and once to transfer the body, so a blob is
// backed by an opener that can produce the same bytes repeatedly, not by a
// single-consumption stream.
type Blob struct {
	open func() (io.ReadCloser, error)

	mu sync.Mutex
	id *Identity
}

// Identity is the derived metadata of a blob.
type Identity struct {
	// SHA256 is the hex-encoded content hash.
	SHA256 string

	// Size is the payload length in bytes.
	Size int64

	// Type is the sniffed media type.
	Type string
}

// NewBlob creates a blob from an opener. Every call to open must yield the
// same byte sequence.
func NewBlob(open func() (io.ReadCloser, error)) *Blob {
	return &Blob{open: open}
}

// FromBytes creates a blob backed by an in-memory byte slice.
// The slice must not be mutated afterwards.
func FromBytes(data []byte) *Blob {
	return NewBlob(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FromFile creates a blob backed by a file on disk.
// The file is opened lazily and must not change between reads.
func FromFile(path string) *Blob {
	return NewBlob(func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// FromURL creates a blob backed by a remote HTTP resource.
//
// Each read issues a fresh GET, so the remote content must be stable.
// A nil client falls back to [http.DefaultClient].
func FromURL(url string, client *http.Client) *Blob {
	if client == nil {
		client = http.DefaultClient
	}
	return NewBlob(func() (io.ReadCloser, error) {
		resp, err := client.Get(url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &HTTPError{Status: resp.StatusCode}
		}
		return resp.Body, nil
	})
}

// Open returns a fresh reader over the blob's bytes.
// The caller must close it.
func (b *Blob) Open() (io.ReadCloser, error) {
	return b.open()
}

// Identity derives the blob's content hash, byte length, and media type.
//
// The result is computed on first use by reading the blob once, then
// memoized for the blob's lifetime.
func (b *Blob) Identity() (Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.id != nil {
		return *b.id, nil
	}

	r, err := b.open()
	if err != nil {
		return Identity{}, fmt.Errorf("open blob: %w", err)
	}
	defer r.Close()

	digester := digest.SHA256.Digester()
	tee := io.TeeReader(r, digester.Hash())

	var head bytes.Buffer
	n, err := io.CopyN(&head, tee, sniffLen)
	if err != nil && err != io.EOF {
		return Identity{}, fmt.Errorf("read blob: %w", err)
	}
	rest, err := io.Copy(io.Discard, tee)
	if err != nil {
		return Identity{}, fmt.Errorf("read blob: %w", err)
	}

	b.id = &Identity{
		SHA256: digester.Digest().Encoded(),
		Size:   n + rest,
		Type:   mimetype.Detect(head.Bytes()).String(),
	}
	return *b.id, nil
}
