// Package blossom distributes content-addressed blobs to Blossom media
// servers.
//
// Servers are independent and mutually untrusting: each write is gated by a
// signed nostr authorization event and, on paid servers, a Cashu ecash token.
// The client discovers what a server demands with a metadata-only preflight
// check, satisfies the challenge, and only then transfers the payload.
//
// # Basic Usage
//
// Create a client and distribute a file:
//
//	client, err := blossom.NewClient(blossom.WithSigner(secretKey))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blob := blossom.FromFile("photo.jpg")
//	results, err := client.Distribute(ctx, servers, blob)
//
// Distribute pushes to servers one at a time. Once the first server accepts
// the blob, later servers are asked to mirror from that copy instead of
// re-receiving the payload; a failed mirror falls back to a full upload.
// One server's failure never aborts the run: callers observe a partial
// result map plus per-server failure callbacks.
//
// # Authorization and Payment
//
// A 401 response triggers the client's [CredentialResolver] (installed via
// [WithSigner] or [WithCredentialResolver]); credentials obtained during a
// distribution run are reused across servers whose scope they cover. A 402
// response carries a Cashu payment request; the [PaymentResolver] mints a
// fresh single-use token for every such challenge.
package blossom
