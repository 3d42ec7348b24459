package blossom

import (
	"context"

	"github.com/meigma/blossom/auth"
)

// DistributeOption configures a Distribute run.
type DistributeOption func(*distributeConfig)

type distributeConfig struct {
	onSuccess func(server string, blob *Blob)
	onFailure func(server string, blob *Blob, err error)
}

// WithOnSuccess registers a callback invoked after each server accepts the
// blob, whether by mirror or by full upload.
func WithOnSuccess(fn func(server string, blob *Blob)) DistributeOption {
	return func(cfg *distributeConfig) {
		cfg.onSuccess = fn
	}
}

// WithOnFailure registers a callback invoked when a server terminally
// rejects the blob. The run continues with the remaining servers.
func WithOnFailure(fn func(server string, blob *Blob, err error)) DistributeOption {
	return func(cfg *distributeConfig) {
		cfg.onFailure = fn
	}
}

// Distribute pushes one blob to every server in the set and returns the
// descriptors of the servers that accepted it.
//
// Servers are attempted strictly in order, one at a time, so interactive
// credential or payment prompts never overlap. Once one server holds the
// blob, each later server is first asked to mirror from that copy; only if
// the mirror fails does the client fall back to a full upload. A server's
// terminal failure is reported through [WithOnFailure] and excluded from
// the result map without aborting the run.
//
// One credential cache spans the whole run: a credential signed for one
// server is retried against the next before the resolver is consulted
// again. Payment tokens are never shared; every 402 mints a fresh one.
//
// Cancelling ctx aborts the in-flight attempt, stops scheduling further
// servers, and returns the partial results accumulated so far alongside
// ctx.Err().
func (c *Client) Distribute(ctx context.Context, servers []string, blob *Blob, opts ...DistributeOption) (map[string]*Descriptor, error) {
	cfg := distributeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache := auth.NewCache(func(ctx context.Context, server, action, sha256 string) (*auth.Credential, error) {
		if c.credentials == nil {
			return nil, ErrMissingAuthHandler
		}
		return c.credentials.ResolveCredential(ctx, server, action, sha256, blob)
	})
	creds := func(ctx context.Context, server, action, sha256 string) (*auth.Credential, error) {
		return cache.Resolve(ctx, server, action, sha256)
	}
	pay := c.paymentFor(blob)

	results := make(map[string]*Descriptor, len(servers))
	var first *Descriptor

	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		var desc *Descriptor
		if first != nil {
			mirrored, err := c.mirror(ctx, server, first, creds, pay)
			if err != nil {
				// Mirror is an optimization: swallow its error and fall
				// back to a full upload.
				c.log().Debug("mirror failed, falling back to upload", "server", server, "error", err)
			} else {
				desc = mirrored
			}
		}

		if desc == nil {
			uploaded, err := c.upload(ctx, server, blob, creds, pay)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return results, ctxErr
				}
				c.log().Warn("distribution failed for server", "server", server, "error", err)
				if cfg.onFailure != nil {
					cfg.onFailure(server, blob, err)
				}
				continue
			}
			desc = uploaded
		}

		results[server] = desc
		if first == nil {
			first = desc
		}
		if cfg.onSuccess != nil {
			cfg.onSuccess(server, blob)
		}
	}

	return results, nil
}
