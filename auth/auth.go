// Package auth builds and caches Blossom authorization credentials.
//
// A credential is a signed nostr event (kind 24242) whose tags scope it to
// an action ("upload", "list", "delete", ...) and, for writes, to the sha256
// of the blob being written. It travels in the Authorization header as
// "Nostr <base64(event JSON)>".
package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// KindAuthorization is the nostr event kind for Blossom authorization events.
const KindAuthorization = 24242

// Actions a credential can be scoped to.
const (
	ActionUpload = "upload"
	ActionList   = "list"
	ActionDelete = "delete"
	ActionGet    = "get"
)

// DefaultTTL is the validity window applied by [New] when none is given.
const DefaultTTL = 10 * time.Minute

// Credential is a signed, scope-limited authorization assertion.
//
// The zero value is not usable; obtain credentials via [New] or wrap an
// externally signed event with [FromEvent].
type Credential struct {
	// Event is the signed kind 24242 nostr event.
	Event nostr.Event
}

// New creates and signs a credential for the given action.
//
// sha256 scopes the credential to one blob and may be empty for actions
// that are not blob-specific (listing). A non-positive ttl falls back to
// [DefaultTTL].
func New(secretKey, action, sha256 string, ttl time.Duration) (*Credential, error) {
	if action == "" {
		return nil, fmt.Errorf("auth: empty action")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	tags := nostr.Tags{
		{"t", action},
		{"expiration", strconv.FormatInt(now.Add(ttl).Unix(), 10)},
	}
	if sha256 != "" {
		tags = append(tags, nostr.Tag{"x", sha256})
	}

	ev := nostr.Event{
		CreatedAt: nostr.Timestamp(now.Unix()),
		Kind:      KindAuthorization,
		Tags:      tags,
		Content:   action + " blob",
	}
	if err := ev.Sign(secretKey); err != nil {
		return nil, fmt.Errorf("auth: sign event: %w", err)
	}
	return &Credential{Event: ev}, nil
}

// FromEvent wraps an already signed authorization event.
func FromEvent(ev nostr.Event) *Credential {
	return &Credential{Event: ev}
}

// Header encodes the credential as an Authorization header value.
func (c *Credential) Header() (string, error) {
	raw, err := json.Marshal(c.Event)
	if err != nil {
		return "", fmt.Errorf("auth: encode event: %w", err)
	}
	return "Nostr " + base64.StdEncoding.EncodeToString(raw), nil
}

// Action returns the value of the credential's "t" tag, or "" if absent.
func (c *Credential) Action() string {
	for _, tag := range c.Event.Tags {
		if len(tag) >= 2 && tag[0] == "t" {
			return tag[1]
		}
	}
	return ""
}

// Covers reports whether the credential's scope includes the given blob
// hash. An empty hash is covered by any credential; a credential may carry
// multiple "x" tags.
func (c *Credential) Covers(sha256 string) bool {
	if sha256 == "" {
		return true
	}
	for _, tag := range c.Event.Tags {
		if len(tag) >= 2 && tag[0] == "x" && tag[1] == sha256 {
			return true
		}
	}
	return false
}

// ExpiresAt returns the credential's expiration time and whether an
// expiration tag is present.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	for _, tag := range c.Event.Tags {
		if len(tag) >= 2 && tag[0] == "expiration" {
			unix, err := strconv.ParseInt(tag[1], 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.Unix(unix, 0), true
		}
	}
	return time.Time{}, false
}

// Expired reports whether the credential has expired at the given time.
// Credentials without an expiration tag never expire.
func (c *Credential) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}
