// Package credentials holds the persisted OAuth credential records for the
// marketplace integrations and the stores that read and write them. A record
// is always written as a whole unit so access_token and expires_at can never
// drift apart.
package credentials

import (
	"encoding/json"
	"time"
)

// Record is the persisted OAuth credential for one integration.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt is epoch seconds, already adjusted by the refresh safety
	// margin at the time the token was minted.
	ExpiresAt int64  `json:"expires_at"`
	TokenType string `json:"token_type,omitempty"`
	Scope     string `json:"scope,omitempty"`
	// Raw preserves the full provider response for forward compatibility.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Expiry returns the margin-adjusted expiry as a time.Time.
func (r *Record) Expiry() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}

// Valid reports whether the access token is usable at the given instant.
func (r *Record) Valid(now time.Time) bool {
	return r.AccessToken != "" && now.Unix() < r.ExpiresAt
}
