package netatmo

import (
	"context"
	"time"
)

// ExpiryBuffer is how long before the real expiry a token is already treated
// as expired.
const ExpiryBuffer = 5 * time.Minute

// Tokens is the persisted OAuth credential record.
//
// A record is either absent (nil) or has both tokens non-empty and ExpiresAt
// set. It is never mutated in place: refresh produces a new record.
type Tokens struct {
	AccessToken  string    `json:"AccessToken"`
	RefreshToken string    `json:"RefreshToken"`
	ExpiresAt    time.Time `json:"ExpiresAt"`
}

// IsExpired reports whether the access token should be refreshed before use.
func (t *Tokens) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether now >= ExpiresAt - ExpiryBuffer.
func (t *Tokens) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt.Add(-ExpiryBuffer))
}

// Valid reports whether the record satisfies the token invariant.
func (t *Tokens) Valid() bool {
	return t != nil && t.AccessToken != "" && t.RefreshToken != "" && !t.ExpiresAt.IsZero()
}

// TokenStore persists a single Tokens record.
//
// Load returns (nil, nil) when nothing has been stored or when the stored
// record is unreadable. Both methods return a KindIOFailure error on
// unrecoverable storage errors.
type TokenStore interface {
	Load(ctx context.Context) (*Tokens, error)
	Save(ctx context.Context, tokens *Tokens) error
}
