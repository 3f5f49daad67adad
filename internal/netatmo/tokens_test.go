package netatmo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IsExpiredAt(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := &Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: expiresAt}
	threshold := expiresAt.Add(-ExpiryBuffer)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second before threshold", threshold.Add(-time.Second), false},
		{"at threshold", threshold, true},
		{"one second after threshold", threshold.Add(time.Second), true},
		{"well before expiry", expiresAt.Add(-time.Hour), false},
		{"after expiry", expiresAt.Add(time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens.IsExpiredAt(tt.now))
		})
	}
}

func TestTokens_IsExpired(t *testing.T) {
	fresh := &Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, fresh.IsExpired())

	stale := &Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Minute)}
	assert.True(t, stale.IsExpired())
}

func TestTokens_Valid(t *testing.T) {
	now := time.Now()

	assert.True(t, (&Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: now}).Valid())
	assert.False(t, (*Tokens)(nil).Valid())
	assert.False(t, (&Tokens{RefreshToken: "r", ExpiresAt: now}).Valid())
	assert.False(t, (&Tokens{AccessToken: "a", ExpiresAt: now}).Valid())
	assert.False(t, (&Tokens{AccessToken: "a", RefreshToken: "r"}).Valid())
}

func TestTokens_JSONFieldNames(t *testing.T) {
	tokens := Tokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(tokens)
	require.NoError(t, err)
	assert.JSONEq(t, `{"AccessToken":"access","RefreshToken":"refresh","ExpiresAt":"2026-03-01T10:00:00Z"}`, string(data))
}

func TestErrorKinds(t *testing.T) {
	notAuth := NewNotAuthenticatedError("http://localhost:5000/netatmo/auth")
	assert.Equal(t, KindNotAuthenticated, KindOf(notAuth))
	assert.Contains(t, notAuth.Error(), "authenticate")
	assert.Contains(t, notAuth.Error(), "http://localhost:5000/netatmo/auth")

	httpErr := NewHTTPError(503, "", nil)
	assert.Equal(t, "response status code does not indicate success: 503 (Service Unavailable)", httpErr.Error())

	ioErr := NewIOError("save", assert.AnError)
	assert.True(t, IsKind(ioErr, KindIOFailure))
	assert.ErrorIs(t, ioErr, assert.AnError)

	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
	assert.False(t, IsKind(nil, KindHTTPFailure))
	assert.Equal(t, "validation_failure", KindValidationFailure.String())
}
