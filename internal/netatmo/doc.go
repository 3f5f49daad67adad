// Package netatmo provides an OAuth2-authenticated client for the Netatmo
// weather station API.
//
// The client owns the credential lifecycle: it builds the authorization URL,
// exchanges authorization codes for tokens, persists tokens through a
// TokenStore, refreshes them before they expire and retries a data call once
// when the API answers 401 Unauthorized.
//
// # Token Lifecycle
//
// Tokens are created on the first successful code exchange and replaced as a
// whole on every refresh. A token pair is treated as expired five minutes
// before its actual expiry (ExpiryBuffer) so that in-flight calls never race
// the deadline. Refresh is purely reactive: it happens when a call finds the
// token expired or when the API rejects the access token.
//
// # Errors
//
// All failures are reported as *Error values carrying an ErrorKind:
//
//   - KindNotAuthenticated: no token has been stored yet; the message tells the
//     user where to authenticate
//   - KindHTTPFailure: the remote call failed (transport error or non-2xx)
//   - KindIOFailure: the token store could not read or write
//   - KindCorruption: a persisted token record could not be parsed
//   - KindValidationFailure: a caller-supplied argument was out of range
//
// Use IsKind or errors.As to inspect them.
package netatmo
