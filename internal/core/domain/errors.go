package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrNotConnected indicates the user has no credential for the provider.
	// Callers must treat this as "never connected", not as a failure.
	ErrNotConnected = errors.New("not connected")

	// ErrReauthRequired indicates the stored credential can no longer mint
	// access tokens (refresh rejected or ciphertext unreadable) and the user
	// must go through the authorization flow again.
	ErrReauthRequired = errors.New("reauthorization required")

	// ErrStateInvalid indicates the OAuth callback state is malformed or
	// its signature does not verify.
	ErrStateInvalid = errors.New("invalid oauth state")

	// ErrStateExpired indicates the OAuth callback state is older than the
	// allowed window.
	ErrStateExpired = errors.New("oauth state expired")

	// ErrTokenExchange indicates the provider did not grant the required
	// token pair for an authorization code.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrMissingRefreshToken indicates the provider response omitted the
	// refresh token. A credential is never persisted without one.
	ErrMissingRefreshToken = errors.New("provider did not issue a refresh token")

	// ErrDecryptionFailed indicates stored ciphertext is unreadable
	// (corrupted record or rotated key). Unrecoverable for that record.
	ErrDecryptionFailed = errors.New("stored credential unreadable")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
