package driving

import (
	"context"
	"time"

	"github.com/edustack-labs/meetlink/internal/core/domain"
)

// ConnectionService manages the Google Meet OAuth connection lifecycle for
// platform users: starting the consent flow, completing the callback,
// handing out valid access tokens, and disconnecting.
type ConnectionService interface {
	// BuildAuthorizationURL starts a connect flow for the user and returns
	// the provider consent URL to redirect them to.
	BuildAuthorizationURL(ctx context.Context, userID string) (*AuthorizeResponse, error)

	// HandleCallback completes the flow with the code and state returned
	// by the provider redirect. The result is tagged: inspect Kind rather
	// than matching on error strings.
	HandleCallback(ctx context.Context, code, state string) *CallbackResult

	// GetValidAccessToken returns a decrypted access token guaranteed not
	// to expire within the refresh window. Returns domain.ErrNotConnected
	// when the user never connected and domain.ErrReauthRequired when the
	// stored credential can no longer be refreshed.
	GetValidAccessToken(ctx context.Context, userID string) (string, error)

	// Revoke disconnects the user: best-effort upstream revocation, then
	// unconditional local deletion. Returns false only if the local
	// deletion itself failed. Safe to call when not connected.
	Revoke(ctx context.Context, userID string) (bool, error)

	// IsConnected reports whether a credential record exists for the user.
	// Existence only - it does not verify the token is still refreshable.
	IsConnected(ctx context.Context, userID string) (bool, error)

	// Status returns the connection state in enough detail for a UI to
	// distinguish "never connected" from "needs reauthorization".
	Status(ctx context.Context, userID string) (*ConnectionStatus, error)
}

// AuthorizeResponse contains the provider consent URL and state expiry.
// @Description Response containing the OAuth authorization URL
type AuthorizeResponse struct {
	// AuthorizationURL is the URL to redirect the user to for consent.
	AuthorizationURL string `json:"authorization_url" example:"https://accounts.google.com/o/oauth2/auth?client_id=..."`

	// ExpiresAt is when the embedded state stops being accepted (RFC 3339).
	ExpiresAt string `json:"expires_at" example:"2026-01-02T15:04:05Z"`
}

// CallbackErrorKind tags the failure mode of a callback.
type CallbackErrorKind string

const (
	CallbackErrNone         CallbackErrorKind = ""
	CallbackErrStateInvalid CallbackErrorKind = "state_invalid"
	CallbackErrStateExpired CallbackErrorKind = "state_expired"
	CallbackErrExchange     CallbackErrorKind = "exchange_failed"
	CallbackErrStore        CallbackErrorKind = "store_failed"
)

// CallbackResult is the tagged outcome of an OAuth callback.
// @Description Outcome of the OAuth callback
type CallbackResult struct {
	// Success is true when tokens were persisted for the user.
	Success bool `json:"success"`

	// UserID identifies the user the flow belongs to. Empty when the
	// state could not be verified.
	UserID string `json:"user_id,omitempty" example:"user-42"`

	// Kind tags the failure mode when Success is false.
	Kind CallbackErrorKind `json:"error,omitempty" example:"state_expired"`

	// Message is a human-readable description of the failure.
	Message string `json:"message,omitempty" example:"please retry connecting"`
}

// ConnectionStatus describes the connection state for a user.
// @Description Connection state for the Google Meet integration
type ConnectionStatus struct {
	// Connected is true when a credential record exists.
	Connected bool `json:"connected"`

	// TokenValid is true when the stored token is outside the refresh
	// window. Connected && !TokenValid means "needs reauthorization" only
	// if a subsequent refresh also fails; it is advisory.
	TokenValid bool `json:"token_valid"`

	// ExpiresAt is the stored access token expiry (RFC 3339), empty when
	// not connected.
	ExpiresAt string `json:"expires_at,omitempty" example:"2026-01-02T15:04:05Z"`

	// Scope is the granted permission set, space-delimited.
	Scope string `json:"scope,omitempty" example:"https://www.googleapis.com/auth/calendar"`
}

// StatusFromCredential builds a ConnectionStatus from a stored credential.
func StatusFromCredential(cred *domain.Credential) *ConnectionStatus {
	s := cred.ToSummary()
	return &ConnectionStatus{
		Connected:  true,
		TokenValid: s.TokenValid,
		ExpiresAt:  s.ExpiresAt.UTC().Format(time.RFC3339),
		Scope:      s.Scope,
	}
}
