package driven

import (
	"context"
	"time"
)

// OAuthToken is a token pair returned by the identity provider.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	Expiry       time.Time
}

// OAuthProvider talks to the identity provider's OAuth endpoints.
type OAuthProvider interface {
	// AuthCodeURL builds the consent-screen URL carrying the given state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token pair.
	// The returned pair may lack a refresh token; the caller decides
	// whether that is acceptable.
	Exchange(ctx context.Context, code string) (*OAuthToken, error)

	// Refresh mints a new access token from a refresh token. The returned
	// RefreshToken is empty unless the provider rotated it.
	Refresh(ctx context.Context, refreshToken string) (*OAuthToken, error)

	// Revoke invalidates a token with the provider.
	Revoke(ctx context.Context, token string) error
}
