package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
)

// Ensure OAuthClient implements the interface.
var _ driven.OAuthProvider = (*OAuthClient)(nil)

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// Scopes is the minimal scope set for creating and managing Meet links
// through the Calendar API.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// Config holds the OAuth application credentials. Endpoint overrides exist
// for tests; zero values mean Google's production endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL   string
	TokenURL  string
	RevokeURL string
}

// OAuthClient talks to Google's OAuth endpoints.
type OAuthClient struct {
	oauth      *oauth2.Config
	revokeURL  string
	httpClient *http.Client
}

// NewOAuthClient creates a Google OAuth client from explicit configuration.
// The config is supplied once at wiring time; nothing is read from the
// environment here.
func NewOAuthClient(cfg Config) *OAuthClient {
	endpoint := googleoauth.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	revokeURL := cfg.RevokeURL
	if revokeURL == "" {
		revokeURL = DefaultRevokeURL
	}

	return &OAuthClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		revokeURL:  revokeURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthCodeURL builds the consent-screen URL. access_type=offline and
// prompt=consent force Google to reissue a refresh token even when the
// user granted access before; without them repeat consents omit it.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token pair.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*driven.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	return fromOAuth2Token(tok), nil
}

// Refresh mints a new access token from a refresh token. The returned
// RefreshToken is set only when Google rotated it.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	out := fromOAuth2Token(tok)
	// The oauth2 package echoes the input refresh token back; only report
	// a rotation when Google actually returned a different one.
	if out.RefreshToken == refreshToken {
		out.RefreshToken = ""
	}

	return out, nil
}

// Revoke invalidates a token with Google. Revoking an access token also
// revokes the refresh token of the same grant.
func (c *OAuthClient) Revoke(ctx context.Context, token string) error {
	params := url.Values{"token": {token}}

	req, err := http.NewRequestWithContext(ctx, "POST",
		c.revokeURL, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke failed: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// fromOAuth2Token maps an oauth2.Token to the driven port type.
func fromOAuth2Token(tok *oauth2.Token) *driven.OAuthToken {
	scope, _ := tok.Extra("scope").(string)
	return &driven.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        scope,
		Expiry:       tok.Expiry,
	}
}
