package domain

import "time"

// Provider identifies the external integration a credential belongs to.
type Provider string

const (
	// ProviderGoogleMeet is the Google Meet/Calendar integration.
	// The schema supports multiple providers per user, but this is the
	// only one wired today.
	ProviderGoogleMeet Provider = "google_meet"
)

// refreshWindow is how far ahead of expiry a stored access token is
// considered stale and must be refreshed before use.
const refreshWindow = 5 * time.Minute

// Credential stores the OAuth tokens a user granted for a provider.
// Exactly one record exists per (UserID, Provider) pair.
//
// AccessToken and RefreshToken are plaintext only while in memory; the
// store adapter encrypts them before any row is written.
type Credential struct {
	UserID   string   `json:"user_id"`
	Provider Provider `json:"provider"`

	AccessToken  string `json:"-"` // Never serialize
	RefreshToken string `json:"-"` // Never serialize

	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
	Scope     string    `json:"scope,omitempty"` // space-delimited, advisory only

	// Metadata is an opaque JSON bag for provider-specific extras
	// (raw expiry seconds, granted account email, ...).
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialSummary is a safe view without token material.
type CredentialSummary struct {
	UserID     string    `json:"user_id"`
	Provider   Provider  `json:"provider"`
	TokenValid bool      `json:"token_valid"`
	ExpiresAt  time.Time `json:"expires_at"`
	Scope      string    `json:"scope,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ToSummary converts a Credential to its safe view.
func (c *Credential) ToSummary() *CredentialSummary {
	return &CredentialSummary{
		UserID:     c.UserID,
		Provider:   c.Provider,
		TokenValid: !c.NeedsRefresh(),
		ExpiresAt:  c.ExpiresAt,
		Scope:      c.Scope,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// IsExpired reports whether the access token is past its expiry.
func (c *Credential) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// NeedsRefresh reports whether the access token is within the refresh
// window of its expiry and must not be handed out without refreshing.
func (c *Credential) NeedsRefresh() bool {
	return time.Now().Add(refreshWindow).After(c.ExpiresAt)
}
