package domain

import (
	"testing"
	"time"
)

func TestCredentialNeedsRefresh(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		want      bool
	}{
		{"expires in 10 minutes", 10 * time.Minute, false},
		{"expires in 4 minutes", 4 * time.Minute, true},
		{"already expired", -time.Minute, true},
		{"expires exactly at the boundary plus slack", 6 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Credential{ExpiresAt: time.Now().Add(tt.expiresIn)}
			if got := c.NeedsRefresh(); got != tt.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialIsExpired(t *testing.T) {
	c := &Credential{ExpiresAt: time.Now().Add(time.Hour)}
	if c.IsExpired() {
		t.Error("credential expiring in an hour should not be expired")
	}

	c.ExpiresAt = time.Now().Add(-time.Second)
	if !c.IsExpired() {
		t.Error("credential past expiry should be expired")
	}
}

func TestCredentialToSummary(t *testing.T) {
	now := time.Now()
	c := &Credential{
		UserID:       "user-1",
		Provider:     ProviderGoogleMeet,
		AccessToken:  "secret-access",
		RefreshToken: "secret-refresh",
		ExpiresAt:    now.Add(time.Hour),
		Scope:        "https://www.googleapis.com/auth/calendar",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s := c.ToSummary()
	if s.UserID != c.UserID || s.Provider != c.Provider {
		t.Error("summary should carry identity fields")
	}
	if !s.TokenValid {
		t.Error("summary for a fresh token should be valid")
	}
	if s.Scope != c.Scope {
		t.Errorf("summary scope = %q, want %q", s.Scope, c.Scope)
	}

	c.ExpiresAt = now.Add(time.Minute)
	if c.ToSummary().TokenValid {
		t.Error("summary inside the refresh window should not be valid")
	}
}
