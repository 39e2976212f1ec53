package mocks

import (
	"context"
	"sync"

	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
)

// MockOAuthProvider is a scripted OAuthProvider for testing
type MockOAuthProvider struct {
	mu sync.Mutex

	ExchangeToken *driven.OAuthToken
	ExchangeErr   error

	RefreshToken_ *driven.OAuthToken
	RefreshErr    error

	RevokeErr error

	ExchangeCalls int
	RefreshCalls  int
	RevokeCalls   int

	// LastRefreshToken records the refresh token passed to Refresh.
	LastRefreshToken string
	// LastRevokedToken records the token passed to Revoke.
	LastRevokedToken string
}

// NewMockOAuthProvider creates a new MockOAuthProvider
func NewMockOAuthProvider() *MockOAuthProvider {
	return &MockOAuthProvider{}
}

func (m *MockOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*driven.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExchangeCalls++
	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	copied := *m.ExchangeToken
	return &copied, nil
}

func (m *MockOAuthProvider) Refresh(ctx context.Context, refreshToken string) (*driven.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RefreshCalls++
	m.LastRefreshToken = refreshToken
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	copied := *m.RefreshToken_
	return &copied, nil
}

func (m *MockOAuthProvider) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RevokeCalls++
	m.LastRevokedToken = token
	return m.RevokeErr
}
