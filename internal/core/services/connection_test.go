package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack-labs/meetlink/internal/core/domain"
	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
	"github.com/edustack-labs/meetlink/internal/core/ports/driven/mocks"
	"github.com/edustack-labs/meetlink/internal/core/ports/driving"
)

type serviceFixture struct {
	store    *mocks.MockCredentialStore
	provider *mocks.MockOAuthProvider
	metrics  *mocks.MockMetricsSink
	codec    *StateCodec
	svc      driving.ConnectionService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	codec, err := NewStateCodec(testMasterKey())
	require.NoError(t, err)

	f := &serviceFixture{
		store:    mocks.NewMockCredentialStore(),
		provider: mocks.NewMockOAuthProvider(),
		metrics:  mocks.NewMockMetricsSink(),
		codec:    codec,
	}
	f.svc = NewConnectionService(ConnectionServiceConfig{
		Store:    f.store,
		Provider: f.provider,
		States:   codec,
		Metrics:  f.metrics,
	})
	return f
}

// connect runs a full successful authorization flow for the user.
func (f *serviceFixture) connect(t *testing.T, userID string, expiresIn time.Duration) {
	t.Helper()

	f.provider.ExchangeToken = &driven.OAuthToken{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		TokenType:    "Bearer",
		Scope:        "https://www.googleapis.com/auth/calendar",
		Expiry:       time.Now().Add(expiresIn),
	}

	state, _, err := f.codec.Encode(userID)
	require.NoError(t, err)

	result := f.svc.HandleCallback(context.Background(), "code-"+userID, state)
	require.True(t, result.Success, "callback failed: %s", result.Message)
	require.Equal(t, userID, result.UserID)
}

func TestBuildAuthorizationURL(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.svc.BuildAuthorizationURL(context.Background(), "user-1")
	require.NoError(t, err)

	u, err := url.Parse(resp.AuthorizationURL)
	require.NoError(t, err)

	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	// The state must round-trip back to the user who started the flow.
	userID, err := f.codec.Decode(state)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	assert.Equal(t, 1, f.metrics.Count(driven.CounterConnectStarted))
}

func TestHandleCallbackPersistsCredential(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Hour)

	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "access-user-1", cred.AccessToken)
	assert.Equal(t, "refresh-user-1", cred.RefreshToken)
	assert.Equal(t, "Bearer", cred.TokenType)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterConnectCompleted))
}

func TestHandleCallbackUpsertIdempotence(t *testing.T) {
	f := newServiceFixture(t)

	f.connect(t, "user-1", time.Hour)
	firstCred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)

	// Second full flow for the same user: exactly one record remains and
	// the new tokens win.
	f.provider.ExchangeToken = &driven.OAuthToken{
		AccessToken:  "access-v2",
		RefreshToken: "refresh-v2",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	state, _, err := f.codec.Encode("user-1")
	require.NoError(t, err)
	result := f.svc.HandleCallback(context.Background(), "code-2", state)
	require.True(t, result.Success)

	assert.Equal(t, 1, f.store.Count())
	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "access-v2", cred.AccessToken)
	assert.NotEqual(t, firstCred.AccessToken, cred.AccessToken)
}

func TestHandleCallbackStaleState(t *testing.T) {
	f := newServiceFixture(t)

	state, err := f.codec.encodeAt("user-1", time.Now().Add(-6*time.Minute))
	require.NoError(t, err)

	result := f.svc.HandleCallback(context.Background(), "code", state)
	assert.False(t, result.Success)
	assert.Equal(t, driving.CallbackErrStateExpired, result.Kind)

	// No store writes and no provider calls for a rejected state.
	assert.Equal(t, 0, f.store.UpsertCalls)
	assert.Equal(t, 0, f.provider.ExchangeCalls)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterStateRejected))
}

func TestHandleCallbackInvalidState(t *testing.T) {
	f := newServiceFixture(t)

	result := f.svc.HandleCallback(context.Background(), "code", "garbage-state")
	assert.False(t, result.Success)
	assert.Equal(t, driving.CallbackErrStateInvalid, result.Kind)
	assert.Equal(t, 0, f.store.UpsertCalls)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.provider.ExchangeErr = fmt.Errorf("provider unavailable")

	state, _, err := f.codec.Encode("user-1")
	require.NoError(t, err)

	result := f.svc.HandleCallback(context.Background(), "code", state)
	assert.False(t, result.Success)
	assert.Equal(t, driving.CallbackErrExchange, result.Kind)
	assert.Equal(t, "user-1", result.UserID)
	assert.Equal(t, 0, f.store.UpsertCalls)
}

func TestHandleCallbackMissingRefreshTokenIsFatal(t *testing.T) {
	f := newServiceFixture(t)

	// Partial grant: provider omitted the refresh token. Nothing may be
	// persisted.
	f.provider.ExchangeToken = &driven.OAuthToken{
		AccessToken: "only-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	state, _, err := f.codec.Encode("user-1")
	require.NoError(t, err)

	result := f.svc.HandleCallback(context.Background(), "code", state)
	assert.False(t, result.Success)
	assert.Equal(t, driving.CallbackErrExchange, result.Kind)
	assert.Equal(t, 0, f.store.UpsertCalls)
	assert.Equal(t, 0, f.store.Count())
}

func TestGetValidAccessTokenNotConnected(t *testing.T) {
	f := newServiceFixture(t)

	token, err := f.svc.GetValidAccessToken(context.Background(), "stranger")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Empty(t, token)
}

func TestGetValidAccessTokenFreshTokenNoRefresh(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", 10*time.Minute)

	token, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "access-user-1", token)
	assert.Equal(t, 0, f.provider.RefreshCalls, "a token 10 minutes out must not trigger a refresh")
}

func TestGetValidAccessTokenNearExpiryRefreshes(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", 4*time.Minute)

	f.provider.RefreshToken_ = &driven.OAuthToken{
		AccessToken: "refreshed-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}

	token, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token, "a token 4 minutes out must be refreshed before returning")
	assert.Equal(t, 1, f.provider.RefreshCalls)
	assert.Equal(t, "refresh-user-1", f.provider.LastRefreshToken)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterTokenRefreshed))

	// The rotated access token and expiry are persisted.
	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", cred.AccessToken)
	assert.Greater(t, time.Until(cred.ExpiresAt), 30*time.Minute)
}

func TestRefreshPreservesRefreshTokenWhenNotRotated(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Minute)

	// Provider returns no refresh token: the stored one must survive.
	f.provider.RefreshToken_ = &driven.OAuthToken{
		AccessToken: "refreshed-access",
		Expiry:      time.Now().Add(time.Hour),
	}

	_, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	require.NoError(t, err)

	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "refresh-user-1", cred.RefreshToken)
}

func TestRefreshStoresRotatedRefreshToken(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Minute)

	f.provider.RefreshToken_ = &driven.OAuthToken{
		AccessToken:  "refreshed-access",
		RefreshToken: "rotated-refresh",
		Expiry:       time.Now().Add(time.Hour),
	}

	_, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	require.NoError(t, err)

	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", cred.RefreshToken)
}

func TestRefreshFailureLeavesRecordUntouched(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Minute)
	upsertsAfterConnect := f.store.UpsertCalls

	f.provider.RefreshErr = fmt.Errorf("invalid_grant: token has been revoked")

	token, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
	assert.Empty(t, token)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterRefreshFailed))

	// The record stays in place for in-place re-authorization.
	assert.Equal(t, upsertsAfterConnect, f.store.UpsertCalls)
	cred, err := f.store.Get(context.Background(), "user-1", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "access-user-1", cred.AccessToken)
}

func TestGetValidAccessTokenDecryptionFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Hour)
	f.store.GetErr = fmt.Errorf("decrypt access token: %w", domain.ErrDecryptionFailed)

	_, err := f.svc.GetValidAccessToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrReauthRequired)
}

func TestRevokeDeletesLocallyEvenWhenUpstreamFails(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Hour)

	f.provider.RevokeErr = errors.New("provider timeout")

	ok, err := f.svc.Revoke(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.provider.RevokeCalls)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterRevokeFailedUpstream))

	connected, err := f.svc.IsConnected(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, connected, "record must be deleted regardless of upstream outcome")
}

func TestRevokeSendsCurrentAccessToken(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Hour)

	ok, err := f.svc.Revoke(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "access-user-1", f.provider.LastRevokedToken)
	assert.Equal(t, 1, f.metrics.Count(driven.CounterDisconnected))
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)

	for i := 0; i < 3; i++ {
		ok, err := f.svc.Revoke(context.Background(), "never-connected")
		require.NoError(t, err)
		assert.True(t, ok)

		connected, err := f.svc.IsConnected(context.Background(), "never-connected")
		require.NoError(t, err)
		assert.False(t, connected)
	}
	assert.Equal(t, 0, f.provider.RevokeCalls)
}

func TestRevokeReportsLocalDeleteFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-1", time.Hour)

	f.store.DeleteErr = errors.New("connection reset")

	ok, err := f.svc.Revoke(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, ok, "Revoke returns false only when the local delete fails")
}

func TestUserIsolation(t *testing.T) {
	f := newServiceFixture(t)
	f.connect(t, "user-a", time.Hour)
	f.connect(t, "user-b", time.Hour)

	// Revoking A never touches B.
	ok, err := f.svc.Revoke(context.Background(), "user-a")
	require.NoError(t, err)
	assert.True(t, ok)

	connectedB, err := f.svc.IsConnected(context.Background(), "user-b")
	require.NoError(t, err)
	assert.True(t, connectedB)

	credB, err := f.store.Get(context.Background(), "user-b", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	assert.Equal(t, "access-user-b", credB.AccessToken)
}

func TestStatus(t *testing.T) {
	f := newServiceFixture(t)

	// Never connected.
	status, err := f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.False(t, status.TokenValid)

	// Connected with a fresh token.
	f.connect(t, "user-1", time.Hour)
	status, err = f.svc.Status(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.True(t, status.TokenValid)
	assert.True(t, strings.Contains(status.Scope, "calendar"))

	// Connected but inside the refresh window: needs-reauth UI territory.
	f.connect(t, "user-2", time.Minute)
	status, err = f.svc.Status(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.False(t, status.TokenValid)
}

// TestLifecycleScenario walks the full example scenario: connect, refresh
// near expiry, upstream revocation, reauth required.
func TestLifecycleScenario(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// t=0: user authorizes, record created with one hour of validity.
	f.connect(t, "user-u", time.Hour)

	connected, err := f.svc.IsConnected(ctx, "user-u")
	require.NoError(t, err)
	require.True(t, connected)

	// Near expiry: a feature asks for a token, refresh happens first.
	cred, err := f.store.Get(ctx, "user-u", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	cred.ExpiresAt = time.Now().Add(2 * time.Minute)
	require.NoError(t, f.store.Upsert(ctx, cred))

	f.provider.RefreshToken_ = &driven.OAuthToken{
		AccessToken: "second-access",
		Expiry:      time.Now().Add(time.Hour),
	}
	token, err := f.svc.GetValidAccessToken(ctx, "user-u")
	require.NoError(t, err)
	require.Equal(t, "second-access", token)

	// An external actor revokes the grant upstream: the next refresh
	// fails and the caller must prompt reconnection.
	cred, err = f.store.Get(ctx, "user-u", domain.ProviderGoogleMeet)
	require.NoError(t, err)
	cred.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, f.store.Upsert(ctx, cred))

	f.provider.RefreshErr = errors.New("invalid_grant")
	_, err = f.svc.GetValidAccessToken(ctx, "user-u")
	require.ErrorIs(t, err, domain.ErrReauthRequired)

	// The record is still there: reconnecting upserts in place.
	connected, err = f.svc.IsConnected(ctx, "user-u")
	require.NoError(t, err)
	require.True(t, connected)
}
