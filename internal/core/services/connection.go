package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edustack-labs/meetlink/internal/core/domain"
	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
	"github.com/edustack-labs/meetlink/internal/core/ports/driving"
)

// Ensure connectionService implements ConnectionService
var _ driving.ConnectionService = (*connectionService)(nil)

// refreshWindow mirrors the domain credential window: a token expiring
// within it is refreshed before being handed out, so callers never receive
// a token that dies mid-flight.
const refreshWindow = 5 * time.Minute

// ConnectionServiceConfig holds the dependencies of the connection service.
type ConnectionServiceConfig struct {
	// Store persists credentials (decrypted in memory, encrypted at rest).
	Store driven.CredentialStore

	// Provider talks to the identity provider's OAuth endpoints.
	Provider driven.OAuthProvider

	// States mints and verifies the callback state parameter.
	States *StateCodec

	// Metrics receives lifecycle counters. Optional; nil means discard.
	Metrics driven.MetricsSink

	// Logger is used for best-effort paths. Optional; nil means slog.Default.
	Logger *slog.Logger
}

// connectionService implements the ConnectionService interface.
type connectionService struct {
	store    driven.CredentialStore
	provider driven.OAuthProvider
	states   *StateCodec
	metrics  driven.MetricsSink
	logger   *slog.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(cfg ConnectionServiceConfig) driving.ConnectionService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &connectionService{
		store:    cfg.Store,
		provider: cfg.Provider,
		states:   cfg.States,
		metrics:  metrics,
		logger:   logger,
	}
}

// BuildAuthorizationURL starts a connect flow for the user.
func (s *connectionService) BuildAuthorizationURL(ctx context.Context, userID string) (*driving.AuthorizeResponse, error) {
	state, expiresAt, err := s.states.Encode(userID)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	s.metrics.Incr(ctx, driven.CounterConnectStarted)

	return &driving.AuthorizeResponse{
		AuthorizationURL: s.provider.AuthCodeURL(state),
		ExpiresAt:        expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// HandleCallback completes the flow: verifies state, exchanges the code,
// and upserts the encrypted credential. A partial grant (missing access or
// refresh token) is a hard failure; nothing is persisted.
func (s *connectionService) HandleCallback(ctx context.Context, code, state string) *driving.CallbackResult {
	userID, err := s.states.Decode(state)
	if err != nil {
		s.metrics.Incr(ctx, driven.CounterStateRejected)
		if errors.Is(err, domain.ErrStateExpired) {
			return &driving.CallbackResult{
				Kind:    driving.CallbackErrStateExpired,
				Message: "authorization took too long, please retry connecting",
			}
		}
		return &driving.CallbackResult{
			Kind:    driving.CallbackErrStateInvalid,
			Message: "invalid authorization state, please retry connecting",
		}
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.Incr(ctx, driven.CounterExchangeFailed)
		return &driving.CallbackResult{
			UserID:  userID,
			Kind:    driving.CallbackErrExchange,
			Message: fmt.Sprintf("%v: %v", domain.ErrTokenExchange, err),
		}
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		s.metrics.Incr(ctx, driven.CounterExchangeFailed)
		return &driving.CallbackResult{
			UserID:  userID,
			Kind:    driving.CallbackErrExchange,
			Message: domain.ErrMissingRefreshToken.Error(),
		}
	}

	now := time.Now()
	cred := &domain.Credential{
		UserID:       userID,
		Provider:     domain.ProviderGoogleMeet,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
		Metadata: map[string]any{
			"expiry_date": token.Expiry.UnixMilli(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}

	if err := s.store.Upsert(ctx, cred); err != nil {
		return &driving.CallbackResult{
			UserID:  userID,
			Kind:    driving.CallbackErrStore,
			Message: fmt.Sprintf("persist credential: %v", err),
		}
	}

	s.metrics.Incr(ctx, driven.CounterConnectCompleted)

	return &driving.CallbackResult{Success: true, UserID: userID}
}

// GetValidAccessToken returns an access token guaranteed not to expire
// within the refresh window, refreshing and persisting first if needed.
func (s *connectionService) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := s.store.Get(ctx, userID, domain.ProviderGoogleMeet)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrNotConnected
	}
	if err != nil {
		if isDecryptionFailure(err) {
			// Corrupted record or rotated key: unrecoverable for this
			// record, the user must reconnect. The row stays so a new
			// authorization upserts over it.
			s.logger.Warn("credential unreadable, reauthorization required",
				"user_id", userID, "error", err)
			return "", domain.ErrReauthRequired
		}
		return "", err
	}

	if time.Until(cred.ExpiresAt) >= refreshWindow {
		return cred.AccessToken, nil
	}

	return s.refresh(ctx, cred)
}

// refresh exchanges the stored refresh token for a new access token and
// persists the rotated credential. On provider failure the stored record
// is left untouched and the caller gets ErrReauthRequired.
func (s *connectionService) refresh(ctx context.Context, cred *domain.Credential) (string, error) {
	token, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		s.metrics.Incr(ctx, driven.CounterRefreshFailed)
		s.logger.Warn("token refresh failed",
			"user_id", cred.UserID, "error", err)
		return "", domain.ErrReauthRequired
	}

	cred.AccessToken = token.AccessToken
	cred.ExpiresAt = token.Expiry
	if token.TokenType != "" {
		cred.TokenType = token.TokenType
	}
	// Providers do not always rotate the refresh token; keep the stored
	// one unless a new one was issued.
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}

	if err := s.store.Upsert(ctx, cred); err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}

	s.metrics.Incr(ctx, driven.CounterTokenRefreshed)

	return cred.AccessToken, nil
}

// Revoke disconnects the user. The upstream revocation is best-effort:
// its failure is logged and never blocks local deletion, because the
// user's intent to disconnect must succeed locally even when the provider
// is unreachable or the token is already invalid.
func (s *connectionService) Revoke(ctx context.Context, userID string) (bool, error) {
	cred, err := s.store.Get(ctx, userID, domain.ProviderGoogleMeet)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Idempotent disconnect: nothing stored, nothing to do.
		return true, nil
	case err != nil && isDecryptionFailure(err):
		// Cannot recover the token to revoke upstream; still delete.
		s.logger.Warn("credential unreadable during revoke, deleting anyway",
			"user_id", userID, "error", err)
	case err != nil:
		return false, err
	default:
		if revokeErr := s.provider.Revoke(ctx, cred.AccessToken); revokeErr != nil {
			s.metrics.Incr(ctx, driven.CounterRevokeFailedUpstream)
			s.logger.Warn("upstream token revocation failed, deleting locally anyway",
				"user_id", userID, "error", revokeErr)
		}
	}

	if _, err := s.store.Delete(ctx, userID, domain.ProviderGoogleMeet); err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}

	s.metrics.Incr(ctx, driven.CounterDisconnected)

	return true, nil
}

// IsConnected reports whether a credential record exists. Existence only.
func (s *connectionService) IsConnected(ctx context.Context, userID string) (bool, error) {
	return s.store.Exists(ctx, userID, domain.ProviderGoogleMeet)
}

// Status returns the connection state without mutating anything.
func (s *connectionService) Status(ctx context.Context, userID string) (*driving.ConnectionStatus, error) {
	cred, err := s.store.Get(ctx, userID, domain.ProviderGoogleMeet)
	if errors.Is(err, domain.ErrNotFound) {
		return &driving.ConnectionStatus{Connected: false}, nil
	}
	if err != nil {
		if isDecryptionFailure(err) {
			// Record exists but is unreadable: connected, needs reauth.
			return &driving.ConnectionStatus{Connected: true, TokenValid: false}, nil
		}
		return nil, err
	}

	return driving.StatusFromCredential(cred), nil
}

// isDecryptionFailure reports whether a store error stems from unreadable
// ciphertext rather than the store itself.
func isDecryptionFailure(err error) bool {
	return errors.Is(err, domain.ErrDecryptionFailed)
}
