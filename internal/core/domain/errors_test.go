package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrNotConnected", ErrNotConnected, "not connected"},
		{"ErrReauthRequired", ErrReauthRequired, "reauthorization required"},
		{"ErrStateInvalid", ErrStateInvalid, "invalid oauth state"},
		{"ErrStateExpired", ErrStateExpired, "oauth state expired"},
		{"ErrTokenExchange", ErrTokenExchange, "token exchange failed"},
		{"ErrMissingRefreshToken", ErrMissingRefreshToken, "provider did not issue a refresh token"},
		{"ErrDecryptionFailed", ErrDecryptionFailed, "stored credential unreadable"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrNotConnected, ErrReauthRequired,
		ErrStateInvalid, ErrStateExpired, ErrTokenExchange,
		ErrMissingRefreshToken, ErrDecryptionFailed,
		ErrTokenExpired, ErrTokenInvalid,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("get credential: %w", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should match ErrNotFound")
	}
	if errors.Is(wrapped, ErrNotConnected) {
		t.Error("wrapped error should not match ErrNotConnected")
	}
}
