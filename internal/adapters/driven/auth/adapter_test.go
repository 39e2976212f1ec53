package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/edustack-labs/meetlink/internal/core/domain"
)

func testClaims() *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		UserID:    "user-42",
		Email:     "teacher@school.example",
		Role:      domain.RoleTeacher,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	adapter := NewAdapter("test-secret")

	token, err := adapter.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if parsed.UserID != "user-42" {
		t.Errorf("UserID = %q", parsed.UserID)
	}
	if parsed.Role != domain.RoleTeacher {
		t.Errorf("Role = %q", parsed.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	adapter := NewAdapter("secret-one")
	other := NewAdapter("secret-two")

	token, err := adapter.GenerateToken(testClaims())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := other.ParseToken(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	adapter := NewAdapter("test-secret")

	claims := testClaims()
	claims.IssuedAt = time.Now().Add(-2 * time.Hour).Unix()
	claims.ExpiresAt = time.Now().Add(-time.Hour).Unix()

	token, err := adapter.GenerateToken(claims)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := adapter.ParseToken(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	adapter := NewAdapter("test-secret")

	for _, in := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := adapter.ParseToken(in); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("ParseToken(%q): expected ErrTokenInvalid, got %v", in, err)
		}
	}
}
