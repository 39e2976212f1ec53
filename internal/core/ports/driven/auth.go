package driven

import "github.com/edustack-labs/meetlink/internal/core/domain"

// AuthAdapter handles API token cryptographic operations.
// User accounts and sessions belong to the surrounding platform; this
// service only verifies the tokens it is handed.
type AuthAdapter interface {
	// GenerateToken creates a signed token from claims.
	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken validates a token and extracts its claims.
	ParseToken(token string) (*domain.TokenClaims, error)
}
