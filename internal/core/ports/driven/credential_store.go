package driven

import (
	"context"

	"github.com/edustack-labs/meetlink/internal/core/domain"
)

// CredentialStore persists OAuth credentials keyed by (user, provider).
// Implementations encrypt token material before it touches storage and
// return records with tokens decrypted.
type CredentialStore interface {
	// Get retrieves the credential for a user and provider.
	// Returns domain.ErrNotFound if no record exists.
	Get(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error)

	// Upsert inserts the credential or replaces the existing record for
	// the same (user, provider) pair. Never creates duplicate rows.
	Upsert(ctx context.Context, cred *domain.Credential) error

	// Delete removes the credential. It is idempotent: deleting a missing
	// record is not an error. Reports whether a row was actually removed.
	Delete(ctx context.Context, userID string, provider domain.Provider) (bool, error)

	// Exists reports whether a credential record exists, without
	// decrypting anything.
	Exists(ctx context.Context, userID string, provider domain.Provider) (bool, error)
}
