package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/edustack-labs/meetlink/internal/core/domain"
	"github.com/edustack-labs/meetlink/internal/core/ports/driven"
)

// Ensure CredentialStore implements the interface.
var _ driven.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements driven.CredentialStore using PostgreSQL.
// Token columns hold ciphertext only; encryption happens on the way in
// and decryption on the way out.
type CredentialStore struct {
	db     *DB
	cipher *TokenCipher
}

// NewCredentialStore creates a new PostgreSQL-backed credential store.
func NewCredentialStore(db *DB, cipher *TokenCipher) *CredentialStore {
	return &CredentialStore{
		db:     db,
		cipher: cipher,
	}
}

// Get retrieves the credential for a user and provider with decrypted tokens.
func (s *CredentialStore) Get(ctx context.Context, userID string, provider domain.Provider) (*domain.Credential, error) {
	query := `
		SELECT user_id, provider, access_token, refresh_token, expires_at,
		       token_type, scope, metadata, created_at, updated_at
		FROM oauth_credentials
		WHERE user_id = $1 AND provider = $2
	`

	var cred domain.Credential
	var encAccess, encRefresh string
	var metadata []byte

	err := s.db.QueryRowContext(ctx, query, userID, provider).Scan(
		&cred.UserID,
		&cred.Provider,
		&encAccess,
		&encRefresh,
		&cred.ExpiresAt,
		&cred.TokenType,
		&cred.Scope,
		&metadata,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if cred.AccessToken, err = s.cipher.Decrypt(encAccess); err != nil {
		return nil, fmt.Errorf("decrypt access token: %w: %v", domain.ErrDecryptionFailed, err)
	}
	if cred.RefreshToken, err = s.cipher.Decrypt(encRefresh); err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w: %v", domain.ErrDecryptionFailed, err)
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &cred.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &cred, nil
}

// Upsert inserts or replaces the credential for (user_id, provider).
func (s *CredentialStore) Upsert(ctx context.Context, cred *domain.Credential) error {
	encAccess, err := s.cipher.Encrypt(cred.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	var metadata []byte
	if cred.Metadata != nil {
		metadata, err = json.Marshal(cred.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	now := time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	query := `
		INSERT INTO oauth_credentials (
			user_id, provider, access_token, refresh_token, expires_at,
			token_type, scope, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		cred.UserID,
		cred.Provider,
		encAccess,
		encRefresh,
		cred.ExpiresAt,
		cred.TokenType,
		cred.Scope,
		metadata,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}

	return nil
}

// Delete removes the credential. Deleting a missing record is not an error.
func (s *CredentialStore) Delete(ctx context.Context, userID string, provider domain.Provider) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_credentials WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	)
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete credential rows affected: %w", err)
	}

	return n > 0, nil
}

// Exists reports whether a credential record exists.
func (s *CredentialStore) Exists(ctx context.Context, userID string, provider domain.Provider) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM oauth_credentials WHERE user_id = $1 AND provider = $2)`,
		userID, provider,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("credential exists: %w", err)
	}

	return exists, nil
}
