package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/edustack-labs/meetlink/internal/core/domain"
)

// DefaultStateTTL bounds the window between starting a connect flow and
// the provider redirect arriving. Stale states are rejected outright.
const DefaultStateTTL = 5 * time.Minute

// statePayload is what the opaque state parameter carries. It makes the
// callback self-contained: no server-side session row is needed to
// recover the user's identity or check staleness.
type statePayload struct {
	UserID   string `json:"user_id"`
	Nonce    string `json:"nonce"`
	IssuedAt int64  `json:"issued_at"`
}

// StateCodec mints and verifies the OAuth state parameter. The value is
// base64url(JSON payload) "." base64url(HMAC-SHA256 tag); the signing key
// is derived from the master encryption key so forged or tampered states
// fail verification before any store access.
type StateCodec struct {
	signingKey []byte
	ttl        time.Duration
}

// NewStateCodec derives a state-signing key from the 32-byte master key.
func NewStateCodec(masterKey []byte) (*StateCodec, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(masterKey))
	}

	// Key separation: the state signer must not share key material with
	// the token cipher.
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte("meetlink oauth state v1"))
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	return &StateCodec{
		signingKey: signingKey,
		ttl:        DefaultStateTTL,
	}, nil
}

// Encode mints a state value for the user, valid for the codec TTL.
func (c *StateCodec) Encode(userID string) (string, time.Time, error) {
	issuedAt := time.Now()
	state, err := c.encodeAt(userID, issuedAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return state, issuedAt.Add(c.ttl), nil
}

// encodeAt mints a state with an explicit issue time.
func (c *StateCodec) encodeAt(userID string, issuedAt time.Time) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	payload, err := json.Marshal(statePayload{
		UserID:   userID,
		Nonce:    hex.EncodeToString(nonce),
		IssuedAt: issuedAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal state payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode verifies a state value and returns the user it was minted for.
// Returns domain.ErrStateInvalid for malformed or tampered values and
// domain.ErrStateExpired for verified-but-stale ones.
func (c *StateCodec) Decode(state string) (string, error) {
	encoded, tag, ok := strings.Cut(state, ".")
	if !ok || encoded == "" || tag == "" {
		return "", domain.ErrStateInvalid
	}

	if !hmac.Equal([]byte(c.sign(encoded)), []byte(tag)) {
		return "", domain.ErrStateInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.ErrStateInvalid
	}

	var payload statePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", domain.ErrStateInvalid
	}
	if payload.UserID == "" {
		return "", domain.ErrStateInvalid
	}

	issuedAt := time.Unix(payload.IssuedAt, 0)
	if time.Since(issuedAt) > c.ttl {
		return "", domain.ErrStateExpired
	}

	return payload.UserID, nil
}

func (c *StateCodec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.signingKey)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
