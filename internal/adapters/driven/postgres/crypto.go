package postgres

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// ivSize is the AES-CBC initialization vector size.
	ivSize = aes.BlockSize

	// keySize is the required key size for AES-256.
	keySize = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrMalformedCiphertext is returned when the stored value does not
	// parse as "hex(iv):hex(ciphertext)".
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrDecryptionFailed is returned when decryption fails (wrong key or
	// corrupted data).
	ErrDecryptionFailed = errors.New("failed to decrypt token")
)

// TokenCipher handles AES-256-CBC encryption/decryption of token strings.
// The serialized format is hex(iv) ":" hex(ciphertext), matching the rows
// written by the previous implementation, so existing credentials stay
// readable. There is no key rotation or format versioning; CBC without
// authentication means a wrong key surfaces as a padding error.
type TokenCipher struct {
	block cipher.Block
}

// NewTokenCipher creates a new cipher with the given 32-byte key.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	return &TokenCipher{block: block}, nil
}

// Encrypt encrypts a plaintext string with a fresh random IV.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a value produced by Encrypt.
func (c *TokenCipher) Decrypt(value string) (string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", ErrMalformedCiphertext
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", ErrMalformedCiphertext
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrMalformedCiphertext
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(unpadded), nil
}

// pkcs7Pad appends PKCS#7 padding up to the block size.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad strips and validates PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding byte")
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("inconsistent padding")
		}
	}

	return data[:len(data)-n], nil
}
