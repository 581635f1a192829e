package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// EncryptionService handles encryption/decryption of provider credentials
type EncryptionService struct {
	masterKey []byte
}

// NewEncryptionService creates a new encryption service with the given master key
// masterKey should be a 32-byte hex-encoded string (64 characters)
func NewEncryptionService(masterKeyHex string) (*EncryptionService, error) {
	if masterKeyHex == "" {
		return nil, errors.New("encryption master key is required")
	}

	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid master key format (must be hex): %w", err)
	}

	if len(masterKey) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes (64 hex characters), got %d bytes", len(masterKey))
	}

	return &EncryptionService{
		masterKey: masterKey,
	}, nil
}

// DeriveScopeKey derives a unique encryption key for a scope (e.g. a provider
// name) using HKDF, so a leaked per-scope key never exposes the master key.
func (e *EncryptionService) DeriveScopeKey(scope string) ([]byte, error) {
	if scope == "" {
		return nil, errors.New("scope is required for key derivation")
	}

	hkdfReader := hkdf.New(sha256.New, e.masterKey, []byte(scope), []byte("lexflow-credential-encryption"))

	scopeKey := make([]byte, 32) // AES-256 requires 32-byte key
	if _, err := io.ReadFull(hkdfReader, scopeKey); err != nil {
		return nil, fmt.Errorf("failed to derive scope key: %w", err)
	}

	return scopeKey, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with a scope-specific key
// Returns base64-encoded ciphertext (nonce prepended)
func (e *EncryptionService) Encrypt(scope string, plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", nil // Return empty string for empty input
	}

	scopeKey, err := e.DeriveScopeKey(scope)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(scopeKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// Generate random nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Encrypt and prepend nonce
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts base64-encoded ciphertext using AES-256-GCM
func (e *EncryptionService) Decrypt(scope string, ciphertextB64 string) ([]byte, error) {
	if ciphertextB64 == "" {
		return nil, nil // Return nil for empty input
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	scopeKey, err := e.DeriveScopeKey(scope)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(scopeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// EncryptString is a convenience method for encrypting strings
func (e *EncryptionService) EncryptString(scope string, plaintext string) (string, error) {
	return e.Encrypt(scope, []byte(plaintext))
}

// DecryptString is a convenience method for decrypting to strings
func (e *EncryptionService) DecryptString(scope string, ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(scope, ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateMasterKey generates a new random 32-byte master key (for setup)
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
