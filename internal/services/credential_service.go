package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"lexflow/internal/crypto"
	"lexflow/internal/database"
	"lexflow/internal/models"
)

// ProviderCredentialService manages encrypted API keys for inference
// providers. Keys are stored AES-256-GCM encrypted with a per-provider
// derived key and only ever decrypted for outbound provider calls.
type ProviderCredentialService struct {
	db         *database.DB
	encryption *crypto.EncryptionService
}

// NewProviderCredentialService creates a new provider credential service
func NewProviderCredentialService(db *database.DB, encryption *crypto.EncryptionService) *ProviderCredentialService {
	return &ProviderCredentialService{
		db:         db,
		encryption: encryption,
	}
}

// Store encrypts and upserts the API key for a provider
func (s *ProviderCredentialService) Store(ctx context.Context, provider models.Provider, apiKey string) error {
	if !models.IsKnownProvider(provider) {
		return fmt.Errorf("unknown provider: %s", provider)
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	encrypted, err := s.encryption.EncryptString(string(provider), apiKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_provider_credentials (provider, encrypted_api_key)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE encrypted_api_key = VALUES(encrypted_api_key)
	`, string(provider), encrypted)
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	log.Printf("🔐 [CREDENTIAL] Stored credential for provider %s", provider)
	return nil
}

// APIKey returns the decrypted API key for a provider. A missing or
// undecryptable credential returns (_, false): the provider is excluded from
// routing, it is not an error.
func (s *ProviderCredentialService) APIKey(ctx context.Context, provider models.Provider) (string, bool) {
	var encrypted string
	err := s.db.QueryRowContext(ctx, `
		SELECT encrypted_api_key FROM ai_provider_credentials WHERE provider = ?
	`, string(provider)).Scan(&encrypted)

	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		log.Printf("⚠️ [CREDENTIAL] Lookup failed for provider %s: %v", provider, err)
		return "", false
	}

	apiKey, err := s.encryption.DecryptString(string(provider), encrypted)
	if err != nil {
		log.Printf("⚠️ [CREDENTIAL] Decryption failed for provider %s: %v", provider, err)
		return "", false
	}
	if apiKey == "" {
		return "", false
	}

	return apiKey, true
}

// Delete removes the credential for a provider
func (s *ProviderCredentialService) Delete(ctx context.Context, provider models.Provider) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM ai_provider_credentials WHERE provider = ?
	`, string(provider))
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// SeedFromEnv stores any provider API keys found in the environment config,
// overwriting stored values so rotated keys take effect on restart.
func (s *ProviderCredentialService) SeedFromEnv(ctx context.Context, keys map[models.Provider]string) error {
	for provider, apiKey := range keys {
		if err := s.Store(ctx, provider, apiKey); err != nil {
			return fmt.Errorf("failed to seed credential for %s: %w", provider, err)
		}
	}
	if len(keys) > 0 {
		log.Printf("✅ [CREDENTIAL] Seeded %d provider credential(s) from environment", len(keys))
	}
	return nil
}
