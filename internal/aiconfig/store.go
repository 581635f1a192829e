package aiconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lexflow/internal/database"
	"lexflow/internal/models"
)

// ConfigStore persists per-operation routing configuration in the
// ai_operation_configs table. One row per operation, upserted, never deleted.
type ConfigStore struct {
	db *database.DB
}

// NewConfigStore creates a new configuration store
func NewConfigStore(db *database.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// GetByOperation returns the persisted configuration for an operation.
// A missing row is not an error: it returns (nil, nil).
func (s *ConfigStore) GetByOperation(ctx context.Context, op models.OperationName) (*models.OperationProviderConfig, error) {
	var cfg models.OperationProviderConfig
	var fallbackJSON, enabledJSON string
	var updatedBy sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT operation_name, primary_provider, fallback_providers, enabled_providers,
		       timeout_chat_ms, timeout_total_ms, is_active, use_static_config, updated_by, updated_at
		FROM ai_operation_configs
		WHERE operation_name = ?
	`, string(op)).Scan(&cfg.OperationName, &cfg.PrimaryProvider, &fallbackJSON, &enabledJSON,
		&cfg.TimeoutChatMs, &cfg.TimeoutTotalMs, &cfg.IsActive, &cfg.UseStaticConfig, &updatedBy, &cfg.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not found, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query operation config: %w", err)
	}

	if err := json.Unmarshal([]byte(fallbackJSON), &cfg.FallbackProviders); err != nil {
		return nil, fmt.Errorf("failed to decode fallback providers for %s: %w", op, err)
	}
	if err := json.Unmarshal([]byte(enabledJSON), &cfg.EnabledProviders); err != nil {
		return nil, fmt.Errorf("failed to decode enabled providers for %s: %w", op, err)
	}
	if updatedBy.Valid {
		cfg.UpdatedBy = updatedBy.String
	}

	return &cfg, nil
}

// Upsert writes the configuration row for cfg.OperationName, inserting it if
// the operation has never been persisted. Only configuration fields are
// touched; the row identity is stable.
func (s *ConfigStore) Upsert(ctx context.Context, cfg *models.OperationProviderConfig) error {
	fallbackJSON, err := json.Marshal(cfg.FallbackProviders)
	if err != nil {
		return fmt.Errorf("failed to encode fallback providers: %w", err)
	}
	enabledJSON, err := json.Marshal(cfg.EnabledProviders)
	if err != nil {
		return fmt.Errorf("failed to encode enabled providers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_operation_configs
			(operation_name, primary_provider, fallback_providers, enabled_providers,
			 timeout_chat_ms, timeout_total_ms, is_active, use_static_config, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			primary_provider = VALUES(primary_provider),
			fallback_providers = VALUES(fallback_providers),
			enabled_providers = VALUES(enabled_providers),
			timeout_chat_ms = VALUES(timeout_chat_ms),
			timeout_total_ms = VALUES(timeout_total_ms),
			is_active = VALUES(is_active),
			use_static_config = VALUES(use_static_config),
			updated_by = VALUES(updated_by),
			updated_at = VALUES(updated_at)
	`, string(cfg.OperationName), string(cfg.PrimaryProvider), string(fallbackJSON), string(enabledJSON),
		cfg.TimeoutChatMs, cfg.TimeoutTotalMs, cfg.IsActive, cfg.UseStaticConfig, cfg.UpdatedBy, time.Now())

	if err != nil {
		return fmt.Errorf("failed to upsert operation config: %w", err)
	}

	return nil
}

// SeedDefaults inserts a row for every operation that doesn't have one yet.
// Existing rows are left untouched; operator edits survive restarts.
func (s *ConfigStore) SeedDefaults(ctx context.Context, registry *StaticRegistry) error {
	seeded := 0
	for _, op := range registry.Operations() {
		cfg, ok := registry.Defaults(op)
		if !ok {
			continue
		}

		fallbackJSON, err := json.Marshal(cfg.FallbackProviders)
		if err != nil {
			return fmt.Errorf("failed to encode fallback providers: %w", err)
		}
		enabledJSON, err := json.Marshal(cfg.EnabledProviders)
		if err != nil {
			return fmt.Errorf("failed to encode enabled providers: %w", err)
		}

		result, err := s.db.ExecContext(ctx, `
			INSERT IGNORE INTO ai_operation_configs
				(operation_name, primary_provider, fallback_providers, enabled_providers,
				 timeout_chat_ms, timeout_total_ms, is_active, use_static_config, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'system')
		`, string(cfg.OperationName), string(cfg.PrimaryProvider), string(fallbackJSON), string(enabledJSON),
			cfg.TimeoutChatMs, cfg.TimeoutTotalMs, cfg.IsActive, false)
		if err != nil {
			return fmt.Errorf("failed to seed config for %s: %w", op, err)
		}

		if rows, err := result.RowsAffected(); err == nil && rows > 0 {
			seeded++
		}
	}

	if seeded > 0 {
		log.Printf("✅ [AICONFIG] Seeded %d operation config(s) from static defaults", seeded)
	}
	return nil
}
