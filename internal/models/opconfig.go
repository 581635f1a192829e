package models

import "time"

// ConfigSource tags where a resolved configuration came from. It exists for
// observability and tests only; business logic must not branch on it.
type ConfigSource string

const (
	ConfigSourceStatic   ConfigSource = "static"
	ConfigSourceDatabase ConfigSource = "database"
)

// OperationProviderConfig is the persisted routing configuration for one
// operation. One row per OperationName, created at bootstrap and thereafter
// only updated or reset, never deleted.
type OperationProviderConfig struct {
	OperationName     OperationName `json:"operation_name"`
	PrimaryProvider   Provider      `json:"primary_provider"`
	FallbackProviders []Provider    `json:"fallback_providers"`
	EnabledProviders  []Provider    `json:"enabled_providers"`
	TimeoutChatMs     int           `json:"timeout_chat_ms"`
	TimeoutTotalMs    int           `json:"timeout_total_ms"`
	IsActive          bool          `json:"is_active"`
	UseStaticConfig   bool          `json:"use_static_config"`
	UpdatedAt         time.Time     `json:"updated_at"`
	UpdatedBy         string        `json:"updated_by,omitempty"`
}

// IsProviderEnabled reports whether p is in the config's enabled set.
func (c *OperationProviderConfig) IsProviderEnabled(p Provider) bool {
	for _, enabled := range c.EnabledProviders {
		if enabled == p {
			return true
		}
	}
	return false
}

// OperationConfigUpdate is a partial update to an operation's configuration.
// Nil fields keep their current persisted value.
type OperationConfigUpdate struct {
	PrimaryProvider   *Provider  `json:"primary_provider,omitempty"`
	FallbackProviders []Provider `json:"fallback_providers,omitempty"`
	EnabledProviders  []Provider `json:"enabled_providers,omitempty"`
	TimeoutChatMs     *int       `json:"timeout_chat_ms,omitempty"`
	TimeoutTotalMs    *int       `json:"timeout_total_ms,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
	UseStaticConfig   *bool      `json:"use_static_config,omitempty"`
}

// MergedOperationConfig is the effective configuration for an operation after
// merging persisted state with the static registry. Never persisted.
type MergedOperationConfig struct {
	OperationName     OperationName `json:"operation_name"`
	PrimaryProvider   Provider      `json:"primary_provider"`
	FallbackProviders []Provider    `json:"fallback_providers"`
	EnabledProviders  []Provider    `json:"enabled_providers"`
	TimeoutChatMs     int           `json:"timeout_chat_ms"`
	TimeoutTotalMs    int           `json:"timeout_total_ms"`
	IsActive          bool          `json:"is_active"`
	Source            ConfigSource  `json:"source"`
}

// IsProviderEnabled reports whether p is in the merged enabled set.
func (c *MergedOperationConfig) IsProviderEnabled(p Provider) bool {
	for _, enabled := range c.EnabledProviders {
		if enabled == p {
			return true
		}
	}
	return false
}

// ConfigChangeAction distinguishes the two mutations the engine performs.
type ConfigChangeAction string

const (
	ConfigActionUpdate ConfigChangeAction = "update"
	ConfigActionReset  ConfigChangeAction = "reset"
)

// ConfigChangeRecord is one append-only audit entry for a configuration
// mutation. Records are written exactly once and never modified.
type ConfigChangeRecord struct {
	ID            string                   `json:"id"`
	OperationName OperationName            `json:"operation_name"`
	Actor         string                   `json:"actor"`
	Action        ConfigChangeAction       `json:"action"`
	Before        *OperationProviderConfig `json:"before,omitempty"`
	After         *OperationProviderConfig `json:"after"`
	CreatedAt     time.Time                `json:"created_at"`
}
