package aiconfig

import (
	"context"
	"fmt"
	"log"
	"time"

	"lexflow/internal/models"
)

// configStore is the persistence surface the service needs
type configStore interface {
	GetByOperation(ctx context.Context, op models.OperationName) (*models.OperationProviderConfig, error)
	Upsert(ctx context.Context, cfg *models.OperationProviderConfig) error
}

// auditSink receives one record per successful mutation
type auditSink interface {
	Append(ctx context.Context, record *models.ConfigChangeRecord) error
}

// ConfigService resolves effective operation configurations and applies
// operator mutations. It owns the merge precedence between persisted rows and
// the static registry, the resolution cache and the audit trail.
type ConfigService struct {
	store    configStore
	cache    ResolutionCache
	audit    auditSink
	registry *StaticRegistry
	metrics  *Metrics

	// dynamicEnabled is the deployment-wide kill switch. When false every
	// resolution returns static defaults without touching cache or store.
	dynamicEnabled bool
}

// NewConfigService creates the operation configuration service
func NewConfigService(store configStore, cache ResolutionCache, audit auditSink, registry *StaticRegistry, dynamicEnabled bool, metrics *Metrics) *ConfigService {
	return &ConfigService{
		store:          store,
		cache:          cache,
		audit:          audit,
		registry:       registry,
		metrics:        metrics,
		dynamicEnabled: dynamicEnabled,
	}
}

// Resolve computes the effective configuration for an operation.
// Store failures degrade to the static default; routing is never blocked by
// persistence unavailability.
func (s *ConfigService) Resolve(ctx context.Context, op models.OperationName) (*models.MergedOperationConfig, error) {
	staticCfg, ok := s.registry.MergedDefaults(op)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}

	// Kill switch: static defaults only, bypassing cache and store entirely.
	if !s.dynamicEnabled {
		s.metrics.countResolution(string(models.ConfigSourceStatic))
		return staticCfg, nil
	}

	cached, err := s.cache.Get(ctx, op)
	if err != nil {
		log.Printf("⚠️ [AICONFIG] Cache read failed for %s: %v", op, err)
	}
	if cached != nil {
		s.metrics.countCacheEvent("hit")
		s.metrics.countResolution(string(cached.Source))
		return cached, nil
	}
	s.metrics.countCacheEvent("miss")

	row, err := s.store.GetByOperation(ctx, op)
	if err != nil {
		// Degrade to static defaults; the failure is absorbed on purpose so a
		// store outage can't take AI features down. Not cached, so resolution
		// recovers as soon as the store does.
		log.Printf("⚠️ [AICONFIG] Store read failed for %s, serving static defaults: %v", op, err)
		s.metrics.countResolution(string(models.ConfigSourceStatic))
		return staticCfg, nil
	}

	var merged *models.MergedOperationConfig
	if row == nil || row.UseStaticConfig {
		merged = staticCfg
	} else {
		merged = mergeRow(row)
	}

	if err := s.cache.Set(ctx, op, merged); err != nil {
		log.Printf("⚠️ [AICONFIG] Cache write failed for %s: %v", op, err)
	}

	s.metrics.countResolution(string(merged.Source))
	return merged, nil
}

// Update applies a partial operator update to an operation's configuration.
// The candidate is validated against the latest persisted state; on any
// violation nothing is mutated. Persist, then invalidate, then audit.
func (s *ConfigService) Update(ctx context.Context, op models.OperationName, update *models.OperationConfigUpdate, actor string) (*models.MergedOperationConfig, error) {
	defaults, ok := s.registry.Defaults(op)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}

	// Read the persisted truth directly; the cache may be stale.
	current, err := s.store.GetByOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to load current config for %s: %w", op, err)
	}

	base := current
	if base == nil {
		base = &defaults
	}

	candidate := applyUpdate(base, update)
	candidate.UpdatedBy = actor
	candidate.UpdatedAt = time.Now()

	if err := Validate(candidate); err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, candidate); err != nil {
		// Abort before invalidation and audit: no torn state is observable.
		return nil, fmt.Errorf("failed to persist config for %s: %w", op, err)
	}

	s.finishMutation(ctx, op, models.ConfigActionUpdate, actor, current, candidate)

	log.Printf("✅ [AICONFIG] Updated config for %s (actor: %s)", op, actor)
	return s.effective(candidate), nil
}

// Reset restores an operation's configuration to the static registry default.
// Same shape as Update, with the registry default as the candidate.
func (s *ConfigService) Reset(ctx context.Context, op models.OperationName, actor string) (*models.MergedOperationConfig, error) {
	defaults, ok := s.registry.Defaults(op)
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}

	current, err := s.store.GetByOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to load current config for %s: %w", op, err)
	}

	candidate := &defaults
	candidate.UpdatedBy = actor
	candidate.UpdatedAt = time.Now()

	// Defaults are expected to always pass; validating anyway keeps the
	// write path uniform.
	if err := Validate(candidate); err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to persist config for %s: %w", op, err)
	}

	s.finishMutation(ctx, op, models.ConfigActionReset, actor, current, candidate)

	log.Printf("✅ [AICONFIG] Reset config for %s to static defaults (actor: %s)", op, actor)
	return s.effective(candidate), nil
}

// InvalidateCache deletes cached resolutions. With no arguments it deletes the
// key for every known operation individually; the cache backend offers no
// wildcard delete, so this is a fan-out over the closed set, not a flush.
func (s *ConfigService) InvalidateCache(ctx context.Context, ops ...models.OperationName) error {
	if len(ops) == 0 {
		ops = s.registry.Operations()
	}

	var firstErr error
	for _, op := range ops {
		if err := s.cache.Delete(ctx, op); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to invalidate cache for %s: %w", op, err)
		}
	}
	return firstErr
}

// finishMutation runs the post-persist steps shared by Update and Reset:
// single-key cache invalidation, then one audit record.
func (s *ConfigService) finishMutation(ctx context.Context, op models.OperationName, action models.ConfigChangeAction, actor string, before, after *models.OperationProviderConfig) {
	if err := s.cache.Delete(ctx, op); err != nil {
		log.Printf("⚠️ [AICONFIG] Cache invalidation failed for %s: %v", op, err)
	}

	record := &models.ConfigChangeRecord{
		OperationName: op,
		Actor:         actor,
		Action:        action,
		Before:        before,
		After:         after,
	}
	if err := s.audit.Append(ctx, record); err != nil {
		log.Printf("⚠️ [AICONFIG] Audit append failed for %s: %v", op, err)
	}
}

// effective returns the resolved form a just-persisted row will serve:
// static defaults when the row forces static mode, the row itself otherwise.
func (s *ConfigService) effective(cfg *models.OperationProviderConfig) *models.MergedOperationConfig {
	if cfg.UseStaticConfig {
		if staticCfg, ok := s.registry.MergedDefaults(cfg.OperationName); ok {
			return staticCfg
		}
	}
	return mergeRow(cfg)
}

// applyUpdate builds the candidate configuration: update fields layered on
// top of the current values. Nil fields keep their current value.
func applyUpdate(current *models.OperationProviderConfig, update *models.OperationConfigUpdate) *models.OperationProviderConfig {
	candidate := *current
	candidate.FallbackProviders = append([]models.Provider(nil), current.FallbackProviders...)
	candidate.EnabledProviders = append([]models.Provider(nil), current.EnabledProviders...)

	if update == nil {
		return &candidate
	}
	if update.PrimaryProvider != nil {
		candidate.PrimaryProvider = *update.PrimaryProvider
	}
	if update.FallbackProviders != nil {
		candidate.FallbackProviders = append([]models.Provider(nil), update.FallbackProviders...)
	}
	if update.EnabledProviders != nil {
		candidate.EnabledProviders = append([]models.Provider(nil), update.EnabledProviders...)
	}
	if update.TimeoutChatMs != nil {
		candidate.TimeoutChatMs = *update.TimeoutChatMs
	}
	if update.TimeoutTotalMs != nil {
		candidate.TimeoutTotalMs = *update.TimeoutTotalMs
	}
	if update.IsActive != nil {
		candidate.IsActive = *update.IsActive
	}
	if update.UseStaticConfig != nil {
		candidate.UseStaticConfig = *update.UseStaticConfig
	}
	return &candidate
}

// mergeRow converts a persisted row into its resolved form.
func mergeRow(row *models.OperationProviderConfig) *models.MergedOperationConfig {
	return &models.MergedOperationConfig{
		OperationName:     row.OperationName,
		PrimaryProvider:   row.PrimaryProvider,
		FallbackProviders: append([]models.Provider(nil), row.FallbackProviders...),
		EnabledProviders:  append([]models.Provider(nil), row.EnabledProviders...),
		TimeoutChatMs:     row.TimeoutChatMs,
		TimeoutTotalMs:    row.TimeoutTotalMs,
		IsActive:          row.IsActive,
		Source:            models.ConfigSourceDatabase,
	}
}
