package aiconfig

import (
	"lexflow/internal/models"
)

// Validate checks a fully-formed candidate configuration against the routing
// invariants. It is pure: no store, cache or registry access. Checks run in a
// deterministic order, structural shape first, and stop at the first
// violation. A nil return means the candidate may be persisted.
func Validate(cfg *models.OperationProviderConfig) error {
	// Structural shape
	if !models.IsKnownOperation(cfg.OperationName) {
		return newValidationError(ValidationUnknownOperation,
			"operation %q is not part of the configurable operation set", cfg.OperationName)
	}
	if !models.IsKnownProvider(cfg.PrimaryProvider) {
		return newValidationError(ValidationUnknownProvider,
			"primary provider %q is not a known provider", cfg.PrimaryProvider)
	}
	for _, p := range cfg.FallbackProviders {
		if !models.IsKnownProvider(p) {
			return newValidationError(ValidationUnknownProvider,
				"fallback provider %q is not a known provider", p)
		}
	}
	for _, p := range cfg.EnabledProviders {
		if !models.IsKnownProvider(p) {
			return newValidationError(ValidationUnknownProvider,
				"enabled provider %q is not a known provider", p)
		}
	}
	if cfg.TimeoutChatMs <= 0 || cfg.TimeoutTotalMs <= 0 {
		return newValidationError(ValidationInvalidTimeout,
			"timeouts must be positive, got chat=%dms total=%dms", cfg.TimeoutChatMs, cfg.TimeoutTotalMs)
	}

	// Semantic invariants
	if len(cfg.EnabledProviders) == 0 {
		return newValidationError(ValidationEmptyProviderSet,
			"operation %q must have at least one enabled provider", cfg.OperationName)
	}
	if !cfg.IsProviderEnabled(cfg.PrimaryProvider) {
		return newValidationError(ValidationPrimaryNotEnabled,
			"primary provider %q must be in the enabled provider set", cfg.PrimaryProvider)
	}
	for _, p := range cfg.FallbackProviders {
		if p == cfg.PrimaryProvider {
			return newValidationError(ValidationCircularFallback,
				"primary provider %q cannot appear in its own fallback list", cfg.PrimaryProvider)
		}
	}
	if cfg.TimeoutChatMs > cfg.TimeoutTotalMs {
		return newValidationError(ValidationTimeoutIncoherent,
			"per-attempt timeout %dms exceeds total budget %dms", cfg.TimeoutChatMs, cfg.TimeoutTotalMs)
	}

	return nil
}
