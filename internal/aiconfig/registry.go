package aiconfig

import (
	"lexflow/internal/models"
)

// StaticRegistry holds the compiled-in default configuration for every
// operation. It is the fallback of last resort for resolution and the seed
// source at bootstrap. Read-only after construction.
type StaticRegistry struct {
	defaults map[models.OperationName]models.OperationProviderConfig
}

// NewStaticRegistry builds the registry with the platform defaults.
func NewStaticRegistry() *StaticRegistry {
	defaults := map[models.OperationName]models.OperationProviderConfig{
		models.OpAssistantIA: {
			OperationName:     models.OpAssistantIA,
			PrimaryProvider:   models.ProviderGroq,
			FallbackProviders: []models.Provider{models.ProviderGemini, models.ProviderDeepSeek},
			EnabledProviders:  []models.Provider{models.ProviderGroq, models.ProviderGemini, models.ProviderDeepSeek},
			TimeoutChatMs:     30000,
			TimeoutTotalMs:    60000,
			IsActive:          true,
		},
		models.OpDocumentIndexing: {
			OperationName:     models.OpDocumentIndexing,
			PrimaryProvider:   models.ProviderOpenAI,
			FallbackProviders: []models.Provider{models.ProviderMistral},
			EnabledProviders:  []models.Provider{models.ProviderOpenAI, models.ProviderMistral},
			TimeoutChatMs:     45000,
			TimeoutTotalMs:    120000,
			IsActive:          true,
		},
		models.OpCaseFileAssistant: {
			OperationName:     models.OpCaseFileAssistant,
			PrimaryProvider:   models.ProviderGemini,
			FallbackProviders: []models.Provider{models.ProviderGroq, models.ProviderOpenAI},
			EnabledProviders:  []models.Provider{models.ProviderGemini, models.ProviderGroq, models.ProviderOpenAI},
			TimeoutChatMs:     30000,
			TimeoutTotalMs:    90000,
			IsActive:          true,
		},
		models.OpCaseFileConsult: {
			OperationName:     models.OpCaseFileConsult,
			PrimaryProvider:   models.ProviderDeepSeek,
			FallbackProviders: []models.Provider{models.ProviderGemini},
			EnabledProviders:  []models.Provider{models.ProviderDeepSeek, models.ProviderGemini},
			TimeoutChatMs:     25000,
			TimeoutTotalMs:    60000,
			IsActive:          true,
		},
		models.OpKBQualityLong: {
			OperationName:     models.OpKBQualityLong,
			PrimaryProvider:   models.ProviderOpenAI,
			FallbackProviders: []models.Provider{models.ProviderGemini, models.ProviderDeepSeek},
			EnabledProviders:  []models.Provider{models.ProviderOpenAI, models.ProviderGemini, models.ProviderDeepSeek},
			TimeoutChatMs:     120000,
			TimeoutTotalMs:    300000,
			IsActive:          true,
		},
		models.OpKBQualityShort: {
			OperationName:     models.OpKBQualityShort,
			PrimaryProvider:   models.ProviderGroq,
			FallbackProviders: []models.Provider{models.ProviderDeepSeek},
			EnabledProviders:  []models.Provider{models.ProviderGroq, models.ProviderDeepSeek},
			TimeoutChatMs:     15000,
			TimeoutTotalMs:    30000,
			IsActive:          true,
		},
	}

	return &StaticRegistry{defaults: defaults}
}

// Defaults returns a copy of the compiled-in configuration for an operation.
func (r *StaticRegistry) Defaults(op models.OperationName) (models.OperationProviderConfig, bool) {
	cfg, ok := r.defaults[op]
	if !ok {
		return models.OperationProviderConfig{}, false
	}
	// Copy slices so callers can't mutate the registry.
	cfg.FallbackProviders = append([]models.Provider(nil), cfg.FallbackProviders...)
	cfg.EnabledProviders = append([]models.Provider(nil), cfg.EnabledProviders...)
	return cfg, true
}

// MergedDefaults returns the static default for an operation in resolved form.
func (r *StaticRegistry) MergedDefaults(op models.OperationName) (*models.MergedOperationConfig, bool) {
	cfg, ok := r.Defaults(op)
	if !ok {
		return nil, false
	}
	return &models.MergedOperationConfig{
		OperationName:     cfg.OperationName,
		PrimaryProvider:   cfg.PrimaryProvider,
		FallbackProviders: cfg.FallbackProviders,
		EnabledProviders:  cfg.EnabledProviders,
		TimeoutChatMs:     cfg.TimeoutChatMs,
		TimeoutTotalMs:    cfg.TimeoutTotalMs,
		IsActive:          cfg.IsActive,
		Source:            models.ConfigSourceStatic,
	}, true
}

// Operations returns the operation names the registry knows about.
func (r *StaticRegistry) Operations() []models.OperationName {
	return models.KnownOperations()
}
