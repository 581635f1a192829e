package models

// Provider identifies an external inference backend. Providers carry no
// intrinsic order; ordering is a property of an operation's configuration.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderGroq     Provider = "groq"
	ProviderGemini   Provider = "gemini"
	ProviderDeepSeek Provider = "deepseek"
	ProviderMistral  Provider = "mistral"
)

// ProviderInfo describes how to reach a provider's OpenAI-compatible API.
type ProviderInfo struct {
	Name         Provider `json:"name"`
	BaseURL      string   `json:"base_url"`
	DefaultModel string   `json:"default_model"`
}

var providerCatalog = map[Provider]ProviderInfo{
	ProviderOpenAI:   {Name: ProviderOpenAI, BaseURL: "https://api.openai.com/v1", DefaultModel: "gpt-4o-mini"},
	ProviderGroq:     {Name: ProviderGroq, BaseURL: "https://api.groq.com/openai/v1", DefaultModel: "llama-3.3-70b-versatile"},
	ProviderGemini:   {Name: ProviderGemini, BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai", DefaultModel: "gemini-2.0-flash"},
	ProviderDeepSeek: {Name: ProviderDeepSeek, BaseURL: "https://api.deepseek.com/v1", DefaultModel: "deepseek-chat"},
	ProviderMistral:  {Name: ProviderMistral, BaseURL: "https://api.mistral.ai/v1", DefaultModel: "mistral-large-latest"},
}

// KnownProviders returns every selectable provider, in stable order.
func KnownProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderGroq, ProviderGemini, ProviderDeepSeek, ProviderMistral}
}

// IsKnownProvider reports whether p is part of the closed provider set.
func IsKnownProvider(p Provider) bool {
	_, ok := providerCatalog[p]
	return ok
}

// GetProviderInfo returns the catalog entry for a provider.
func GetProviderInfo(p Provider) (ProviderInfo, bool) {
	info, ok := providerCatalog[p]
	return info, ok
}
