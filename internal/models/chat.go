package models

import "time"

// ChatMessage represents a single message in a provider request
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatRequest is the payload executed against an operation's provider chain.
// Model is optional; when empty the serving provider's default model is used.
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the provider answer returned to the caller, tagged with
// the provider that actually served it.
type ChatResponse struct {
	Content      string    `json:"content"`
	Model        string    `json:"model"`
	Provider     Provider  `json:"provider"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
