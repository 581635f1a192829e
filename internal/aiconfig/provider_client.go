package aiconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lexflow/internal/models"
)

// ProviderError is a non-2xx answer from a provider's API
type ProviderError struct {
	Provider   models.Provider
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s returned HTTP %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 200))
}

// IsRateLimit reports whether the provider rejected the call for quota or
// rate-limiting reasons.
func (e *ProviderError) IsRateLimit() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(e.Body)
	for _, pattern := range []string{"rate limit", "quota exceeded", "too many requests", "insufficient_quota"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// HTTPProviderClient speaks the OpenAI-compatible chat completions API that
// every provider in the catalog exposes. Per-attempt deadlines come from the
// caller's context; the client timeout is only a hard upper bound.
type HTTPProviderClient struct {
	httpClient *http.Client
}

// NewHTTPProviderClient creates the default provider client
func NewHTTPProviderClient() *HTTPProviderClient {
	return &HTTPProviderClient{
		httpClient: &http.Client{
			Timeout: 600 * time.Second,
		},
	}
}

// Complete issues one chat completion against the given provider.
func (c *HTTPProviderClient) Complete(ctx context.Context, provider models.ProviderInfo, apiKey string, chatReq *models.ChatRequest) (*models.ChatResponse, error) {
	model := chatReq.Model
	if model == "" {
		model = provider.DefaultModel
	}

	requestBody := map[string]interface{}{
		"model":    model,
		"messages": chatReq.Messages,
		"stream":   false,
	}
	if chatReq.Temperature > 0 {
		requestBody["temperature"] = chatReq.Temperature
	}
	if chatReq.MaxTokens > 0 {
		requestBody["max_tokens"] = chatReq.MaxTokens
	}

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(provider.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Surface the context error directly so attempt timeouts classify
		// as timeouts, not generic upstream failures.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{
			Provider:   provider.Name,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var result struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	content := ""
	if len(result.Choices) > 0 {
		content = result.Choices[0].Message.Content
	}

	return &models.ChatResponse{
		Content:      content,
		Model:        model,
		Provider:     provider.Name,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		CreatedAt:    time.Now(),
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
