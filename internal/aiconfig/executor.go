package aiconfig

import (
	"context"
	"errors"
	"log"
	"time"

	"lexflow/internal/models"
)

// ExecutionOutcome is the terminal state of a fallback execution
type ExecutionOutcome string

const (
	OutcomeSucceeded ExecutionOutcome = "succeeded"
	OutcomeDisabled  ExecutionOutcome = "disabled"
	OutcomeTimedOut  ExecutionOutcome = "timed_out"
	OutcomeExhausted ExecutionOutcome = "exhausted"
)

// Attempt failure kinds
const (
	AttemptErrorTimeout   = "timeout"
	AttemptErrorRateLimit = "rate_limit"
	AttemptErrorUpstream  = "upstream_error"
)

// AttemptRecord captures one failed provider attempt
type AttemptRecord struct {
	Provider     models.Provider `json:"provider"`
	ErrorKind    string          `json:"error_kind"`
	ErrorMessage string          `json:"error_message"`
	LatencyMs    int64           `json:"latency_ms"`
}

// ExecutionResult is the terminal result of one fallback execution.
// Response is set only when Outcome is OutcomeSucceeded.
type ExecutionResult struct {
	Outcome        ExecutionOutcome     `json:"outcome"`
	Provider       models.Provider      `json:"provider,omitempty"`
	Response       *models.ChatResponse `json:"response,omitempty"`
	Attempts       []AttemptRecord      `json:"attempts,omitempty"`
	TotalLatencyMs int64                `json:"total_latency_ms"`
}

// Succeeded reports whether the execution produced a provider response.
func (r *ExecutionResult) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// ProviderClient issues a single chat completion against one provider.
// Implementations must honor ctx cancellation.
type ProviderClient interface {
	Complete(ctx context.Context, provider models.ProviderInfo, apiKey string, req *models.ChatRequest) (*models.ChatResponse, error)
}

// CredentialSource looks up a usable API key for a provider. A false return
// is not an error; the provider is simply excluded from the attempt list.
type CredentialSource interface {
	APIKey(ctx context.Context, provider models.Provider) (string, bool)
}

// configResolver is the slice of the config service the executor consumes
type configResolver interface {
	Resolve(ctx context.Context, op models.OperationName) (*models.MergedOperationConfig, error)
}

// FallbackExecutor walks an operation's provider chain, attempting each
// candidate under the per-attempt timeout while charging every attempt
// against the shared total budget.
type FallbackExecutor struct {
	resolver configResolver
	client   ProviderClient
	creds    CredentialSource
	metrics  *Metrics

	now func() time.Time
}

// NewFallbackExecutor creates a fallback executor
func NewFallbackExecutor(resolver configResolver, client ProviderClient, creds CredentialSource, metrics *Metrics) *FallbackExecutor {
	return &FallbackExecutor{
		resolver: resolver,
		client:   client,
		creds:    creds,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Execute resolves the operation's effective configuration and runs the
// request through the provider chain. Terminal failures (disabled operation,
// budget exhaustion, every provider failing) are reported in the result, not
// as an error; the error return is reserved for resolution failures.
func (e *FallbackExecutor) Execute(ctx context.Context, op models.OperationName, req *models.ChatRequest) (*ExecutionResult, error) {
	cfg, err := e.resolver.Resolve(ctx, op)
	if err != nil {
		return nil, err
	}

	start := e.now()
	result := &ExecutionResult{}

	if !cfg.IsActive {
		result.Outcome = OutcomeDisabled
		e.metrics.countExecution(string(op), string(OutcomeDisabled))
		log.Printf("🚫 [FALLBACK] Operation %s is disabled, no provider contacted", op)
		return result, nil
	}

	candidates := e.buildAttemptList(ctx, cfg)
	chatBudget := time.Duration(cfg.TimeoutChatMs) * time.Millisecond
	totalBudget := time.Duration(cfg.TimeoutTotalMs) * time.Millisecond

	for i, candidate := range candidates {
		elapsed := e.now().Sub(start)

		// A follow-up attempt only starts if its per-attempt budget still
		// fits in what remains of the total budget.
		if i > 0 && elapsed+chatBudget > totalBudget {
			result.Outcome = OutcomeTimedOut
			result.TotalLatencyMs = elapsed.Milliseconds()
			e.metrics.countExecution(string(op), string(OutcomeTimedOut))
			log.Printf("⏱️ [FALLBACK] %s: total budget %dms exhausted after %d attempt(s)", op, cfg.TimeoutTotalMs, i)
			return result, nil
		}

		attemptBudget := chatBudget
		if remaining := totalBudget - elapsed; remaining < attemptBudget {
			attemptBudget = remaining
		}

		attemptStart := e.now()
		attemptCtx, cancel := context.WithTimeout(ctx, attemptBudget)
		resp, attemptErr := e.client.Complete(attemptCtx, candidate.info, candidate.apiKey, req)
		cancel()
		attemptLatency := e.now().Sub(attemptStart)

		if attemptErr == nil {
			resp.Provider = candidate.info.Name
			result.Outcome = OutcomeSucceeded
			result.Provider = candidate.info.Name
			result.Response = resp
			result.TotalLatencyMs = e.now().Sub(start).Milliseconds()
			e.metrics.countAttempt(string(candidate.info.Name), "success")
			e.metrics.countExecution(string(op), string(OutcomeSucceeded))
			log.Printf("✅ [FALLBACK] %s served by %s in %dms", op, candidate.info.Name, attemptLatency.Milliseconds())
			return result, nil
		}

		kind := classifyAttemptError(attemptErr)
		result.Attempts = append(result.Attempts, AttemptRecord{
			Provider:     candidate.info.Name,
			ErrorKind:    kind,
			ErrorMessage: attemptErr.Error(),
			LatencyMs:    attemptLatency.Milliseconds(),
		})
		e.metrics.countAttempt(string(candidate.info.Name), "failure")
		log.Printf("⚠️ [FALLBACK] %s: provider %s failed (%s), trying next candidate", op, candidate.info.Name, kind)

		if elapsed := e.now().Sub(start); elapsed >= totalBudget {
			result.Outcome = OutcomeTimedOut
			result.TotalLatencyMs = elapsed.Milliseconds()
			e.metrics.countExecution(string(op), string(OutcomeTimedOut))
			log.Printf("⏱️ [FALLBACK] %s: total budget %dms exhausted", op, cfg.TimeoutTotalMs)
			return result, nil
		}
	}

	result.Outcome = OutcomeExhausted
	result.TotalLatencyMs = e.now().Sub(start).Milliseconds()
	e.metrics.countExecution(string(op), string(OutcomeExhausted))
	log.Printf("❌ [FALLBACK] %s: all %d candidate provider(s) failed", op, len(candidates))
	return result, nil
}

type attemptCandidate struct {
	info   models.ProviderInfo
	apiKey string
}

// buildAttemptList produces the ordered candidates: primary first, then
// fallbacks, keeping only providers that are enabled and have a usable
// credential. Providers lacking a credential are skipped silently; that is an
// exclusion, not a failed attempt.
func (e *FallbackExecutor) buildAttemptList(ctx context.Context, cfg *models.MergedOperationConfig) []attemptCandidate {
	ordered := append([]models.Provider{cfg.PrimaryProvider}, cfg.FallbackProviders...)

	var candidates []attemptCandidate
	for _, p := range ordered {
		if !cfg.IsProviderEnabled(p) {
			continue
		}
		info, ok := models.GetProviderInfo(p)
		if !ok {
			continue
		}
		apiKey, ok := e.creds.APIKey(ctx, p)
		if !ok {
			log.Printf("🔑 [FALLBACK] %s: no credential for %s, excluded from attempt list", cfg.OperationName, p)
			continue
		}
		candidates = append(candidates, attemptCandidate{info: info, apiKey: apiKey})
	}
	return candidates
}

func classifyAttemptError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return AttemptErrorTimeout
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.IsRateLimit() {
		return AttemptErrorRateLimit
	}
	return AttemptErrorUpstream
}
