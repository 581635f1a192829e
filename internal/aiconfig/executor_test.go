package aiconfig

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexflow/internal/models"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

type scriptedCall struct {
	latency time.Duration
	resp    *models.ChatResponse
	err     error
}

// scriptedClient replays a per-provider script and advances the fake clock by
// the scripted latency, so budget arithmetic is exercised without sleeping.
type scriptedClient struct {
	clock  *fakeClock
	script map[models.Provider]scriptedCall
	calls  []models.Provider
}

func (f *scriptedClient) Complete(_ context.Context, info models.ProviderInfo, _ string, _ *models.ChatRequest) (*models.ChatResponse, error) {
	f.calls = append(f.calls, info.Name)
	call := f.script[info.Name]
	f.clock.t = f.clock.t.Add(call.latency)
	if call.err != nil {
		return nil, call.err
	}
	return call.resp, nil
}

type fakeCreds struct {
	keys map[models.Provider]string
}

func (f *fakeCreds) APIKey(_ context.Context, p models.Provider) (string, bool) {
	key, ok := f.keys[p]
	return key, ok
}

type fakeResolver struct {
	cfg *models.MergedOperationConfig
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, _ models.OperationName) (*models.MergedOperationConfig, error) {
	return f.cfg, f.err
}

func mergedConfig(chatMs, totalMs int) *models.MergedOperationConfig {
	return &models.MergedOperationConfig{
		OperationName:     models.OpAssistantIA,
		PrimaryProvider:   models.ProviderGroq,
		FallbackProviders: []models.Provider{models.ProviderGemini, models.ProviderDeepSeek},
		EnabledProviders:  []models.Provider{models.ProviderGroq, models.ProviderGemini, models.ProviderDeepSeek},
		TimeoutChatMs:     chatMs,
		TimeoutTotalMs:    totalMs,
		IsActive:          true,
		Source:            models.ConfigSourceDatabase,
	}
}

func allKeys() *fakeCreds {
	return &fakeCreds{keys: map[models.Provider]string{
		models.ProviderGroq:     "gk",
		models.ProviderGemini:   "mk",
		models.ProviderDeepSeek: "dk",
	}}
}

func newTestExecutor(cfg *models.MergedOperationConfig, script map[models.Provider]scriptedCall, creds *fakeCreds) (*FallbackExecutor, *scriptedClient) {
	clock := newFakeClock()
	client := &scriptedClient{clock: clock, script: script}
	executor := NewFallbackExecutor(&fakeResolver{cfg: cfg}, client, creds, nil)
	executor.now = clock.Now
	return executor, client
}

func chatReq() *models.ChatRequest {
	return &models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: "hello"}}}
}

func TestExecute_ResolverErrorSurfaces(t *testing.T) {
	clock := newFakeClock()
	executor := NewFallbackExecutor(&fakeResolver{err: errors.New("unknown operation")}, &scriptedClient{clock: clock}, allKeys(), nil)
	executor.now = clock.Now

	if _, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq()); err == nil {
		t.Fatal("Expected resolution error to surface")
	}
}

func TestExecute_DisabledOperationContactsNoProvider(t *testing.T) {
	cfg := mergedConfig(30000, 60000)
	cfg.IsActive = false
	executor, client := newTestExecutor(cfg, nil, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Outcome != OutcomeDisabled {
		t.Errorf("Expected outcome disabled, got %s", result.Outcome)
	}
	if len(client.calls) != 0 {
		t.Errorf("Disabled operation must not contact providers, got %v", client.calls)
	}
}

func TestExecute_PrimarySucceeds(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq: {latency: 800 * time.Millisecond, resp: &models.ChatResponse{Content: "ok"}},
	}
	executor, client := newTestExecutor(mergedConfig(30000, 60000), script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s", result.Outcome)
	}
	if result.Provider != models.ProviderGroq {
		t.Errorf("Expected groq, got %s", result.Provider)
	}
	if result.Response.Provider != models.ProviderGroq {
		t.Errorf("Expected response tagged with serving provider, got %s", result.Response.Provider)
	}
	if len(result.Attempts) != 0 {
		t.Errorf("Expected no failed attempts, got %d", len(result.Attempts))
	}
	if len(client.calls) != 1 {
		t.Errorf("Expected a single provider call, got %v", client.calls)
	}
}

func TestExecute_WalksFallbackChainInOrder(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq:     {latency: 500 * time.Millisecond, err: errors.New("502 bad gateway")},
		models.ProviderGemini:   {latency: 500 * time.Millisecond, err: errors.New("503 overloaded")},
		models.ProviderDeepSeek: {latency: 500 * time.Millisecond, resp: &models.ChatResponse{Content: "ok"}},
	}
	executor, client := newTestExecutor(mergedConfig(30000, 60000), script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Succeeded() || result.Provider != models.ProviderDeepSeek {
		t.Fatalf("Expected deepseek to serve the request, got %s/%s", result.Outcome, result.Provider)
	}

	want := []models.Provider{models.ProviderGroq, models.ProviderGemini, models.ProviderDeepSeek}
	if len(client.calls) != len(want) {
		t.Fatalf("Expected %d calls, got %v", len(want), client.calls)
	}
	for i, p := range want {
		if client.calls[i] != p {
			t.Errorf("Call %d: expected %s, got %s", i, p, client.calls[i])
		}
	}

	if len(result.Attempts) != 2 {
		t.Fatalf("Expected 2 failed attempts recorded, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Provider != models.ProviderGroq || result.Attempts[1].Provider != models.ProviderGemini {
		t.Errorf("Attempt records out of order: %+v", result.Attempts)
	}
}

func TestExecute_ProviderWithoutCredentialIsExcluded(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq:     {latency: 500 * time.Millisecond, err: errors.New("502 bad gateway")},
		models.ProviderDeepSeek: {latency: 500 * time.Millisecond, resp: &models.ChatResponse{Content: "ok"}},
	}
	creds := allKeys()
	delete(creds.keys, models.ProviderGemini)
	executor, client := newTestExecutor(mergedConfig(30000, 60000), script, creds)

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Succeeded() || result.Provider != models.ProviderDeepSeek {
		t.Fatalf("Expected deepseek to serve, got %s/%s", result.Outcome, result.Provider)
	}
	for _, call := range client.calls {
		if call == models.ProviderGemini {
			t.Error("Provider without credential must never be contacted")
		}
	}
	// Exclusion is not a failed attempt.
	if len(result.Attempts) != 1 {
		t.Errorf("Expected 1 failed attempt (groq only), got %d", len(result.Attempts))
	}
}

func TestExecute_DisabledProviderIsExcluded(t *testing.T) {
	cfg := mergedConfig(30000, 60000)
	cfg.EnabledProviders = []models.Provider{models.ProviderGroq, models.ProviderDeepSeek}
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq:     {latency: 500 * time.Millisecond, err: errors.New("502 bad gateway")},
		models.ProviderDeepSeek: {latency: 500 * time.Millisecond, resp: &models.ChatResponse{Content: "ok"}},
	}
	executor, client := newTestExecutor(cfg, script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Succeeded() || result.Provider != models.ProviderDeepSeek {
		t.Fatalf("Expected deepseek to serve, got %s/%s", result.Outcome, result.Provider)
	}
	for _, call := range client.calls {
		if call == models.ProviderGemini {
			t.Error("Disabled provider must never be contacted")
		}
	}
}

// With a 5000ms total budget and a 4000ms per-attempt budget, a primary that
// burns 4000ms leaves no room for a full second attempt. The execution must
// time out without contacting the first fallback.
func TestExecute_TotalBudgetPreventsSecondAttempt(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq: {latency: 4000 * time.Millisecond, err: context.DeadlineExceeded},
	}
	executor, client := newTestExecutor(mergedConfig(4000, 5000), script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Outcome != OutcomeTimedOut {
		t.Fatalf("Expected outcome timed_out, got %s", result.Outcome)
	}
	if len(client.calls) != 1 {
		t.Errorf("Expected only the primary to be contacted, got %v", client.calls)
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("Expected 1 recorded attempt, got %d", len(result.Attempts))
	}
	if result.Attempts[0].ErrorKind != AttemptErrorTimeout {
		t.Errorf("Expected timeout attempt kind, got %s", result.Attempts[0].ErrorKind)
	}
}

func TestExecute_TimedOutWhenBudgetSpentMidChain(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq:   {latency: 2000 * time.Millisecond, err: errors.New("502 bad gateway")},
		models.ProviderGemini: {latency: 3500 * time.Millisecond, err: context.DeadlineExceeded},
	}
	executor, client := newTestExecutor(mergedConfig(3000, 5000), script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Outcome != OutcomeTimedOut {
		t.Fatalf("Expected outcome timed_out, got %s", result.Outcome)
	}
	if len(client.calls) != 2 {
		t.Errorf("Expected deepseek to never be contacted, got %v", client.calls)
	}
}

func TestExecute_ExhaustedWhenEveryProviderFails(t *testing.T) {
	script := map[models.Provider]scriptedCall{
		models.ProviderGroq:     {latency: 100 * time.Millisecond, err: errors.New("500 internal")},
		models.ProviderGemini:   {latency: 100 * time.Millisecond, err: &ProviderError{Provider: models.ProviderGemini, StatusCode: 429, Body: "rate limit exceeded"}},
		models.ProviderDeepSeek: {latency: 100 * time.Millisecond, err: context.DeadlineExceeded},
	}
	executor, _ := newTestExecutor(mergedConfig(30000, 60000), script, allKeys())

	result, err := executor.Execute(context.Background(), models.OpAssistantIA, chatReq())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Outcome != OutcomeExhausted {
		t.Fatalf("Expected outcome exhausted, got %s", result.Outcome)
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("Expected 3 recorded attempts, got %d", len(result.Attempts))
	}

	wantKinds := []string{AttemptErrorUpstream, AttemptErrorRateLimit, AttemptErrorTimeout}
	for i, kind := range wantKinds {
		if result.Attempts[i].ErrorKind != kind {
			t.Errorf("Attempt %d: expected kind %s, got %s", i, kind, result.Attempts[i].ErrorKind)
		}
	}
}

func TestClassifyAttemptError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, AttemptErrorTimeout},
		{"wrapped deadline", errors.Join(errors.New("request aborted"), context.DeadlineExceeded), AttemptErrorTimeout},
		{"http 429", &ProviderError{Provider: models.ProviderGroq, StatusCode: 429}, AttemptErrorRateLimit},
		{"quota body", &ProviderError{Provider: models.ProviderGroq, StatusCode: 400, Body: "insufficient_quota: please upgrade"}, AttemptErrorRateLimit},
		{"http 500", &ProviderError{Provider: models.ProviderGroq, StatusCode: 500}, AttemptErrorUpstream},
		{"network", errors.New("connection reset"), AttemptErrorUpstream},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyAttemptError(tc.err); got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}
