package aiconfig

import (
	"strings"
	"testing"

	"lexflow/internal/models"
)

func validCandidate() *models.OperationProviderConfig {
	return &models.OperationProviderConfig{
		OperationName:     models.OpAssistantIA,
		PrimaryProvider:   models.ProviderGroq,
		FallbackProviders: []models.Provider{models.ProviderGemini, models.ProviderDeepSeek},
		EnabledProviders:  []models.Provider{models.ProviderGroq, models.ProviderGemini, models.ProviderDeepSeek},
		TimeoutChatMs:     30000,
		TimeoutTotalMs:    60000,
		IsActive:          true,
	}
}

func assertViolation(t *testing.T, err error, kind ValidationKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %s violation, got nil", kind)
	}
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("Expected ValidationError, got %T: %v", err, err)
	}
	if ve.Kind != kind {
		t.Errorf("Expected kind %s, got %s (%s)", kind, ve.Kind, ve.Message)
	}
}

func TestValidate_AcceptsValidCandidate(t *testing.T) {
	if err := Validate(validCandidate()); err != nil {
		t.Fatalf("Expected valid candidate to pass, got %v", err)
	}
}

func TestValidate_UnknownOperation(t *testing.T) {
	cfg := validCandidate()
	cfg.OperationName = "billing-forecast"
	assertViolation(t, Validate(cfg), ValidationUnknownOperation)
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validCandidate()
	cfg.PrimaryProvider = "skynet"
	cfg.EnabledProviders = append(cfg.EnabledProviders, "skynet")
	assertViolation(t, Validate(cfg), ValidationUnknownProvider)
}

func TestValidate_PrimaryNotEnabled(t *testing.T) {
	cfg := validCandidate()
	cfg.PrimaryProvider = models.ProviderOpenAI
	err := Validate(cfg)
	assertViolation(t, err, ValidationPrimaryNotEnabled)

	ve, _ := AsValidationError(err)
	if !strings.Contains(ve.Message, "enabled") {
		t.Errorf("Expected message to mention the enabled-set requirement, got %q", ve.Message)
	}
}

func TestValidate_CircularFallback(t *testing.T) {
	cfg := validCandidate()
	cfg.FallbackProviders = []models.Provider{models.ProviderGemini, models.ProviderGroq}
	assertViolation(t, Validate(cfg), ValidationCircularFallback)
}

func TestValidate_EmptyProviderSet(t *testing.T) {
	cfg := validCandidate()
	cfg.EnabledProviders = nil
	assertViolation(t, Validate(cfg), ValidationEmptyProviderSet)
}

func TestValidate_TimeoutIncoherent(t *testing.T) {
	cfg := validCandidate()
	cfg.TimeoutChatMs = 90000
	assertViolation(t, Validate(cfg), ValidationTimeoutIncoherent)
}

func TestValidate_NonPositiveTimeouts(t *testing.T) {
	cfg := validCandidate()
	cfg.TimeoutChatMs = 0
	assertViolation(t, Validate(cfg), ValidationInvalidTimeout)

	cfg = validCandidate()
	cfg.TimeoutTotalMs = -5
	assertViolation(t, Validate(cfg), ValidationInvalidTimeout)
}

// An empty enabled set also breaks the primary∈enabled invariant; the
// empty-set violation must win because check order is deterministic.
func TestValidate_EmptySetReportedBeforePrimaryNotEnabled(t *testing.T) {
	cfg := validCandidate()
	cfg.EnabledProviders = []models.Provider{}
	assertViolation(t, Validate(cfg), ValidationEmptyProviderSet)
}

// Promoting a fallback provider to primary is allowed only if the fallback
// list no longer contains it.
func TestValidate_PromotedPrimaryStillInFallback(t *testing.T) {
	cfg := validCandidate()
	cfg.PrimaryProvider = models.ProviderDeepSeek
	// Fallback list unchanged, still contains deepseek.
	assertViolation(t, Validate(cfg), ValidationCircularFallback)

	cfg.FallbackProviders = []models.Provider{models.ProviderGemini}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected promotion with cleaned fallback list to pass, got %v", err)
	}
}
