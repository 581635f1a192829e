package handlers

import (
	"lexflow/internal/aiconfig"
	"lexflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AIConfigHandler exposes the routing engine to the admin console and the
// AI-backed features. Authentication and tenancy are enforced upstream.
type AIConfigHandler struct {
	configService *aiconfig.ConfigService
	executor      *aiconfig.FallbackExecutor
	auditLog      *aiconfig.AuditLog
}

// NewAIConfigHandler creates a new AI config handler
func NewAIConfigHandler(configService *aiconfig.ConfigService, executor *aiconfig.FallbackExecutor, auditLog *aiconfig.AuditLog) *AIConfigHandler {
	return &AIConfigHandler{
		configService: configService,
		executor:      executor,
		auditLog:      auditLog,
	}
}

// ListConfigs returns the effective configuration for every operation
func (h *AIConfigHandler) ListConfigs(c *fiber.Ctx) error {
	configs := make([]*models.MergedOperationConfig, 0, len(models.KnownOperations()))
	for _, op := range models.KnownOperations() {
		cfg, err := h.configService.Resolve(c.Context(), op)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to resolve configurations",
			})
		}
		configs = append(configs, cfg)
	}

	return c.JSON(fiber.Map{
		"configs": configs,
		"count":   len(configs),
	})
}

// GetConfig returns the effective configuration for one operation
func (h *AIConfigHandler) GetConfig(c *fiber.Ctx) error {
	op := models.OperationName(c.Params("operation"))
	if !models.IsKnownOperation(op) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown operation",
		})
	}

	cfg, err := h.configService.Resolve(c.Context(), op)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve configuration",
		})
	}

	return c.JSON(cfg)
}

// UpdateConfig applies a partial update to an operation's configuration
func (h *AIConfigHandler) UpdateConfig(c *fiber.Ctx) error {
	op := models.OperationName(c.Params("operation"))
	if !models.IsKnownOperation(op) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown operation",
		})
	}

	var update models.OperationConfigUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	cfg, err := h.configService.Update(c.Context(), op, &update, actorFrom(c))
	if err != nil {
		if ve, ok := aiconfig.AsValidationError(err); ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": ve.Message,
				"kind":  string(ve.Kind),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update configuration",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"config":  cfg,
	})
}

// ResetConfig restores an operation's configuration to the static defaults
func (h *AIConfigHandler) ResetConfig(c *fiber.Ctx) error {
	op := models.OperationName(c.Params("operation"))
	if !models.IsKnownOperation(op) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown operation",
		})
	}

	cfg, err := h.configService.Reset(c.Context(), op, actorFrom(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reset configuration",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"config":  cfg,
	})
}

// ClearCache invalidates cached resolutions, for one operation or all
func (h *AIConfigHandler) ClearCache(c *fiber.Ctx) error {
	var ops []models.OperationName
	if name := c.Params("operation"); name != "" {
		op := models.OperationName(name)
		if !models.IsKnownOperation(op) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown operation",
			})
		}
		ops = append(ops, op)
	}

	if err := h.configService.InvalidateCache(c.Context(), ops...); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear cache",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetAuditTrail returns the most recent configuration changes for an operation
func (h *AIConfigHandler) GetAuditTrail(c *fiber.Ctx) error {
	op := models.OperationName(c.Params("operation"))
	if !models.IsKnownOperation(op) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown operation",
		})
	}

	records, err := h.auditLog.ListByOperation(c.Context(), op, c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit trail",
		})
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}

// Execute runs a chat request through an operation's provider chain
func (h *AIConfigHandler) Execute(c *fiber.Ctx) error {
	op := models.OperationName(c.Params("operation"))
	if !models.IsKnownOperation(op) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown operation",
		})
	}

	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one message is required",
		})
	}

	result, err := h.executor.Execute(c.Context(), op, &req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Execution failed",
		})
	}

	if !result.Succeeded() {
		status := fiber.StatusBadGateway
		if result.Outcome == aiconfig.OutcomeDisabled {
			status = fiber.StatusServiceUnavailable
		}
		if result.Outcome == aiconfig.OutcomeTimedOut {
			status = fiber.StatusGatewayTimeout
		}
		return c.Status(status).JSON(fiber.Map{
			"success":  false,
			"outcome":  result.Outcome,
			"attempts": result.Attempts,
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"provider_used": result.Provider,
		"result":        result.Response,
	})
}

// actorFrom extracts the acting operator identity set by the auth middleware
func actorFrom(c *fiber.Ctx) string {
	if actor := c.Get("X-Actor"); actor != "" {
		return actor
	}
	return "admin"
}
