package handlers

import (
	"lexflow/internal/database"
	"lexflow/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports the liveness of the engine's external collaborators
type HealthHandler struct {
	db    *database.DB
	redis *services.RedisService // nil when running with the in-process cache
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check returns 200 when the store is reachable. Redis state is reported but
// not fatal: resolution degrades to static defaults without it.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbStatus := "ok"
	if err := h.db.PingContext(c.Context()); err != nil {
		dbStatus = "unreachable"
		status = fiber.StatusServiceUnavailable
	}

	cacheStatus := "in-process"
	if h.redis != nil {
		cacheStatus = "ok"
		if err := h.redis.Ping(c.Context()); err != nil {
			cacheStatus = "unreachable"
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
