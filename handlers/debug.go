// handlers/debug.go - Diagnostics for non-production deployments
package handlers

import (
	"time"

	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
)

// ConnectionStats reports live realtime connections.
type ConnectionStats interface {
	Stats() (users, connections int)
	Connections(userID uint) int
}

// DebugStatus returns in-memory state that is otherwise invisible.
// GET /api/debug/status?user_id=
func (h *Handler) DebugStatus(c *fiber.Ctx) error {
	info := fiber.Map{
		"success":       true,
		"demo_sessions": h.Demos.Len(),
		"timestamp":     time.Now().Unix(),
	}
	if h.Realtime != nil {
		users, conns := h.Realtime.Stats()
		realtime := fiber.Map{
			"users":       users,
			"connections": conns,
		}
		if userID := c.QueryInt("user_id"); userID > 0 {
			realtime["user_connections"] = h.Realtime.Connections(uint(userID))
		}
		info["realtime"] = realtime
	}
	return c.JSON(info)
}

// RunCleanup runs one cleanup sweep without waiting for the ticker.
// POST /api/debug/cleanup
func (h *Handler) RunCleanup(c *fiber.Ctx) error {
	if h.Cleanup == nil {
		return utils.JSONError(c, fiber.StatusServiceUnavailable, "Cleanup service unavailable")
	}

	before := h.Demos.Len()
	h.Cleanup.RunOnce(c.UserContext())
	return utils.JSONSuccess(c, fiber.Map{
		"message":               "Cleanup completed",
		"demo_sessions_removed": before - h.Demos.Len(),
	})
}
