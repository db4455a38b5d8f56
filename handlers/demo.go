// handlers/demo.go
package handlers

import (
	"carbonsense/middleware"
	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// EnableDemo starts a demo session seeded with a sample week and returns a
// token scoped to it.
// POST /api/demo
func (h *Handler) EnableDemo(c *fiber.Ctx) error {
	session := h.Demos.Enable()
	token, err := h.Tokens.IssueDemo(session)
	if err != nil {
		h.Demos.Disable(session.ID)
		return h.fail(c, err)
	}

	h.Log.Info("Demo session started", zap.String("session_id", session.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"token":      token,
		"session_id": session.ID,
		"user":       session.User,
		"expires_at": session.ExpiresAt,
	})
}

// DisableDemo ends the caller's demo session.
// DELETE /api/demo
func (h *Handler) DisableDemo(c *fiber.Ctx) error {
	session := middleware.DemoSession(c)
	if session == nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Not in demo mode")
	}

	h.Demos.Disable(session.ID)
	h.Log.Info("Demo session ended", zap.String("session_id", session.ID))
	return utils.JSONSuccess(c, nil)
}
