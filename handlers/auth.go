// handlers/auth.go
package handlers

import (
	"carbonsense/middleware"
	"carbonsense/services"
	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GuestLogin creates a guest account and returns its token.
// POST /api/auth/guest
func (h *Handler) GuestLogin(c *fiber.Ctx) error {
	result, err := h.Auth.Guest(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return authResponse(c, fiber.StatusCreated, result)
}

// Register POST /api/auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	result, err := h.Auth.Register(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return authResponse(c, fiber.StatusCreated, result)
}

// Login POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	result, err := h.Auth.Login(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return authResponse(c, fiber.StatusOK, result)
}

// UpgradeGuest converts the caller's guest account to a registered one.
// POST /api/auth/upgrade
func (h *Handler) UpgradeGuest(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req services.RegisterRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	result, err := h.Auth.Upgrade(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err)
	}

	h.Log.Info("Guest account upgraded",
		zap.Uint("user_id", userID),
		zap.String("guest_username", middleware.GetUsername(c)),
		zap.String("username", result.User.Username))
	return authResponse(c, fiber.StatusOK, result)
}

// Me GET /api/auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	if demo := middleware.DemoSession(c); demo != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"demo":    true,
			"user":    demo.User,
		})
	}

	userID, err := middleware.GetUserID(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, err := h.Auth.Me(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"demo":    false,
		"user":    user,
	})
}

func authResponse(c *fiber.Ctx, status int, result *services.AuthResult) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}
