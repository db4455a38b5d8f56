// handlers/handler.go - Shared handler dependencies and error mapping
package handlers

import (
	"errors"

	"carbonsense/middleware"
	"carbonsense/services"
	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const predictionFailedMessage = "Failed to calculate emissions. Please try again."

// Handler holds the services the HTTP routes call into. Store serves real
// users; demo requests run against their session instead.
type Handler struct {
	Store       services.DataService
	Auth        *services.AuthService
	Entries     *services.EntryService
	Badges      *services.BadgeService
	Insights    *services.InsightService
	Leaderboard *services.LeaderboardService
	Distance    *services.DistanceService
	Demos       *services.DemoRegistry
	Tokens      *services.TokenIssuer
	Log         *zap.Logger

	// Checks run on every /health request.
	Checks []HealthCheck

	// Optional; only the debug routes use them.
	Realtime ConnectionStats
	Cleanup  *services.CleanupService
}

// storeFor picks the data service for the caller.
func (h *Handler) storeFor(c *fiber.Ctx) (services.DataService, uint, error) {
	if demo := middleware.DemoSession(c); demo != nil {
		return demo, 0, nil
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil, 0, err
	}
	return h.Store, userID, nil
}

// fail maps service errors to status codes. Unknown errors are logged and
// reported as 500.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var distErr *services.DistanceError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &fiberErr):
		return utils.JSONError(c, fiberErr.Code, fiberErr.Message)
	case errors.Is(err, services.ErrPredictionFailed):
		h.Log.Warn("Emission prediction failed", zap.Error(err))
		return utils.JSONError(c, fiber.StatusBadGateway, predictionFailedMessage)
	case errors.As(err, &distErr):
		return utils.JSONError(c, fiber.StatusBadRequest, distErr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.JSONError(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrUsernameTaken):
		return utils.JSONError(c, fiber.StatusConflict, "Username already taken")
	case errors.Is(err, services.ErrEmailTaken):
		return utils.JSONError(c, fiber.StatusConflict, "Email already registered")
	case errors.Is(err, services.ErrUserNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrNotGuest):
		return utils.JSONError(c, fiber.StatusBadRequest, "Account is already registered")
	case errors.Is(err, services.ErrDemoSessionNotFound):
		return utils.JSONError(c, fiber.StatusNotFound, "Demo session not found")
	}

	h.Log.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	return utils.JSONError(c, fiber.StatusInternalServerError, "Internal server error")
}

func badRequest(c *fiber.Ctx, err error) error {
	return utils.JSONError(c, fiber.StatusBadRequest, err.Error())
}
