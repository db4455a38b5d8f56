// handlers/leaderboard.go - Dashboard, tips, achievements and rankings
package handlers

import (
	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard GET /api/dashboard
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	dashboard, err := h.Insights.Dashboard(c.UserContext(), store, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"dashboard": dashboard})
}

// GetTips GET /api/tips
func (h *Handler) GetTips(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	tips, err := h.Insights.Tips(c.UserContext(), store, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"tips": tips})
}

// GetAchievements lists the badge catalog with the caller's earned flags.
// GET /api/achievements
func (h *Handler) GetAchievements(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	views, earned, err := h.Badges.Achievements(c.UserContext(), store, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"achievements": views,
		"earned_count": earned,
		"total":        len(views),
	})
}

// CheckAchievements re-runs badge evaluation on demand.
// POST /api/achievements/check
func (h *Handler) CheckAchievements(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	awarded := h.Badges.Award(c.UserContext(), store, userID)
	return utils.JSONSuccess(c, fiber.Map{"new_badges": awarded})
}

// GetLeaderboard returns this week's lowest emitters.
// GET /api/leaderboard?limit=10
func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	limit := utils.QueryInt(c, "limit", 10, 1, 100)

	rows, err := h.Leaderboard.Weekly(c.UserContext(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"leaderboard": rows,
		"limit":       limit,
	})
}
