// handlers/entries.go
package handlers

import (
	"carbonsense/services"
	"carbonsense/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

// CreateEntry predicts today's emissions from the lifestyle form and saves
// them. Fields missing from the body keep their defaults.
// POST /api/entries
func (h *Handler) CreateEntry(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	form := services.NewLifestyleForm()
	if err := utils.ParseAndValidate(c, &form); err != nil {
		return badRequest(c, err)
	}

	result, err := h.Entries.SubmitPredicted(c.UserContext(), store, userID, form)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"entry":      result.Entry,
		"new_badges": result.Badges,
	})
}

// CreateManualEntry saves a calculator entry and returns its breakdown.
// POST /api/entries/manual
func (h *Handler) CreateManualEntry(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req services.ManualEntry
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return badRequest(c, err)
	}

	result, err := h.Entries.SubmitManual(c.UserContext(), store, userID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"entry":      result.Entry,
		"breakdown":  result.Breakdown,
		"new_badges": result.Badges,
	})
}

// TodayEntries GET /api/entries/today
func (h *Handler) TodayEntries(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	entries, err := h.Entries.Today(c.UserContext(), store, userID)
	if err != nil {
		return h.fail(c, err)
	}
	total := 0.0
	for _, e := range entries {
		total += e.TotalEmissions
	}
	return utils.JSONSuccess(c, fiber.Map{
		"entries": nonNil(entries),
		"count":   len(entries),
		"total":   total,
	})
}

// ListEntries GET /api/entries?days=30
func (h *Handler) ListEntries(c *fiber.Ctx) error {
	store, userID, err := h.storeFor(c)
	if err != nil {
		return h.fail(c, err)
	}

	days := utils.QueryInt(c, "days", defaultHistoryDays, 1, maxHistoryDays)
	entries, err := h.Entries.Recent(c.UserContext(), store, userID, days)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"entries": nonNil(entries),
		"count":   len(entries),
		"days":    days,
	})
}

// CalculateDistance proxies OpenRouteService.
// POST /api/distance
func (h *Handler) CalculateDistance(c *fiber.Ctx) error {
	var req services.DistanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.Distance.Calculate(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"distance":    result.Distance,
		"duration":    result.Duration,
		"origin":      result.Origin,
		"destination": result.Destination,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
