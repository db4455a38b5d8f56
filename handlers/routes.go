// handlers/routes.go
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Routes are the cross-cutting handlers the API is mounted with.
type Routes struct {
	RequireAuth fiber.Handler
	UsersOnly   fiber.Handler
	// General applies to all of /api; Strict is added on auth and the
	// upstream proxies.
	General fiber.Handler
	Strict  fiber.Handler
	// WebSocketAuth and WebSocket serve /ws/entries. Both nil skips the route.
	WebSocketAuth fiber.Handler
	WebSocket     fiber.Handler
	// Debug mounts /api/debug. Never set in production.
	Debug bool
}

// Register mounts every route. Nil middleware fields are treated as no-ops.
func Register(app *fiber.App, h *Handler, r Routes) {
	for _, mw := range []*fiber.Handler{&r.RequireAuth, &r.UsersOnly, &r.General, &r.Strict} {
		if *mw == nil {
			*mw = next
		}
	}

	app.Get("/health", h.Health)

	api := app.Group("/api", r.General)

	authGroup := api.Group("/auth")
	authGroup.Post("/guest", r.Strict, h.GuestLogin)
	authGroup.Post("/login", r.Strict, h.Login)
	authGroup.Post("/register", r.Strict, h.Register)
	authGroup.Post("/upgrade", r.Strict, r.RequireAuth, r.UsersOnly, h.UpgradeGuest)
	authGroup.Get("/me", r.RequireAuth, h.Me)

	api.Post("/demo", r.Strict, h.EnableDemo)
	api.Delete("/demo", r.RequireAuth, h.DisableDemo)

	entries := api.Group("/entries", r.RequireAuth)
	entries.Post("/", r.Strict, h.CreateEntry)
	entries.Post("/manual", h.CreateManualEntry)
	entries.Get("/today", h.TodayEntries)
	entries.Get("/", h.ListEntries)

	api.Post("/distance", r.Strict, r.RequireAuth, h.CalculateDistance)

	api.Get("/dashboard", r.RequireAuth, h.GetDashboard)
	api.Get("/tips", r.RequireAuth, h.GetTips)
	api.Get("/achievements", r.RequireAuth, h.GetAchievements)
	api.Post("/achievements/check", r.RequireAuth, h.CheckAchievements)
	api.Get("/leaderboard", h.GetLeaderboard)

	if r.Debug {
		debug := api.Group("/debug")
		debug.Get("/status", h.DebugStatus)
		debug.Post("/cleanup", h.RunCleanup)
	}

	if r.WebSocketAuth != nil && r.WebSocket != nil {
		app.Get("/ws/entries", r.WebSocketAuth, r.WebSocket)
	}
}

func next(c *fiber.Ctx) error {
	return c.Next()
}

// HealthCheck is a named dependency ping.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// Health GET /health
// Reports 503 with status "degraded" when any check fails.
func (h *Handler) Health(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	checks := fiber.Map{}

	for _, check := range h.Checks {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		err := check.Ping(ctx)
		cancel()
		if err != nil {
			h.Log.Warn("Health check failed", zap.String("check", check.Name), zap.Error(err))
			checks[check.Name] = "unavailable"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			continue
		}
		checks[check.Name] = "ok"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	})
}
