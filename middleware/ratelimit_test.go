package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefill(t *testing.T) {
	start := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	tb := NewTokenBucket(2, 1, start)

	assert.True(t, tb.Allow(start))
	assert.True(t, tb.Allow(start))
	assert.False(t, tb.Allow(start))

	assert.True(t, tb.Allow(start.Add(time.Second)))
	assert.False(t, tb.Allow(start.Add(time.Second)))

	// Refill is capped at the bucket size.
	later := start.Add(time.Hour)
	assert.True(t, tb.Allow(later))
	assert.True(t, tb.Allow(later))
	assert.False(t, tb.Allow(later))
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(20 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("idle")

	now = now.Add(bucketIdleTimeout + time.Second)
	rl.Allow("active")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "idle")
	assert.Contains(t, rl.buckets, "active")
}

func TestRateLimiterHandler(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	app := fiber.New()
	app.Use(rl.Handler("Too many requests. Please try again later."))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/thing", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/thing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/thing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp, err = app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
