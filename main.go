package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbonsense/cache"
	"carbonsense/config"
	"carbonsense/database"
	"carbonsense/handlers"
	"carbonsense/logging"
	"carbonsense/middleware"
	"carbonsense/realtime"
	"carbonsense/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Auth and upstream proxy requests per window, per client IP.
const strictRequests = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	zapLog, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.MigrationURL(), log); err != nil {
			return err
		}
	}

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()

	var leaderboardCache cache.Backend
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL, log)
		if err != nil {
			return err
		}
		leaderboardCache = redisCache
	} else {
		leaderboardCache = cache.NewMemory()
	}
	defer func() {
		if err := leaderboardCache.Close(); err != nil {
			log.Warn("Failed to close cache", zap.Error(err))
		}
	}()

	store := services.NewGormStore(db)
	hub := realtime.NewHub(log)
	demos := services.NewDemoRegistry(cfg.DemoSessionTTL)
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	badgeService := services.NewBadgeService(hub, log)
	leaderboard := services.NewLeaderboardService(store, leaderboardCache, cfg.LeaderboardCacheTTL, log)
	predictor := services.NewPredictor(cfg.MLPredictURL, cfg.MLTimeout, log)

	cleanup := services.NewCleanupService(demos, store, cfg.GuestRetention, cfg.CleanupInterval, log)
	cleanup.Start()
	defer cleanup.Stop()

	h := &handlers.Handler{
		Store:       store,
		Auth:        services.NewAuthService(store, tokens, log),
		Entries:     services.NewEntryService(predictor, badgeService, leaderboard, hub, log),
		Badges:      badgeService,
		Insights:    services.NewInsightService(),
		Leaderboard: leaderboard,
		Distance:    services.NewDistanceService(cfg.ORSAPIKey, cfg.ORSBaseURL, log),
		Demos:       demos,
		Tokens:      tokens,
		Log:         log,
		Realtime:    hub,
		Cleanup:     cleanup,
		Checks: []handlers.HealthCheck{
			{Name: "database", Ping: func(ctx context.Context) error { return database.Ping(ctx, db) }},
			{Name: "cache", Ping: leaderboardCache.Health},
		},
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(cfg.IsProduction()),
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  10 * time.Second,
		// Room for the ML endpoint's cold starts.
		WriteTimeout: cfg.MLTimeout + 10*time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	auth := middleware.NewAuth(tokens, demos, store, log)
	routes := handlers.Routes{
		RequireAuth:   auth.Required(),
		UsersOnly:     middleware.UsersOnly,
		WebSocketAuth: auth.WebSocket(),
		WebSocket:     hub.Handler(),
		Debug:         !cfg.IsProduction(),
	}
	if cfg.RateLimitEnabled {
		general := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		strict := middleware.NewRateLimiter(strictRequests, cfg.RateLimitWindow)
		defer general.Stop()
		defer strict.Stop()
		routes.General = general.Handler("Rate limit exceeded. Please try again later.")
		routes.Strict = strict.Handler("Too many requests. Please slow down.")
	}
	handlers.Register(app, h, routes)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.Bool("redis", cfg.RedisURL != ""),
			zap.Bool("rate_limit", cfg.RateLimitEnabled),
		)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	hub.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
	return nil
}

func errorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		if production && code == fiber.StatusInternalServerError {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
