// middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"carbonsense/realtime"
	"carbonsense/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Locals keys.
const (
	localUserID      = realtime.LocalUserID
	localUsername    = "username"
	localIsGuest     = "isGuest"
	localDemoSession = "demoSession"
)

// ActivityToucher records the last time a user made an authenticated call.
type ActivityToucher interface {
	TouchActivity(ctx context.Context, userID uint, at time.Time) error
}

type Auth struct {
	tokens   *services.TokenIssuer
	demos    *services.DemoRegistry
	activity ActivityToucher
	log      *zap.Logger
}

// NewAuth accepts a nil toucher, which skips activity tracking.
func NewAuth(tokens *services.TokenIssuer, demos *services.DemoRegistry, activity ActivityToucher, log *zap.Logger) *Auth {
	return &Auth{tokens: tokens, demos: demos, activity: activity, log: log}
}

// Required accepts user and demo tokens from the Authorization header.
func (a *Auth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": err.Error()})
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
		}

		if claims.IsDemo() {
			session, err := a.demos.Get(claims.DemoSession)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Demo session expired"})
			}
			c.Locals(localDemoSession, session)
			c.Locals(localUsername, claims.Username)
			return c.Next()
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		c.Locals(localIsGuest, claims.IsGuest)
		a.touch(c.UserContext(), claims.UserID)

		return c.Next()
	}
}

// UsersOnly rejects demo sessions. It runs after Required.
func UsersOnly(c *fiber.Ctx) error {
	if DemoSession(c) != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "Not available in demo mode"})
	}
	return c.Next()
}

// WebSocket authenticates an upgrade request. Browsers cannot set headers on
// a WebSocket handshake, so the token may come in the token query parameter.
// Demo tokens are refused.
func (a *Auth) WebSocket() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenString := c.Query("token")
		if tokenString == "" {
			tokenString, _ = bearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Missing token"})
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil || claims.IsDemo() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
		}

		c.Locals(localUserID, claims.UserID)
		a.touch(c.UserContext(), claims.UserID)
		return c.Next()
	}
}

func (a *Auth) touch(ctx context.Context, userID uint) {
	if a.activity == nil {
		return
	}
	if err := a.activity.TouchActivity(ctx, userID, time.Now().UTC()); err != nil {
		a.log.Debug("Failed to update last activity", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("Missing authorization header")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("Invalid authorization header format")
	}
	return parts[1], nil
}

func GetUserID(c *fiber.Ctx) (uint, error) {
	if id, ok := c.Locals(localUserID).(uint); ok && id != 0 {
		return id, nil
	}
	return 0, fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")
}

func GetUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(localUsername).(string)
	return name
}

func IsGuest(c *fiber.Ctx) bool {
	guest, _ := c.Locals(localIsGuest).(bool)
	return guest
}

// DemoSession returns the request's demo session, or nil for real users.
func DemoSession(c *fiber.Ctx) *services.DemoSession {
	s, _ := c.Locals(localDemoSession).(*services.DemoSession)
	return s
}
