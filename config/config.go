// config/config.go - Application configuration from environment
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `default:"development" validate:"oneof=development staging production test"`
	Port   string `default:"3000" validate:"required,numeric"`

	// DatabaseURL wins over the individual DB_* parts when set.
	DatabaseURL string
	DBHost      string `default:"localhost"`
	DBPort      string `default:"5432"`
	DBUser      string `default:"postgres"`
	DBPassword  string
	DBName      string `default:"carbonsense"`
	DBSSLMode   string `default:"disable" validate:"oneof=disable require verify-ca verify-full"`

	DBMaxIdleConns    int           `default:"10" validate:"min=1"`
	DBMaxOpenConns    int           `default:"100" validate:"min=1"`
	DBConnMaxLifetime time.Duration `default:"1h"`
	DBConnectTimeout  time.Duration `default:"30s"`
	MigrateOnStart    bool          `default:"true"`

	// Empty RedisURL keeps the leaderboard cache in process memory.
	RedisURL            string
	LeaderboardCacheTTL time.Duration `default:"1m"`

	JWTSecret string        `validate:"required,min=32"`
	JWTExpiry time.Duration `default:"720h" validate:"gt=0"`

	CORSOrigins string `default:"http://localhost:5173"`

	ORSAPIKey  string
	ORSBaseURL string `default:"https://api.openrouteservice.org" validate:"url"`

	MLPredictURL string        `default:"https://carbon-ml-backend.onrender.com/predict" validate:"url"`
	MLTimeout    time.Duration `default:"20s" validate:"gt=0"`

	RateLimitEnabled  bool          `default:"true"`
	RateLimitRequests int           `default:"100" validate:"min=1"`
	RateLimitWindow   time.Duration `default:"1m" validate:"gt=0"`

	DemoSessionTTL  time.Duration `default:"2h" validate:"gt=0"`
	GuestRetention  time.Duration `default:"720h" validate:"gt=0"`
	CleanupInterval time.Duration `default:"15m" validate:"gt=0"`
}

var validate = validator.New()

// Load reads .env (if present), applies defaults, overlays the environment
// and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an arbitrary lookup.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	e := envReader{get: getenv}
	e.str(&cfg.AppEnv, "APP_ENV")
	e.str(&cfg.Port, "PORT")
	e.str(&cfg.DatabaseURL, "DATABASE_URL")
	e.str(&cfg.DBHost, "DB_HOST")
	e.str(&cfg.DBPort, "DB_PORT")
	e.str(&cfg.DBUser, "DB_USER")
	e.str(&cfg.DBPassword, "DB_PASSWORD")
	e.str(&cfg.DBName, "DB_NAME")
	e.str(&cfg.DBSSLMode, "DB_SSLMODE")
	e.integer(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")
	e.integer(&cfg.DBMaxOpenConns, "DB_MAX_OPEN_CONNS")
	e.duration(&cfg.DBConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	e.duration(&cfg.DBConnectTimeout, "DB_CONNECT_TIMEOUT")
	e.flag(&cfg.MigrateOnStart, "MIGRATE_ON_START")
	e.str(&cfg.RedisURL, "REDIS_URL")
	e.duration(&cfg.LeaderboardCacheTTL, "LEADERBOARD_CACHE_TTL")
	e.str(&cfg.JWTSecret, "JWT_SECRET")
	e.duration(&cfg.JWTExpiry, "JWT_EXPIRY")
	e.str(&cfg.CORSOrigins, "CORS_ORIGINS")
	e.str(&cfg.ORSAPIKey, "OPENROUTESERVICE_API_KEY")
	e.str(&cfg.ORSBaseURL, "OPENROUTESERVICE_BASE_URL")
	e.str(&cfg.MLPredictURL, "ML_PREDICT_URL")
	e.duration(&cfg.MLTimeout, "ML_TIMEOUT")
	e.flag(&cfg.RateLimitEnabled, "RATE_LIMIT_ENABLED")
	e.integer(&cfg.RateLimitRequests, "RATE_LIMIT_REQUESTS")
	e.duration(&cfg.RateLimitWindow, "RATE_LIMIT_WINDOW")
	e.duration(&cfg.DemoSessionTTL, "DEMO_SESSION_TTL")
	e.duration(&cfg.GuestRetention, "GUEST_RETENTION")
	e.duration(&cfg.CleanupInterval, "CLEANUP_INTERVAL")

	if len(e.errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(e.errs, "; "))
	}

	if err := validate.Struct(cfg); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrationURL returns a URL-form DSN, which the migration driver requires.
func (c *Config) MigrationURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

type envReader struct {
	get  func(string) string
	errs []string
}

func (e *envReader) str(dst *string, key string) {
	if v := e.get(key); v != "" {
		*dst = v
	}
}

func (e *envReader) integer(dst *int, key string) {
	v := e.get(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*dst = n
}

func (e *envReader) duration(dst *time.Duration, key string) {
	v := e.get(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: %v", key, err))
		return
	}
	*dst = d
}

// flag treats false, 0 and no as off and anything else as on.
func (e *envReader) flag(dst *bool, key string) {
	v := strings.ToLower(strings.TrimSpace(e.get(key)))
	if v == "" {
		return
	}
	*dst = !(v == "false" || v == "0" || v == "no")
}
