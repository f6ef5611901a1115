/*
Package config loads runtime configuration.

SOURCES (later wins):
  1. built-in defaults
  2. .env file in the working directory, if present
  3. process environment
  4. command-line flags (-port, -db, -env)

KEYS:
  APP_ENV, APP_PORT, DB_PATH, APP_TIMEZONE
  BILLING_VARIANT (hourly_rate | daily_wage), ACCRUAL_POLICY (block | continuous)
  JWT_SECRET, ACCESS_TOKEN_TTL_MIN, SESSION_TTL_HOURS, BCRYPT_COST
  LOG_LEVEL, LOG_FORMAT (json | text), CORS_ORIGINS (comma separated)
  REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, RATE_LIMIT_*
  AMQP_URL (empty disables event publishing)
  ADMIN_SEED_USERNAME, ADMIN_SEED_EMAIL, ADMIN_SEED_PASSWORD

SEE ALSO:
  - factory/billing.go: turns BILLING_VARIANT / ACCRUAL_POLICY into a policy
  - cmd/server/main.go: wiring
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/attendance-engine/factory"
)

type Config struct {
	Env      string
	Port     int
	DBPath   string
	Timezone string

	BillingVariant string
	AccrualPolicy  string

	JWTSecret    string
	AccessTTL    time.Duration
	SessionTTL   time.Duration
	BcryptCost   int
	CookieSecure bool

	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	Redis     RedisConfig
	RateLimit RateLimitConfig

	AMQPURL   string
	AMQPQueue string

	AdminSeedUsername string
	AdminSeedEmail    string
	AdminSeedPassword string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Load reads .env (if any), the environment and then args as flags.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	cfg := FromEnv()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, `SQLite database path (":memory:" for in-memory)`)
	fs.StringVar(&cfg.Env, "env", cfg.Env, "application environment (dev, test, prod)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults only.
func FromEnv() Config {
	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envInt("APP_PORT", 8080),
		DBPath:   envStr("DB_PATH", "attendance.db"),
		Timezone: envStr("APP_TIMEZONE", "Local"),

		BillingVariant: envStr("BILLING_VARIANT", "hourly_rate"),
		AccrualPolicy:  os.Getenv("ACCRUAL_POLICY"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		AccessTTL:    time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 60)) * time.Minute,
		SessionTTL:   time.Duration(envInt("SESSION_TTL_HOURS", 12)) * time.Hour,
		BcryptCost:   envInt("BCRYPT_COST", 10),
		CookieSecure: envBool("COOKIE_SECURE", false),

		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RateLimit: loadRateLimit(),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: envStr("AMQP_QUEUE", "attendance.events"),

		AdminSeedUsername: envStr("ADMIN_SEED_USERNAME", "admin"),
		AdminSeedEmail:    envStr("ADMIN_SEED_EMAIL", "admin@example.com"),
		AdminSeedPassword: os.Getenv("ADMIN_SEED_PASSWORD"),
	}
	return cfg
}

func loadRateLimit() RateLimitConfig {
	rl := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl
}

// IsDev is true for local development, where demo scenarios are exposed.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

// Location resolves Timezone. "Local" is the process time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Billing builds the deployment's billing scheme.
func (c Config) Billing() (*factory.Billing, error) {
	return factory.NewBilling(c.BillingVariant, c.AccrualPolicy)
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("APP_PORT: %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if _, err := c.Billing(); err != nil {
		return fmt.Errorf("billing: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters outside dev")
	}
	if c.AccessTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL_MIN and SESSION_TTL_HOURS must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	return nil
}
