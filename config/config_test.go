package config_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/generic"
)

var keys = []string{
	"APP_ENV", "APP_PORT", "DB_PATH", "APP_TIMEZONE", "BILLING_VARIANT", "ACCRUAL_POLICY",
	"JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "SESSION_TTL_HOURS", "BCRYPT_COST", "COOKIE_SECURE",
	"LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "REDIS_ADDR", "REDIS_DB",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
	"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "AMQP_URL", "ADMIN_SEED_PASSWORD",
}

// clearEnv blanks every key so defaults apply regardless of the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := config.FromEnv()

	assert.Equal(t, "dev", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "attendance.db", cfg.DBPath)
	assert.Equal(t, "hourly_rate", cfg.BillingVariant)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "attendance.events", cfg.AMQPQueue)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.Capacity)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("BILLING_VARIANT", "daily_wage")
	t.Setenv("ACCRUAL_POLICY", "block")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := config.FromEnv()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.RateLimit.Enabled)

	b, err := cfg.Billing()
	require.NoError(t, err)
	assert.Equal(t, generic.BillingDailyWage, b.Variant)
	assert.Equal(t, generic.PolicyBlock, b.Policy.Name())
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "soon")
	cfg := config.FromEnv()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 6*time.Second, cfg.RateLimit.RefillInterval)
}

func TestRateLimit_Clamped(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := config.FromEnv().RateLimit
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 10*time.Second, rl.TTL, "ttl covers five refill intervals")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := config.FromEnv()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"dev without secret", func(c *config.Config) {}, true},
		{"prod without secret", func(c *config.Config) { c.Env = "prod" }, false},
		{"prod with secret", func(c *config.Config) {
			c.Env = "prod"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, true},
		{"bad port", func(c *config.Config) { c.Port = 70000 }, false},
		{"empty db", func(c *config.Config) { c.DBPath = "" }, false},
		{"unknown variant", func(c *config.Config) { c.BillingVariant = "weekly" }, false},
		{"unknown zone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }, false},
		{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, false},
		{"zero ttl", func(c *config.Config) { c.AccessTTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	loc, err := config.Config{Timezone: "local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = config.Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")

	cfg, err := config.Load([]string{"-port", "7070", "-db", ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)

	_, err = config.Load([]string{"-nope"})
	assert.Error(t, err)
}

func TestNewRedisClient_NilWithoutAddress(t *testing.T) {
	assert.Nil(t, config.NewRedisClient(config.RedisConfig{}))
}

func TestNewLogger_AddsDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	log := config.NewLogger(config.Config{Env: "test", LogLevel: "debug", LogFormat: "json"})
	log.Out = &buf

	log.WithField("k", "v").Debug("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, config.ServiceName, entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "hello", entry["msg"])
}
