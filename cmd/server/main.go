/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance and payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Initialize logger and SQLite store
  3. Seed the first administrator if none exists
  4. Connect optional Redis (rate limiting) and RabbitMQ (events)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: APP_PORT or 8080)
  -db      SQLite database path (default: DB_PATH or attendance.db)
           Use ":memory:" for in-memory database
  -env     dev, test or prod (default: APP_ENV or dev)

ENVIRONMENT:
  See config/config.go for the full list. The important ones:
  BILLING_VARIANT, ACCRUAL_POLICY, APP_TIMEZONE, JWT_SECRET,
  REDIS_ADDR, AMQP_URL, ADMIN_SEED_PASSWORD.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close event publisher, Redis and database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/account"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/events"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := config.NewLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	billing, err := cfg.Billing()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	secret := cfg.JWTSecret
	if secret == "" {
		// Only reachable in dev; tokens do not survive a restart.
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("JWT_SECRET not set, using an ephemeral secret")
	}
	sessions := api.NewSessions([]byte(secret), cfg.SessionTTL, cfg.AccessTTL, cfg.CookieSecure)

	publisher := eventPublisher(cfg, log)
	defer publisher.Close()

	handler := api.NewHandler(store, api.HandlerConfig{
		Billing:  billing,
		Hasher:   account.NewHasher(cfg.BcryptCost),
		Sessions: sessions,
		Events:   publisher,
		Log:      log,
		Location: loc,
	})

	if err := seedAdministrator(cfg, handler.Accounts, log); err != nil {
		return err
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else if cfg.RateLimit.Enabled {
		log.Warn("redis unavailable, rate limiting disabled")
	}

	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		Redis:       rdb,
		Dev:         cfg.IsDev(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":           cfg.Port,
			"env":            cfg.Env,
			"billing":        billing.Variant,
			"accrual_policy": billing.Policy.Name(),
			"timezone":       loc.String(),
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// eventPublisher prefers RabbitMQ and falls back to the log.
func eventPublisher(cfg config.Config, log *logrus.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.LogPublisher{Log: log}
	}
	p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable, logging events instead")
		return events.LogPublisher{Log: log}
	}
	log.WithField("queue", cfg.AMQPQueue).Info("publishing events to rabbitmq")
	return p
}

// seedAdministrator creates the first administrator on an empty database.
// Without ADMIN_SEED_PASSWORD a random one is generated and logged once.
func seedAdministrator(cfg config.Config, accounts *account.Service, log *logrus.Logger) error {
	seed := account.Seed{
		Username: cfg.AdminSeedUsername,
		Email:    cfg.AdminSeedEmail,
		Password: cfg.AdminSeedPassword,
	}
	generated := seed.Password == ""
	if generated {
		seed.Password = uuid.NewString()[:18]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	created, err := accounts.EnsureAdministrator(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}
	if !created {
		return nil
	}

	entry := log.WithField("username", seed.Username)
	if generated {
		entry = entry.WithField("password", seed.Password)
		entry.Warn("administrator created with a generated password, change it")
		return nil
	}
	entry.Info("administrator created")
	return nil
}
