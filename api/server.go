/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Identify:   Resolves the caller from cookie or bearer token
  4. AccessLog:  logrus entry per request, stored in the context
  5. Recoverer:  Panic recovery (500 instead of crash)
  6. CORS:       Cross-origin requests for the frontend

  /register and /login additionally pass through the Redis rate limiter.
  Everything else except /healthz requires a caller; role checks happen in
  the domain services so the rules cannot be bypassed by a new route.

ROUTE GROUPS:
  /api/register, /api/login       Public
  /api/logout, /api/profile       Any caller
  /api/attendance/*               Workers
  /api/workers/*                  Administrators
  /api/admin/*                    Administrators
  /api/scenarios/*                Demo data (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - session.go: Cookie and token sessions
  - ratelimit.go: Login throttling
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/config"
)

// RouterOptions carries deployment settings the router needs.
type RouterOptions struct {
	CORSOrigins []string
	RateLimit   config.RateLimitConfig
	Redis       *redis.Client // nil disables rate limiting
	Dev         bool          // mounts /api/scenarios
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.Sessions.Identify)
	r.Use(AccessLog(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limit := RateLimit(opts.RateLimit, opts.Redis, h.Log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Health)

		r.With(limit).Post("/register", h.Register)
		r.With(limit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(RequireCaller)

			r.Post("/logout", h.Logout)
			r.Get("/profile", h.Profile)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/mark-entry", h.MarkEntry)
				r.Post("/mark-exit", h.MarkExit)
				r.Get("/today", h.Today)
				r.Get("/history", h.History)
			})

			r.Route("/workers", func(r chi.Router) {
				r.Get("/", h.ListWorkers)
				r.Post("/", h.CreateWorker)
				r.Put("/{id}", h.UpdateWorker)
				r.Delete("/{id}", h.DeleteWorker)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", h.Dashboard)
				r.Route("/workers/{id}", func(r chi.Router) {
					r.Get("/attendance", h.WorkerAttendance)
					r.Post("/extra-payments", h.AddExtraPayment)
					r.Get("/extra-payments", h.ExtraPayments)
					r.Post("/weekly-report", h.GenerateWeeklyReport)
					r.Get("/weekly-reports", h.WeeklyReports)
				})
			})
		})

		if opts.Dev {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found", Code: "not_found"})
	})

	return r
}

// =============================================================================
// ACCESS LOG
// =============================================================================

type loggerKey struct{}

// AccessLog logs one line per request and makes a request-scoped entry
// available to handlers through loggerFrom.
func AccessLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remote":     r.RemoteAddr,
			})
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggerKey{}, entry)))

			fields := logrus.Fields{
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if c := CallerFrom(r.Context()); c != nil {
				fields["account_id"] = c.AccountID
			}
			done := entry.WithFields(fields)
			if ww.Status() >= http.StatusInternalServerError {
				done.Warn("request")
			} else {
				done.Info("request")
			}
		})
	}
}

// loggerFrom returns the request-scoped entry, or nil outside AccessLog.
func loggerFrom(ctx context.Context) logrus.FieldLogger {
	log, _ := ctx.Value(loggerKey{}).(logrus.FieldLogger)
	return log
}
