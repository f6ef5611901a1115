/*
handlers.go - HTTP API handlers for the attendance and payroll service

PURPOSE:
  Exposes the ledger, payroll and account services via a REST API. Handles
  HTTP request/response and JSON serialization, and delegates every rule to
  the domain packages.

ENDPOINTS:
  Accounts (handlers_auth.go):
    POST   /api/register                 Self-service signup
    POST   /api/login                    Cookie session + bearer token
    POST   /api/logout                   End session
    GET    /api/profile                  Caller's account

  Attendance (handlers_attendance.go), workers only:
    POST   /api/attendance/mark-entry
    POST   /api/attendance/mark-exit
    GET    /api/attendance/today
    GET    /api/attendance/history       ?page=&per_page= or ?start_date=&end_date=

  Administration (handlers_admin.go), administrators only:
    GET    /api/workers                  Managed workers
    POST   /api/workers                  Create worker
    PUT    /api/workers/{id}             Update worker
    DELETE /api/workers/{id}             Delete worker and history
    GET    /api/admin/dashboard
    GET    /api/admin/workers/{id}/attendance        ?start_date=&end_date=
    POST   /api/admin/workers/{id}/extra-payments
    GET    /api/admin/workers/{id}/extra-payments
    POST   /api/admin/workers/{id}/weekly-report
    GET    /api/admin/workers/{id}/weekly-reports

  Scenarios (scenarios.go), dev only:
    GET    /api/scenarios
    POST   /api/scenarios/load

ARCHITECTURE:
  Handler struct holds all dependencies. The caller is resolved by the
  session middleware and passed explicitly to every domain call.

REQUEST FLOW:
  1. Resolve caller from context
  2. Parse and decode input
  3. Call domain logic
  4. Publish domain event (best effort)
  5. Serialize response, or map the error (errors.go)

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/account"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/events"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Billing  *factory.Billing
	Accounts *account.Service
	Ledger   *attendance.Ledger
	Payroll  *payroll.Service
	Sessions *Sessions
	Events   events.Publisher
	Log      logrus.FieldLogger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// HandlerConfig carries the collaborators NewHandler cannot derive from the
// store. Zero values get sensible defaults.
type HandlerConfig struct {
	Billing  *factory.Billing
	Hasher   account.Hasher
	Sessions *Sessions
	Events   events.Publisher
	Log      logrus.FieldLogger
	Clock    generic.Clock
	Location *time.Location
}

// NewHandler wires the domain services over store.
func NewHandler(store *sqlite.Store, cfg HandlerConfig) *Handler {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Events == nil {
		cfg.Events = events.LogPublisher{Log: cfg.Log}
	}
	if cfg.Clock == nil {
		cfg.Clock = generic.SystemClock
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Handler{
		Store:    store,
		Billing:  cfg.Billing,
		Accounts: account.NewService(store, cfg.Billing, cfg.Hasher),
		Ledger: attendance.NewLedger(store, cfg.Billing.Policy,
			attendance.WithClock(cfg.Clock), attendance.WithLocation(cfg.Location)),
		Payroll: payroll.NewService(store,
			payroll.WithClock(cfg.Clock), payroll.WithLocation(cfg.Location)),
		Sessions: cfg.Sessions,
		Events:   cfg.Events,
		Log:      cfg.Log,
	}
}

// Health reports whether the database answers.
// GET /api/healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"billing":        string(h.Billing.Variant),
		"accrual_policy": string(h.Ledger.Policy().Name()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a single JSON object into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("body", "request body is required")
		}
		var verr *generic.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return badRequest("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (generic.AccountID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		// An unparseable id cannot name anything the caller owns.
		return 0, generic.ErrNotFound
	}
	return generic.AccountID(id), nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key, "must be an integer")
	}
	return n, nil
}

// queryRange reads optional start_date / end_date parameters.
func queryRange(r *http.Request) (generic.DateRange, error) {
	var dr generic.DateRange
	for key, dst := range map[string]**generic.Date{"start_date": &dr.From, "end_date": &dr.To} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		d, err := generic.ParseDate(raw)
		if err != nil {
			return dr, badRequest(key, "must be a date in YYYY-MM-DD format")
		}
		*dst = &d
	}
	return dr, dr.Validate()
}

// publish sends a domain event after a successful commit. Failures are
// logged and never reach the client.
func (h *Handler) publish(r *http.Request, e events.Event) {
	log := h.Log.WithFields(logrus.Fields{
		"event":      e.Kind,
		"account_id": e.AccountID,
		"actor_id":   e.ActorID,
	})
	for k, v := range e.Data {
		log = log.WithField(k, v)
	}
	log.Info("domain event")
	if err := h.Events.Publish(r.Context(), e); err != nil {
		log.WithError(err).Warn("event publish failed")
	}
}
