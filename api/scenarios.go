/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates an administrator, workers and a
	few days of completed attendance, priced by the deployment's own accrual
	policy so the numbers match what the ledger would produce live.

AVAILABLE SCENARIOS:

	fresh-start:   One administrator and one worker, no history
	small-team:    Three workers, last week's attendance, a bonus and a deduction
	payroll-week:  One worker with a full week and a generated weekly report

HOW SCENARIOS WORK:
 1. Reset database (clear all data, including the seeded administrator)
 2. Register the demo administrator
 3. Create workers under it
 4. Backfill completed days ending yesterday
 5. Optionally add payments and a report

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "small-team"}

	The response carries the demo credentials. Existing sessions point at
	deleted accounts afterwards, so clients must log in again.

NOTE:

	Only mounted when ENV is dev.

SEE ALSO:
  - server.go: Dev-only route group
  - attendance/accrual.go: Pricing of backfilled days
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/account"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	demoAdmin    = "demo_admin"
	demoPassword = "demo1234"
)

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "One administrator and one worker with no attendance yet",
	},
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "Three workers with last week's attendance, a bonus and a deduction",
	},
	{
		ID:          "payroll-week",
		Name:        "Payroll Week",
		Description: "One worker with a full working week and its weekly report",
	},
}

// ScenarioLoaded is the response to a successful load.
type ScenarioLoaded struct {
	Scenario ScenarioDTO `json:"scenario"`
	Login    string      `json:"login"`
	Workers  []string    `json:"workers"`
	Password string      `json:"password"`
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario wipes the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		scenario ScenarioDTO
		found    bool
	)
	for _, s := range scenarios {
		if s.ID == req.ScenarioID {
			scenario, found = s, true
		}
	}
	if !found {
		writeError(w, r, badRequest("scenario_id", fmt.Sprintf("unknown scenario %q", req.ScenarioID)))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		workers []string
		err     error
	)
	switch scenario.ID {
	case "fresh-start":
		workers, err = h.loadFreshStart(ctx)
	case "small-team":
		workers, err = h.loadSmallTeam(ctx)
	case "payroll-week":
		workers, err = h.loadPayrollWeek(ctx)
	}
	if err != nil {
		writeError(w, r, fmt.Errorf("load scenario %s: %w", scenario.ID, err))
		return
	}

	h.currentScenario = scenario.ID
	h.Log.WithField("scenario", scenario.ID).WithField("workers", len(workers)).Info("scenario loaded")
	writeJSON(w, http.StatusOK, ScenarioLoaded{
		Scenario: scenario,
		Login:    demoAdmin,
		Workers:  workers,
		Password: demoPassword,
	})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.currentScenario = ""
	h.Log.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Database reset"})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadFreshStart(ctx context.Context) ([]string, error) {
	admin, err := h.demoAdministrator(ctx)
	if err != nil {
		return nil, err
	}
	w, err := h.demoWorker(ctx, admin, "alice", "alice@example.com")
	if err != nil {
		return nil, err
	}
	return []string{w.Username}, nil
}

func (h *Handler) loadSmallTeam(ctx context.Context) ([]string, error) {
	admin, err := h.demoAdministrator(ctx)
	if err != nil {
		return nil, err
	}

	lastWeek := h.Payroll.Today().StartOfWeek().AddDays(-7)
	shifts := map[string][]shift{
		"alice": {{8, 0, 16, 30}, {8, 15, 17, 0}, {9, 0, 17, 0}, {8, 0, 12, 0}, {8, 0, 16, 0}},
		"bob":   {{10, 0, 18, 0}, {10, 0, 18, 45}, {10, 0, 14, 29}},
		"carol": {{7, 0, 15, 0}, {7, 0, 15, 0}, {7, 0, 15, 0}, {7, 0, 15, 0}},
	}

	var names []string
	for _, name := range []string{"alice", "bob", "carol"} {
		worker, err := h.demoWorker(ctx, admin, name, name+"@example.com")
		if err != nil {
			return nil, err
		}
		if err := h.backfill(ctx, worker, lastWeek, shifts[name]); err != nil {
			return nil, err
		}
		names = append(names, worker.Username)

		switch name {
		case "alice":
			err = h.demoPayment(ctx, admin, worker, generic.PaymentBonus, "50", "Weekend coverage", lastWeek.AddDays(4))
		case "bob":
			err = h.demoPayment(ctx, admin, worker, generic.PaymentDeduction, "20", "Uniform", lastWeek.AddDays(2))
		}
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (h *Handler) loadPayrollWeek(ctx context.Context) ([]string, error) {
	admin, err := h.demoAdministrator(ctx)
	if err != nil {
		return nil, err
	}
	worker, err := h.demoWorker(ctx, admin, "dave", "dave@example.com")
	if err != nil {
		return nil, err
	}

	weekStart := h.Payroll.Today().StartOfWeek().AddDays(-7)
	week := []shift{{9, 0, 17, 0}, {9, 0, 17, 0}, {9, 0, 17, 0}, {9, 0, 17, 0}, {9, 0, 16, 30}}
	if err := h.backfill(ctx, worker, weekStart, week); err != nil {
		return nil, err
	}
	if err := h.demoPayment(ctx, admin, worker, generic.PaymentOvertime, "40", "Inventory night", weekStart.AddDays(3)); err != nil {
		return nil, err
	}

	period := generic.Period{Start: weekStart, End: weekStart.AddDays(6)}
	if _, err := h.Payroll.GenerateWeeklyReport(ctx, admin, worker.ID, period); err != nil {
		return nil, err
	}
	return []string{worker.Username}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// shift is a local start and end time of day: start hour, start minute, end
// hour, end minute.
type shift [4]int

func (h *Handler) demoAdministrator(ctx context.Context) (*generic.Caller, error) {
	admin, err := h.Accounts.Register(ctx, account.RegisterInput{
		Username: demoAdmin,
		Email:    "admin@example.com",
		Password: demoPassword,
		Role:     generic.RoleAdministrator,
	})
	if err != nil {
		return nil, err
	}
	return &generic.Caller{AccountID: admin.ID, Role: admin.Role}, nil
}

func (h *Handler) demoWorker(ctx context.Context, admin *generic.Caller, name, email string) (*generic.Account, error) {
	return h.Accounts.CreateWorker(ctx, admin, account.WorkerInput{
		Username: name,
		Email:    email,
		Password: demoPassword,
	})
}

func (h *Handler) demoPayment(ctx context.Context, admin *generic.Caller, worker *generic.Account, kind generic.PaymentType, amount, reason string, day generic.Date) error {
	_, err := h.Payroll.AddExtraPayment(ctx, admin, worker.ID, payroll.PaymentInput{
		Amount: decimal.RequireFromString(amount),
		Reason: reason,
		Type:   kind,
		Date:   day,
	})
	return err
}

// backfill writes one completed record per shift on consecutive days from
// start, priced by the deployment's accrual policy.
func (h *Handler) backfill(ctx context.Context, worker *generic.Account, start generic.Date, shifts []shift) error {
	loc := h.Ledger.Location()
	return h.Store.WithTx(ctx, func(s generic.Store) error {
		for i, sh := range shifts {
			day := start.AddDays(i)
			entry := time.Date(day.Year(), day.Month(), day.Day(), sh[0], sh[1], 0, 0, loc)
			exit := time.Date(day.Year(), day.Month(), day.Day(), sh[2], sh[3], 0, 0, loc)

			accrual, err := h.Ledger.Policy().Accrue(entry, exit, worker.Billing)
			if err != nil {
				return err
			}
			rec := &generic.AttendanceRecord{AccountID: worker.ID, Date: day, EntryTime: &entry}
			if err := s.InsertRecord(ctx, rec); err != nil {
				return err
			}
			rec.ExitTime = &exit
			rec.Minutes = accrual.Minutes
			rec.Blocks = accrual.Blocks
			rec.Hours = accrual.Hours
			rec.Earning = accrual.Earning
			if err := s.CompleteRecord(ctx, *rec); err != nil {
				return err
			}
		}
		return nil
	})
}
