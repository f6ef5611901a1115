/*
Package payroll rolls attendance and extra payments up into money.

PURPOSE:
  Administrators look at hours and earnings over arbitrary ranges, add ad-hoc
  payments, freeze a week into a report and glance at a dashboard. All of
  these are sums over the same two tables, so they share one Service.

OPERATIONS:
  Aggregate            totals for any set of accounts over an inclusive period
  WorkerAttendance     one worker's records plus a summary, optional range
  AddExtraPayment      bonus / overtime / deduction / advance
  ExtraPayments        a worker's payments, newest first
  GenerateWeeklyReport append a WeeklyReport snapshot (see report.go)
  DashboardSummary     today / week-to-date / month-to-date (see dashboard.go)

SCOPE:
  Every per-worker operation first resolves the worker through
  access.Scope.OwnedWorker, so a foreign worker id is a NotFound.

SEE ALSO:
  - generic/balance.go: pure summation
  - access/scope.go: ownership rules
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/access"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store    generic.TxStore
	scope    *access.Scope
	clock    generic.Clock
	location *time.Location
}

type Option func(*Service)

func WithClock(c generic.Clock) Option { return func(s *Service) { s.clock = c } }

func WithLocation(loc *time.Location) Option { return func(s *Service) { s.location = loc } }

func NewService(store generic.TxStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		scope:    access.NewScope(store),
		clock:    generic.SystemClock,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date in the service's location.
func (s *Service) Today() generic.Date { return generic.DateIn(s.clock(), s.location) }

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate sums hours and earnings of the accounts' records dated within
// period. Records still waiting for an exit contribute zero.
func (s *Service) Aggregate(ctx context.Context, accountIDs []generic.AccountID, period generic.Period) (generic.Totals, error) {
	if err := period.Validate(); err != nil {
		return generic.Totals{}, err
	}
	if len(accountIDs) == 0 {
		return generic.ZeroTotals(), nil
	}
	records, err := s.store.RecordsInRange(ctx, accountIDs, generic.RangeOf(period))
	if err != nil {
		return generic.Totals{}, fmt.Errorf("load attendance: %w", err)
	}
	return generic.SumRecords(records, period), nil
}

// WorkerAttendance is an administrator's view of one worker.
type WorkerAttendance struct {
	Worker  generic.Account
	Records []generic.AttendanceRecord
	Summary generic.Totals
}

// WorkerAttendance returns the worker's records in r (either bound optional)
// with totals over exactly those records.
func (s *Service) WorkerAttendance(ctx context.Context, caller *generic.Caller, workerID generic.AccountID, r generic.DateRange) (*WorkerAttendance, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	records, err := s.store.RecordsInRange(ctx, []generic.AccountID{worker.ID}, r)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	if records == nil {
		records = []generic.AttendanceRecord{}
	}
	return &WorkerAttendance{
		Worker:  *worker,
		Records: records,
		Summary: generic.SumAll(records),
	}, nil
}
