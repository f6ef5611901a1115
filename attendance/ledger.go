/*
ledger.go - Attendance ledger with per-day uniqueness enforcement

PURPOSE:
  Wraps the generic state machine with persistence and accrual. One ledger
  day exists per (account, calendar date); entry and exit are each written
  exactly once.

INVARIANT:
  At most one successful MarkEntry and one successful MarkExit per
  (account, date), even with concurrent callers.

  The check-then-write here is only the fast path. The store backs it:
  InsertRecord hits a unique (account_id, date) index and CompleteRecord is
  a conditional update on exit_time IS NULL. A racing second caller gets
  ErrDuplicateEntry / ErrDuplicateExit from the store and the transaction
  rolls back.

WHAT IT DOES ON EXIT:
  1. Loads the worker's billing parameters
  2. Runs the deployment's AccrualPolicy over [entry, exit]
  3. Stores exit, minutes, blocks, hours and earning in the same transaction

"TODAY":
  The ledger clock gives the instant; the configured location turns it into
  a calendar date. Tests inject a fixed clock.

ERROR HANDLING:
  Rejected transitions return *generic.LedgerStateError wrapping one of
  ErrDuplicateEntry, ErrDuplicateExit, ErrNoEntryYet.

SEE ALSO:
  - generic/ledger.go: transition table
  - attendance/accrual.go: policies
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/access"
	"github.com/warp/attendance-engine/generic"
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 100
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store    generic.TxStore
	policy   generic.AccrualPolicy
	clock    generic.Clock
	location *time.Location
}

type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(c generic.Clock) Option { return func(l *Ledger) { l.clock = c } }

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option { return func(l *Ledger) { l.location = loc } }

func NewLedger(store generic.TxStore, policy generic.AccrualPolicy, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		policy:   policy,
		clock:    generic.SystemClock,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Policy() generic.AccrualPolicy { return l.policy }

// Location is the time zone that defines calendar days.
func (l *Ledger) Location() *time.Location { return l.location }

// Today returns the calendar date the ledger is currently writing to.
func (l *Ledger) Today() generic.Date { return generic.DateIn(l.clock(), l.location) }

// =============================================================================
// TRANSITIONS
// =============================================================================

// MarkEntry moves today's ledger from NoRecord to EntryMarked.
func (l *Ledger) MarkEntry(ctx context.Context, caller *generic.Caller) (*generic.AttendanceRecord, error) {
	if err := access.RequireWorker(caller); err != nil {
		return nil, err
	}
	now := l.clock()
	today := generic.DateIn(now, l.location)

	var marked *generic.AttendanceRecord
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		existing, err := s.GetRecord(ctx, caller.AccountID, today)
		if err != nil {
			return err
		}
		if _, err := generic.Transition(existing.State(), generic.EventEntry); err != nil {
			return stateError(caller.AccountID, today, existing.State(), err)
		}

		entry := now
		rec := &generic.AttendanceRecord{AccountID: caller.AccountID, Date: today, EntryTime: &entry}
		if err := s.InsertRecord(ctx, rec); err != nil {
			if errors.Is(err, generic.ErrDuplicateEntry) {
				// Lost a race with a concurrent entry.
				return stateError(caller.AccountID, today, generic.StateEntryMarked, generic.ErrDuplicateEntry)
			}
			return fmt.Errorf("insert attendance record: %w", err)
		}
		marked = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// MarkExit moves today's ledger from EntryMarked to Completed and stores the
// accrued duration and earning.
func (l *Ledger) MarkExit(ctx context.Context, caller *generic.Caller) (*generic.AttendanceRecord, error) {
	if err := access.RequireWorker(caller); err != nil {
		return nil, err
	}
	now := l.clock()
	today := generic.DateIn(now, l.location)

	var completed *generic.AttendanceRecord
	err := l.store.WithTx(ctx, func(s generic.Store) error {
		rec, err := s.GetRecord(ctx, caller.AccountID, today)
		if err != nil {
			return err
		}
		if _, err := generic.Transition(rec.State(), generic.EventExit); err != nil {
			return stateError(caller.AccountID, today, rec.State(), err)
		}

		acct, err := s.GetAccount(ctx, caller.AccountID)
		if err != nil {
			return fmt.Errorf("load billing parameters: %w", err)
		}

		exit := now
		if exit.Before(*rec.EntryTime) {
			// Clock skew between requests; never produce negative time.
			exit = *rec.EntryTime
		}
		accrual, err := l.policy.Accrue(*rec.EntryTime, exit, acct.Billing)
		if err != nil {
			return err
		}

		rec.ExitTime = &exit
		rec.Minutes = accrual.Minutes
		rec.Blocks = accrual.Blocks
		rec.Hours = accrual.Hours
		rec.Earning = accrual.Earning
		if err := s.CompleteRecord(ctx, *rec); err != nil {
			if errors.Is(err, generic.ErrDuplicateExit) {
				return stateError(caller.AccountID, today, generic.StateCompleted, generic.ErrDuplicateExit)
			}
			return fmt.Errorf("complete attendance record: %w", err)
		}
		rec.UpdatedAt = now.UTC()
		completed = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func stateError(id generic.AccountID, day generic.Date, state generic.LedgerState, err error) error {
	return &generic.LedgerStateError{AccountID: id, Date: day, State: state, Err: err}
}

// =============================================================================
// QUERIES
// =============================================================================

// TodayRecord returns the caller's record for today, or a zero placeholder.
// It never fails for an authenticated worker unless the store does.
func (l *Ledger) TodayRecord(ctx context.Context, caller *generic.Caller) (*generic.AttendanceRecord, error) {
	if err := access.RequireWorker(caller); err != nil {
		return nil, err
	}
	today := l.Today()
	rec, err := l.store.GetRecord(ctx, caller.AccountID, today)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return Placeholder(caller.AccountID, today), nil
	}
	return rec, nil
}

// Placeholder is the zero-valued record returned for a day with no entry.
func Placeholder(id generic.AccountID, day generic.Date) *generic.AttendanceRecord {
	return &generic.AttendanceRecord{AccountID: id, Date: day}
}

// HistoryPage is one page of an account's attendance, newest first.
type HistoryPage struct {
	Records     []generic.AttendanceRecord
	Total       int
	Pages       int
	CurrentPage int
	PerPage     int
}

// History pages through the caller's records. page < 1 is treated as 1 and
// perPage is clamped to [1, MaxPerPage] with DefaultPerPage for zero.
func (l *Ledger) History(ctx context.Context, caller *generic.Caller, page, perPage int) (*HistoryPage, error) {
	if err := access.RequireWorker(caller); err != nil {
		return nil, err
	}
	page, perPage = normalizePage(page, perPage)

	records, total, err := l.store.ListRecords(ctx, caller.AccountID, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if records == nil {
		records = []generic.AttendanceRecord{}
	}
	return &HistoryPage{
		Records:     records,
		Total:       total,
		Pages:       (total + perPage - 1) / perPage,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// HistoryInRange returns the caller's records in r, newest first.
func (l *Ledger) HistoryInRange(ctx context.Context, caller *generic.Caller, r generic.DateRange) ([]generic.AttendanceRecord, error) {
	if err := access.RequireWorker(caller); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return l.store.RecordsInRange(ctx, []generic.AccountID{caller.AccountID}, r)
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return page, perPage
}
