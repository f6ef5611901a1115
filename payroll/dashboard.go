package payroll

import (
	"context"
	"fmt"

	"github.com/warp/attendance-engine/generic"
)

// Dashboard is an administrator's overview of all managed workers.
type Dashboard struct {
	AsOf         generic.Date
	TotalWorkers int
	Today        DayOverview
	ThisWeek     generic.Totals // Monday through today
	ThisMonth    generic.Totals // 1st through today
	Workers      []generic.Account
}

type DayOverview struct {
	generic.Presence
	generic.Totals
}

// DashboardSummary computes today, week-to-date and month-to-date totals over
// every worker the caller manages. With no workers everything is zero.
func (s *Service) DashboardSummary(ctx context.Context, caller *generic.Caller, today generic.Date) (*Dashboard, error) {
	workers, err := s.scope.ManagedWorkers(ctx, caller)
	if err != nil {
		return nil, err
	}
	if workers == nil {
		workers = []generic.Account{}
	}
	dash := &Dashboard{
		AsOf:         today,
		TotalWorkers: len(workers),
		Today:        DayOverview{Totals: generic.ZeroTotals()},
		ThisWeek:     generic.ZeroTotals(),
		ThisMonth:    generic.ZeroTotals(),
		Workers:      workers,
	}
	if len(workers) == 0 {
		return dash, nil
	}

	ids := make([]generic.AccountID, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}

	// One read covers all three windows: the earlier of week and month start.
	week := generic.WeekToDate(today)
	month := generic.MonthToDate(today)
	from := month.Start
	if week.Start.Before(from) {
		from = week.Start
	}
	records, err := s.store.RecordsInRange(ctx, ids, generic.DateRange{From: &from, To: &today})
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	dash.Today = DayOverview{
		Presence: generic.CountPresence(records, today),
		Totals:   generic.SumRecords(records, generic.SingleDay(today)),
	}
	dash.ThisWeek = generic.SumRecords(records, week)
	dash.ThisMonth = generic.SumRecords(records, month)
	return dash, nil
}
