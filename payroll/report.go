package payroll

import (
	"context"
	"fmt"

	"github.com/warp/attendance-engine/generic"
)

// ReportResult is a freshly stored report plus the rows it was built from,
// for audit display.
type ReportResult struct {
	Report   generic.WeeklyReport
	Records  []generic.AttendanceRecord
	Payments []generic.ExtraPayment
}

// GenerateWeeklyReport snapshots a worker's pay for period.
//
//	final_amount = sum(earning) + sum(signed extra payments)
//
// Each call appends a new snapshot, even for a period already reported.
// Reading the rows and inserting the snapshot happen in one transaction.
func (s *Service) GenerateWeeklyReport(ctx context.Context, caller *generic.Caller, workerID generic.AccountID, period generic.Period) (*ReportResult, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	var result ReportResult
	err = s.store.WithTx(ctx, func(st generic.Store) error {
		records, err := st.RecordsInRange(ctx, []generic.AccountID{worker.ID}, generic.RangeOf(period))
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		payments, err := st.PaymentsInRange(ctx, worker.ID, generic.RangeOf(period))
		if err != nil {
			return fmt.Errorf("load extra payments: %w", err)
		}

		report := generic.NewWeeklyReport(worker.ID, caller.AccountID, period, records, payments)
		if err := st.CreateReport(ctx, &report); err != nil {
			return fmt.Errorf("store weekly report: %w", err)
		}

		if records == nil {
			records = []generic.AttendanceRecord{}
		}
		if payments == nil {
			payments = []generic.ExtraPayment{}
		}
		result = ReportResult{Report: report, Records: records, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reports lists a worker's stored snapshots, newest first.
func (s *Service) Reports(ctx context.Context, caller *generic.Caller, workerID generic.AccountID) ([]generic.WeeklyReport, error) {
	worker, err := s.scope.OwnedWorker(ctx, caller, workerID)
	if err != nil {
		return nil, err
	}
	reports, err := s.store.ReportsFor(ctx, worker.ID)
	if err != nil {
		return nil, fmt.Errorf("list weekly reports: %w", err)
	}
	if reports == nil {
		reports = []generic.WeeklyReport{}
	}
	return reports, nil
}
