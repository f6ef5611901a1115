package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEEKLY REPORT - Frozen pay totals for a period
// =============================================================================

// WeeklyReport captures what a worker was owed for a period at the moment an
// administrator asked. Reports are append-only: generating the same week twice
// stores two snapshots.
type WeeklyReport struct {
	ID        int64
	AccountID AccountID
	Period    Period

	TotalHours    decimal.Decimal
	TotalEarnings decimal.Decimal
	ExtraPayments decimal.Decimal // signed sum
	FinalAmount   decimal.Decimal // TotalEarnings + ExtraPayments

	GeneratedBy AccountID
	CreatedAt   time.Time
}

// NewWeeklyReport builds an unsaved snapshot from the constituent rows.
func NewWeeklyReport(worker, admin AccountID, period Period, records []AttendanceRecord, payments []ExtraPayment) WeeklyReport {
	totals := SumRecords(records, period)
	extras := SumPayments(payments, period)
	return WeeklyReport{
		AccountID:     worker,
		Period:        period,
		TotalHours:    totals.Hours,
		TotalEarnings: totals.Earnings,
		ExtraPayments: extras,
		FinalAmount:   totals.Earnings.Add(extras),
		GeneratedBy:   admin,
	}
}
