package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/generic/store"
	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Wednesday 2025-03-12, 15:00 UTC
var now = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *payroll.Service
	mem    *store.Memory
	admin  *generic.Caller
	other  *generic.Caller
	worker generic.AccountID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	admin := &generic.Account{Username: "boss", Role: generic.RoleAdministrator, IsActive: true}
	require.NoError(t, mem.CreateAccount(ctx, admin))
	other := &generic.Account{Username: "rival", Role: generic.RoleAdministrator, IsActive: true}
	require.NoError(t, mem.CreateAccount(ctx, other))
	worker := &generic.Account{
		Username: "worker",
		Role:     generic.RoleWorker,
		Billing:  generic.HourlyBilling(dec("100")),
		AdminID:  &admin.ID,
		IsActive: true,
	}
	require.NoError(t, mem.CreateAccount(ctx, worker))

	svc := payroll.NewService(mem,
		payroll.WithClock(func() time.Time { return now }),
		payroll.WithLocation(time.UTC))

	return &fixture{
		svc:    svc,
		mem:    mem,
		admin:  &generic.Caller{AccountID: admin.ID, Role: generic.RoleAdministrator},
		other:  &generic.Caller{AccountID: other.ID, Role: generic.RoleAdministrator},
		worker: worker.ID,
	}
}

// day stores a completed record worth earning on d.
func (f *fixture) day(t *testing.T, id generic.AccountID, d generic.Date, hours, earning string) {
	t.Helper()
	ctx := context.Background()
	entry := d.Time().Add(9 * time.Hour)
	rec := &generic.AttendanceRecord{AccountID: id, Date: d, EntryTime: &entry}
	require.NoError(t, f.mem.InsertRecord(ctx, rec))
	if hours == "" {
		return
	}
	exit := entry.Add(time.Hour)
	rec.ExitTime = &exit
	rec.Hours = dec(hours)
	rec.Earning = dec(earning)
	require.NoError(t, f.mem.CompleteRecord(ctx, *rec))
}

func (f *fixture) pay(t *testing.T, typ generic.PaymentType, amount string, d generic.Date) {
	t.Helper()
	_, err := f.svc.AddExtraPayment(context.Background(), f.admin, f.worker, payroll.PaymentInput{
		Amount: dec(amount),
		Reason: "test",
		Type:   typ,
		Date:   d,
	})
	require.NoError(t, err)
}

// =============================================================================
// WEEKLY REPORT TESTS
// =============================================================================

func TestWeeklyReport_EarningsPlusSignedExtras(t *testing.T) {
	// GIVEN: 400 and 350 earned Monday and Tuesday, a 150 bonus and a
	//        50 deduction in the same week
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 10)
	f.day(t, f.worker, mon, "4.00", "400.00")
	f.day(t, f.worker, mon.AddDays(1), "3.50", "350.00")
	f.pay(t, generic.PaymentBonus, "150", mon.AddDays(1))
	f.pay(t, generic.PaymentDeduction, "50", mon.AddDays(2))

	// WHEN: the week is reported
	res, err := f.svc.GenerateWeeklyReport(context.Background(), f.admin, f.worker,
		generic.Period{Start: mon, End: mon.AddDays(6)})

	// THEN: final = 750 + 100
	require.NoError(t, err)
	assert.True(t, dec("850").Equal(res.Report.FinalAmount), "final = %s", res.Report.FinalAmount)
	assert.True(t, dec("750").Equal(res.Report.TotalEarnings))
	assert.True(t, dec("100").Equal(res.Report.ExtraPayments))
	assert.True(t, dec("7.5").Equal(res.Report.TotalHours))
	assert.Len(t, res.Records, 2)
	assert.Len(t, res.Payments, 2)
	assert.NotZero(t, res.Report.ID)
	assert.Equal(t, f.admin.AccountID, res.Report.GeneratedBy)
}

func TestWeeklyReport_AppendsSnapshots(t *testing.T) {
	// GIVEN: a report already generated for the week
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 10)
	week := generic.Period{Start: mon, End: mon.AddDays(6)}
	f.day(t, f.worker, mon, "1.00", "100.00")
	ctx := context.Background()
	first, err := f.svc.GenerateWeeklyReport(ctx, f.admin, f.worker, week)
	require.NoError(t, err)

	// WHEN: a bonus lands and the week is reported again
	f.pay(t, generic.PaymentBonus, "20", mon)
	second, err := f.svc.GenerateWeeklyReport(ctx, f.admin, f.worker, week)
	require.NoError(t, err)

	// THEN: both snapshots are kept, the old one unchanged
	reports, err := f.svc.Reports(ctx, f.admin, f.worker)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.NotEqual(t, first.Report.ID, second.Report.ID)
	assert.True(t, dec("100").Equal(first.Report.FinalAmount))
	assert.True(t, dec("120").Equal(second.Report.FinalAmount))
}

func TestWeeklyReport_RejectsInvertedPeriod(t *testing.T) {
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 10)

	_, err := f.svc.GenerateWeeklyReport(context.Background(), f.admin, f.worker,
		generic.Period{Start: mon, End: mon.AddDays(-1)})

	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}

func TestWeeklyReport_EmptyWeekIsZero(t *testing.T) {
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 3)

	res, err := f.svc.GenerateWeeklyReport(context.Background(), f.admin, f.worker,
		generic.Period{Start: mon, End: mon.AddDays(6)})

	require.NoError(t, err)
	assert.True(t, res.Report.FinalAmount.IsZero())
	assert.NotNil(t, res.Records)
	assert.NotNil(t, res.Payments)
}

// =============================================================================
// SCOPE TESTS
// =============================================================================

func TestPayroll_ForeignAdministratorSeesNotFound(t *testing.T) {
	// GIVEN: a worker managed by another administrator
	f := newFixture(t)
	ctx := context.Background()
	mon := generic.NewDate(2025, time.March, 10)

	// WHEN/THEN: every payroll operation reports not found
	_, err := f.svc.AddExtraPayment(ctx, f.other, f.worker, payroll.PaymentInput{
		Amount: dec("10"), Reason: "x", Type: generic.PaymentBonus, Date: mon,
	})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = f.svc.ExtraPayments(ctx, f.other, f.worker)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = f.svc.GenerateWeeklyReport(ctx, f.other, f.worker, generic.Period{Start: mon, End: mon})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = f.svc.WorkerAttendance(ctx, f.other, f.worker, generic.DateRange{})
	assert.ErrorIs(t, err, generic.ErrNotFound)

	// A worker calling an admin operation is forbidden, not masked.
	workerCaller := &generic.Caller{AccountID: f.worker, Role: generic.RoleWorker}
	_, err = f.svc.Reports(ctx, workerCaller, f.worker)
	assert.ErrorIs(t, err, generic.ErrForbidden)
}

// =============================================================================
// EXTRA PAYMENT TESTS
// =============================================================================

func TestAddExtraPayment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mon := generic.NewDate(2025, time.March, 10)

	tests := []struct {
		name  string
		in    payroll.PaymentInput
		field string
	}{
		{"negative amount", payroll.PaymentInput{Amount: dec("-5"), Reason: "x", Type: generic.PaymentBonus, Date: mon}, "amount"},
		{"zero amount", payroll.PaymentInput{Amount: decimal.Zero, Reason: "x", Type: generic.PaymentBonus, Date: mon}, "amount"},
		{"missing reason", payroll.PaymentInput{Amount: dec("5"), Type: generic.PaymentBonus, Date: mon}, "reason"},
		{"unknown type", payroll.PaymentInput{Amount: dec("5"), Reason: "x", Type: "tip", Date: mon}, "payment_type"},
		{"missing date", payroll.PaymentInput{Amount: dec("5"), Reason: "x", Type: generic.PaymentBonus}, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddExtraPayment(ctx, f.admin, f.worker, tt.in)
			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestAddExtraPayment_RoundsAndRecordsAuthor(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.AddExtraPayment(context.Background(), f.admin, f.worker, payroll.PaymentInput{
		Amount: dec("10.125"),
		Reason: "Travel",
		Type:   generic.PaymentAdvance,
		Date:   generic.NewDate(2025, time.March, 11),
	})

	require.NoError(t, err)
	assert.True(t, dec("10.12").Equal(p.Amount), "half to even: %s", p.Amount)
	assert.True(t, dec("-10.12").Equal(p.SignedAmount()))
	assert.Equal(t, f.admin.AccountID, p.AddedBy)

	list, err := f.svc.ExtraPayments(context.Background(), f.admin, f.worker)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}

// =============================================================================
// AGGREGATION & DASHBOARD TESTS
// =============================================================================

func TestWorkerAttendance_SummaryMatchesRange(t *testing.T) {
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 10)
	f.day(t, f.worker, mon.AddDays(-7), "8", "800")
	f.day(t, f.worker, mon, "2", "200")
	f.day(t, f.worker, mon.AddDays(1), "", "")

	from := mon
	wa, err := f.svc.WorkerAttendance(context.Background(), f.admin, f.worker, generic.DateRange{From: &from})

	require.NoError(t, err)
	assert.Len(t, wa.Records, 2)
	assert.Equal(t, 2, wa.Summary.Days)
	assert.True(t, dec("200").Equal(wa.Summary.Earnings))
	assert.Equal(t, "worker", wa.Worker.Username)
}

func TestAggregate(t *testing.T) {
	f := newFixture(t)
	mon := generic.NewDate(2025, time.March, 10)
	f.day(t, f.worker, mon, "2", "200")
	f.day(t, f.worker, mon.AddDays(1), "3", "300")

	totals, err := f.svc.Aggregate(context.Background(), []generic.AccountID{f.worker}, generic.SingleDay(mon))
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(totals.Earnings))

	totals, err = f.svc.Aggregate(context.Background(), nil, generic.SingleDay(mon))
	require.NoError(t, err)
	assert.True(t, totals.Earnings.IsZero())
	assert.Zero(t, totals.Days)
}

func TestDashboard_NoWorkers(t *testing.T) {
	f := newFixture(t)

	dash, err := f.svc.DashboardSummary(context.Background(), f.other, f.svc.Today())

	require.NoError(t, err)
	assert.Zero(t, dash.TotalWorkers)
	assert.Zero(t, dash.Today.Present)
	assert.True(t, dash.ThisWeek.Earnings.IsZero())
	assert.True(t, dash.ThisMonth.Hours.IsZero())
	assert.NotNil(t, dash.Workers)
}

func TestDashboard_TodayWeekMonth(t *testing.T) {
	// GIVEN: today is Wednesday the 12th; one day last month, one on
	//        the 3rd, one Monday and an open record today
	f := newFixture(t)
	today := f.svc.Today()
	require.Equal(t, "2025-03-12", today.String())

	f.day(t, f.worker, generic.NewDate(2025, time.February, 28), "8", "800")
	f.day(t, f.worker, generic.NewDate(2025, time.March, 3), "1", "100")
	f.day(t, f.worker, generic.NewDate(2025, time.March, 10), "2", "200")
	f.day(t, f.worker, today, "", "")

	// WHEN
	dash, err := f.svc.DashboardSummary(context.Background(), f.admin, today)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 1, dash.TotalWorkers)
	assert.Equal(t, 1, dash.Today.Present)
	assert.Equal(t, 0, dash.Today.Completed)
	assert.Equal(t, 1, dash.Today.Days)
	assert.True(t, dash.Today.Earnings.IsZero())

	assert.Equal(t, 2, dash.ThisWeek.Days)
	assert.True(t, dec("200").Equal(dash.ThisWeek.Earnings))

	assert.Equal(t, 3, dash.ThisMonth.Days)
	assert.True(t, dec("300").Equal(dash.ThisMonth.Earnings))
	assert.True(t, dec("3").Equal(dash.ThisMonth.Hours))
}
