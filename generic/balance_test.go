package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func completed(t *testing.T, day generic.Date, hours, earning string) generic.AttendanceRecord {
	t.Helper()
	entry := day.Time().Add(8 * time.Hour)
	exit := entry.Add(time.Hour)
	return generic.AttendanceRecord{
		Date:      day,
		EntryTime: &entry,
		ExitTime:  &exit,
		Hours:     dec(hours),
		Earning:   dec(earning),
	}
}

func open(day generic.Date) generic.AttendanceRecord {
	entry := day.Time().Add(8 * time.Hour)
	return generic.AttendanceRecord{Date: day, EntryTime: &entry, Hours: decimal.Zero, Earning: decimal.Zero}
}

// =============================================================================
// TOTALS TESTS
// =============================================================================

func TestSumRecords_OnlyPeriodAndOpenDaysCountAsDays(t *testing.T) {
	// GIVEN: two completed days in the week, one open day, one day outside
	mon := generic.NewDate(2025, time.March, 10)
	records := []generic.AttendanceRecord{
		completed(t, mon, "8.00", "800.00"),
		completed(t, mon.AddDays(1), "4.50", "450.00"),
		open(mon.AddDays(2)),
		completed(t, mon.AddDays(-1), "8.00", "800.00"),
	}

	// WHEN: summing Monday..Sunday
	totals := generic.SumRecords(records, generic.Period{Start: mon, End: mon.AddDays(6)})

	// THEN: the open day counts as a day with zero hours
	assert.Equal(t, 3, totals.Days)
	assert.True(t, dec("12.50").Equal(totals.Hours), "hours = %s", totals.Hours)
	assert.True(t, dec("1250.00").Equal(totals.Earnings), "earnings = %s", totals.Earnings)
}

func TestSumAll_IgnoresDates(t *testing.T) {
	mon := generic.NewDate(2025, time.March, 10)
	totals := generic.SumAll([]generic.AttendanceRecord{
		completed(t, mon, "1.00", "10.00"),
		completed(t, mon.AddDays(-40), "2.00", "20.00"),
	})
	assert.Equal(t, 2, totals.Days)
	assert.True(t, dec("30.00").Equal(totals.Earnings))
}

func TestTotals_Add(t *testing.T) {
	a := generic.Totals{Hours: dec("1.5"), Earnings: dec("10"), Days: 1}
	b := generic.Totals{Hours: dec("2.5"), Earnings: dec("5"), Days: 2}
	sum := a.Add(b)
	assert.True(t, dec("4").Equal(sum.Hours))
	assert.True(t, dec("15").Equal(sum.Earnings))
	assert.Equal(t, 3, sum.Days)
}

func TestCountPresence(t *testing.T) {
	day := generic.NewDate(2025, time.March, 10)
	p := generic.CountPresence([]generic.AttendanceRecord{
		completed(t, day, "8", "800"),
		open(day),
		open(day.AddDays(-1)),
	}, day)
	assert.Equal(t, generic.Presence{Present: 2, Completed: 1}, p)
}

// =============================================================================
// PAYMENT TESTS
// =============================================================================

func TestSignedAmount_DeductionsAndAdvancesSubtract(t *testing.T) {
	for typ, want := range map[generic.PaymentType]string{
		generic.PaymentBonus:     "25",
		generic.PaymentOvertime:  "25",
		generic.PaymentDeduction: "-25",
		generic.PaymentAdvance:   "-25",
	} {
		p := generic.ExtraPayment{Amount: dec("25"), Type: typ}
		assert.True(t, dec(want).Equal(p.SignedAmount()), "%s: got %s", typ, p.SignedAmount())
	}
	assert.False(t, generic.PaymentType("tip").Valid())
}

func TestNewWeeklyReport_FinalAmount(t *testing.T) {
	// GIVEN: 400 + 350 earned, a 150 bonus and a 50 deduction in the week,
	//        plus a bonus dated the following Monday
	mon := generic.NewDate(2025, time.March, 10)
	week := generic.Period{Start: mon, End: mon.AddDays(6)}
	records := []generic.AttendanceRecord{
		completed(t, mon, "4.00", "400.00"),
		completed(t, mon.AddDays(1), "3.50", "350.00"),
	}
	payments := []generic.ExtraPayment{
		{Amount: dec("150"), Type: generic.PaymentBonus, Date: mon.AddDays(2)},
		{Amount: dec("50"), Type: generic.PaymentDeduction, Date: mon.AddDays(3)},
		{Amount: dec("999"), Type: generic.PaymentBonus, Date: mon.AddDays(7)},
	}

	// WHEN: the report is built
	rep := generic.NewWeeklyReport(7, 1, week, records, payments)

	// THEN: final = earnings + signed extras in the week
	assert.True(t, dec("7.50").Equal(rep.TotalHours))
	assert.True(t, dec("750.00").Equal(rep.TotalEarnings))
	assert.True(t, dec("100").Equal(rep.ExtraPayments))
	assert.True(t, dec("850.00").Equal(rep.FinalAmount))
	assert.Equal(t, generic.AccountID(7), rep.AccountID)
	assert.Equal(t, generic.AccountID(1), rep.GeneratedBy)
}

// =============================================================================
// DATE & PERIOD TESTS
// =============================================================================

func TestDate_StartOfWeekIsMonday(t *testing.T) {
	sunday := generic.NewDate(2025, time.March, 16)
	assert.Equal(t, "2025-03-10", sunday.StartOfWeek().String())
	monday := generic.NewDate(2025, time.March, 10)
	assert.Equal(t, "2025-03-10", monday.StartOfWeek().String())
	assert.Equal(t, "2025-03-01", sunday.StartOfMonth().String())
}

func TestDateIn_UsesLocation(t *testing.T) {
	// 23:30 UTC is already the next day in Tokyo.
	instant := mustTime(t, "2025-03-10T23:30:00Z")
	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2025-03-10", generic.DateIn(instant, time.UTC).String())
	assert.Equal(t, "2025-03-11", generic.DateIn(instant, tokyo).String())
}

func TestDate_JSON(t *testing.T) {
	var body struct {
		Start generic.Date `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-03-10"}`), &body))
	assert.Equal(t, "2025-03-10", body.Start.String())

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2025-03-10"}`, string(out))

	err = json.Unmarshal([]byte(`{"start":"10/03/2025"}`), &body)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestPeriod_Validate(t *testing.T) {
	mon := generic.NewDate(2025, time.March, 10)

	_, err := generic.NewPeriod(mon, mon.AddDays(-1))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)

	_, err = generic.NewPeriod(generic.Date{}, mon)
	assert.ErrorIs(t, err, generic.ErrValidation)

	p, err := generic.NewPeriod(mon, mon)
	require.NoError(t, err)
	assert.True(t, p.Contains(mon))
	assert.False(t, p.Contains(mon.AddDays(1)))
}

func TestDateRange_OpenBounds(t *testing.T) {
	mon := generic.NewDate(2025, time.March, 10)
	from := mon
	r := generic.DateRange{From: &from}
	assert.True(t, r.Contains(mon.AddDays(300)))
	assert.False(t, r.Contains(mon.AddDays(-1)))
	assert.True(t, generic.DateRange{}.Contains(mon))

	to := mon.AddDays(-1)
	assert.ErrorIs(t, generic.DateRange{From: &from, To: &to}.Validate(), generic.ErrInvalidPeriod)
}
