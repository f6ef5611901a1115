package attendance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var shiftStart = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// =============================================================================
// BLOCK POLICY TESTS
// =============================================================================

func TestBlockPolicy_OnlyCompleteBlocksEarn(t *testing.T) {
	billing := generic.HourlyBilling(dec("10"))
	tests := []struct {
		worked  time.Duration
		blocks  int64
		earning string
	}{
		{29*time.Minute + 59*time.Second, 0, "0"},
		{30 * time.Minute, 1, "5.00"},
		{59 * time.Minute, 1, "5.00"},
		{60 * time.Minute, 2, "10.00"},
		{8*time.Hour + 10*time.Minute, 16, "80.00"},
	}

	for _, tt := range tests {
		t.Run(tt.worked.String(), func(t *testing.T) {
			acc, err := attendance.BlockPolicy{}.Accrue(shiftStart, shiftStart.Add(tt.worked), billing)
			require.NoError(t, err)
			assert.Equal(t, tt.blocks, acc.Blocks)
			assert.Equal(t, int64(tt.worked/time.Minute), acc.Minutes)
			assert.True(t, dec(tt.earning).Equal(acc.Earning), "earning = %s", acc.Earning)
		})
	}
}

func TestBlockPolicy_DailyWageUsesEffectiveRate(t *testing.T) {
	// GIVEN: 800 per 8-hour day = 100/hour, so 50 per block
	billing := generic.DailyWageBilling(dec("800"), dec("8"))

	acc, err := attendance.BlockPolicy{}.Accrue(shiftStart, shiftStart.Add(90*time.Minute), billing)

	require.NoError(t, err)
	assert.Equal(t, int64(3), acc.Blocks)
	assert.True(t, dec("150").Equal(acc.Earning))
	assert.True(t, dec("1.5").Equal(acc.Hours))
}

func TestBlockPolicy_ZeroDuration(t *testing.T) {
	acc, err := attendance.BlockPolicy{}.Accrue(shiftStart, shiftStart, generic.HourlyBilling(dec("10")))
	require.NoError(t, err)
	assert.True(t, acc.Earning.IsZero())
	assert.Zero(t, acc.Blocks)
}

// =============================================================================
// CONTINUOUS POLICY TESTS
// =============================================================================

func TestContinuousPolicy_FullDayEarnsDailyWage(t *testing.T) {
	billing := generic.DailyWageBilling(dec("800"), dec("8"))

	acc, err := attendance.ContinuousPolicy{}.Accrue(shiftStart, shiftStart.Add(8*time.Hour), billing)

	require.NoError(t, err)
	assert.True(t, dec("8.00").Equal(acc.Hours))
	assert.True(t, dec("800.00").Equal(acc.Earning))
	assert.Equal(t, int64(480), acc.Minutes)
}

func TestContinuousPolicy_RoundsHalfToEven(t *testing.T) {
	billing := generic.HourlyBilling(dec("15"))

	// 2h15m = 2.25h exactly
	acc, err := attendance.ContinuousPolicy{}.Accrue(shiftStart, shiftStart.Add(135*time.Minute), billing)
	require.NoError(t, err)
	assert.True(t, dec("2.25").Equal(acc.Hours))
	assert.True(t, dec("33.75").Equal(acc.Earning))

	// 1 minute = 0.01666..h -> 0.02h -> 0.30
	acc, err = attendance.ContinuousPolicy{}.Accrue(shiftStart, shiftStart.Add(time.Minute), billing)
	require.NoError(t, err)
	assert.True(t, dec("0.02").Equal(acc.Hours))
	assert.True(t, dec("0.30").Equal(acc.Earning))
}

func TestPolicies_RejectExitBeforeEntry(t *testing.T) {
	billing := generic.HourlyBilling(dec("15"))
	for _, p := range []generic.AccrualPolicy{attendance.ContinuousPolicy{}, attendance.BlockPolicy{}} {
		_, err := p.Accrue(shiftStart, shiftStart.Add(-time.Minute), billing)
		assert.ErrorIs(t, err, generic.ErrInvalidInterval, string(p.Name()))
	}
}

func TestPolicies_RejectInvalidBilling(t *testing.T) {
	billing := generic.DailyWageBilling(dec("800"), decimal.Zero)
	_, err := attendance.ContinuousPolicy{}.Accrue(shiftStart, shiftStart.Add(time.Hour), billing)
	assert.ErrorIs(t, err, generic.ErrValidation)
}
