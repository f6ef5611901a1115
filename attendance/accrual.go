/*
accrual.go - Accrual policies for clocked attendance

PURPOSE:
  Implements generic.AccrualPolicy for the two billing rules found in the
  field. A deployment picks one (factory.NewBilling); they are never mixed.

POLICIES:
  ContinuousPolicy:
    - hours   = (exit - entry) / 3600s, rounded half-to-even to 2 places
    - earning = hours × effective hourly rate, rounded half-to-even to 2 places
    - 8h00 at daily_wage=800, standard_hours=8 earns exactly 800.00

  BlockPolicy:
    - minutes = floor((exit - entry) / 60s)
    - blocks  = minutes / 30 (integer division)
    - earning = blocks × (effective hourly rate / 2), rounded to 2 places
    - 29 min -> 0 blocks, 30 min -> 1, 59 min -> 1, 60 min -> 2

EFFECTIVE RATE:
  hourly_rate variant -> hourly_rate
  daily_wage variant  -> daily_wage / standard_hours

EXAMPLE:
  policy := attendance.ContinuousPolicy{}
  acc, err := policy.Accrue(entry, exit, generic.DailyWageBilling(dec("800"), dec("8")))
  // acc.Hours = 8.00, acc.Earning = 800.00

SEE ALSO:
  - generic/accrual.go: AccrualPolicy interface
  - factory/billing.go: policy selection from configuration
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

var (
	secondsPerHour = decimal.NewFromInt(3600)
	minutesPerHour = decimal.NewFromInt(60)
	two            = decimal.NewFromInt(2)
)

// BlockMinutes is the length of one billable block.
const BlockMinutes = 30

// =============================================================================
// CONTINUOUS POLICY
// =============================================================================

// ContinuousPolicy bills every second worked at the effective hourly rate.
type ContinuousPolicy struct{}

func (ContinuousPolicy) Name() generic.PolicyName { return generic.PolicyContinuous }

func (ContinuousPolicy) Accrue(entry, exit time.Time, billing generic.BillingParams) (generic.Accrual, error) {
	worked, err := workedDuration(entry, exit)
	if err != nil {
		return generic.Accrual{}, err
	}
	rate, err := billing.EffectiveHourlyRate()
	if err != nil {
		return generic.Accrual{}, err
	}

	// Exact seconds including the fractional part, then round once.
	seconds := decimal.New(worked.Nanoseconds(), -9)
	hours := generic.RoundMoney(seconds.Div(secondsPerHour))

	return generic.Accrual{
		Minutes: int64(worked / time.Minute),
		Hours:   hours,
		Earning: generic.RoundMoney(hours.Mul(rate)),
	}, nil
}

// =============================================================================
// BLOCK POLICY
// =============================================================================

// BlockPolicy bills complete 30-minute blocks at half the hourly rate.
// Partial blocks earn nothing.
type BlockPolicy struct{}

func (BlockPolicy) Name() generic.PolicyName { return generic.PolicyBlock }

func (BlockPolicy) Accrue(entry, exit time.Time, billing generic.BillingParams) (generic.Accrual, error) {
	worked, err := workedDuration(entry, exit)
	if err != nil {
		return generic.Accrual{}, err
	}
	rate, err := billing.EffectiveHourlyRate()
	if err != nil {
		return generic.Accrual{}, err
	}

	minutes := int64(worked / time.Minute)
	if minutes <= 0 {
		return generic.Accrual{Hours: decimal.Zero, Earning: decimal.Zero}, nil
	}
	blocks := minutes / BlockMinutes
	earning := decimal.NewFromInt(blocks).Mul(rate.Div(two))

	return generic.Accrual{
		Minutes: minutes,
		Blocks:  blocks,
		Hours:   generic.RoundMoney(decimal.NewFromInt(minutes).Div(minutesPerHour)),
		Earning: generic.RoundMoney(earning),
	}, nil
}

func workedDuration(entry, exit time.Time) (time.Duration, error) {
	if exit.Before(entry) {
		return 0, generic.ErrInvalidInterval
	}
	return exit.Sub(entry), nil
}
