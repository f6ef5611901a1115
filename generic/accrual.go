package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCRUAL POLICY - How worked time turns into money
// =============================================================================

// AccrualPolicy converts one entry/exit pair into a duration and an earning.
// Implementations are pure: same inputs, same Accrual, no side effects.
//
// A deployment runs exactly one policy (see factory.NewBilling).
type AccrualPolicy interface {
	// Name identifies the policy in configuration and API output.
	Name() PolicyName

	// Accrue computes the Accrual for [entry, exit]. exit before entry
	// returns ErrInvalidInterval.
	Accrue(entry, exit time.Time, billing BillingParams) (Accrual, error)
}

type PolicyName string

const (
	PolicyContinuous PolicyName = "continuous" // hours × hourly rate
	PolicyBlock      PolicyName = "block"      // complete 30-minute blocks × half rate
)

// Accrual is the outcome of one completed day.
type Accrual struct {
	Minutes int64           // whole minutes worked, truncated
	Blocks  int64           // complete 30-minute blocks (block policy only)
	Hours   decimal.Decimal // rounded to 2 places
	Earning decimal.Decimal // rounded to 2 places, never negative
}

// MoneyPlaces is the number of decimal places kept for hours and money.
// Rounding is half-to-even everywhere (decimal.RoundBank).
const MoneyPlaces int32 = 2

func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.RoundBank(MoneyPlaces) }
