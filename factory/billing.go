/*
Package factory builds the deployment's billing setup from configuration.

PURPOSE:
  Two billing schemes exist and cannot run side by side:
    - hourly_rate accounts, usually billed in 30-minute blocks
    - daily_wage + standard_hours accounts, billed continuously
  The factory turns configuration (env vars or a JSON document) into one
  Billing value: the account variant every account must carry plus the
  AccrualPolicy that prices a completed day.

JSON SCHEMA:
  {
    "variant": "daily_wage",
    "accrual_policy": "continuous",
    "default_standard_hours": 8,
    "default_hourly_rate": 15
  }

USAGE:
  billing, err := factory.NewBilling("daily_wage", "continuous")
  ledger := attendance.NewLedger(store, billing.Policy)

  // Reject accounts that do not match the deployment
  if err := billing.CheckAccount(params); err != nil { ... }

SEE ALSO:
  - attendance/accrual.go: ContinuousPolicy, BlockPolicy
  - generic/types.go: BillingParams
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// BillingJSON is the JSON representation of a deployment's billing setup.
type BillingJSON struct {
	Variant              string   `json:"variant"`
	AccrualPolicy        string   `json:"accrual_policy"`
	DefaultHourlyRate    *float64 `json:"default_hourly_rate,omitempty"`
	DefaultStandardHours *float64 `json:"default_standard_hours,omitempty"`
}

// =============================================================================
// BILLING
// =============================================================================

// Billing is the single billing scheme of a deployment.
type Billing struct {
	Variant generic.BillingVariant
	Policy  generic.AccrualPolicy

	// Defaults applied when a new account omits them.
	DefaultHourlyRate    decimal.Decimal
	DefaultStandardHours decimal.Decimal
}

var (
	defaultHourlyRate    = decimal.NewFromInt(15)
	defaultStandardHours = decimal.NewFromInt(8)
)

// NewBilling validates the variant and policy names. An empty policy name
// picks the variant's usual policy: block for hourly_rate, continuous for
// daily_wage.
func NewBilling(variant, policy string) (*Billing, error) {
	v := generic.BillingVariant(variant)
	if !v.Valid() {
		return nil, fmt.Errorf("unknown billing variant %q (want %q or %q)", variant, generic.BillingHourlyRate, generic.BillingDailyWage)
	}
	if policy == "" {
		policy = string(generic.PolicyContinuous)
		if v == generic.BillingHourlyRate {
			policy = string(generic.PolicyBlock)
		}
	}
	p, err := NewAccrualPolicy(policy)
	if err != nil {
		return nil, err
	}
	return &Billing{
		Variant:              v,
		Policy:               p,
		DefaultHourlyRate:    defaultHourlyRate,
		DefaultStandardHours: defaultStandardHours,
	}, nil
}

// NewAccrualPolicy maps a policy name to its implementation.
func NewAccrualPolicy(name string) (generic.AccrualPolicy, error) {
	switch generic.PolicyName(name) {
	case generic.PolicyContinuous:
		return attendance.ContinuousPolicy{}, nil
	case generic.PolicyBlock:
		return attendance.BlockPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown accrual policy %q (want %q or %q)", name, generic.PolicyContinuous, generic.PolicyBlock)
	}
}

// ParseBillingConfig reads a BillingJSON document.
func ParseBillingConfig(jsonStr string) (*Billing, error) {
	var cfg BillingJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, fmt.Errorf("invalid billing JSON: %w", err)
	}
	b, err := NewBilling(cfg.Variant, cfg.AccrualPolicy)
	if err != nil {
		return nil, err
	}
	if cfg.DefaultHourlyRate != nil {
		b.DefaultHourlyRate = decimal.NewFromFloat(*cfg.DefaultHourlyRate)
	}
	if cfg.DefaultStandardHours != nil {
		b.DefaultStandardHours = decimal.NewFromFloat(*cfg.DefaultStandardHours)
	}
	if !b.DefaultStandardHours.IsPositive() {
		return nil, fmt.Errorf("default_standard_hours must be greater than zero")
	}
	return b, nil
}

// ParamsFor builds billing parameters in the deployment's variant, filling
// omitted values from the defaults.
func (b *Billing) ParamsFor(hourlyRate, dailyWage, standardHours *decimal.Decimal) generic.BillingParams {
	switch b.Variant {
	case generic.BillingDailyWage:
		p := generic.DailyWageBilling(decimal.Zero, b.DefaultStandardHours)
		if dailyWage != nil {
			p.DailyWage = *dailyWage
		}
		if standardHours != nil {
			p.StandardHours = *standardHours
		}
		return p
	default:
		p := generic.HourlyBilling(b.DefaultHourlyRate)
		if hourlyRate != nil {
			p.HourlyRate = *hourlyRate
		}
		return p
	}
}

// CheckAccount rejects parameters that do not belong to this deployment.
func (b *Billing) CheckAccount(p generic.BillingParams) error {
	if p.Variant != b.Variant {
		return &generic.ValidationError{
			Field:   "billing",
			Message: fmt.Sprintf("deployment uses %s billing, got %s", b.Variant, p.Variant),
		}
	}
	return p.Validate()
}
