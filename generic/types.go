/*
Package generic provides the core types of the attendance and payroll engine.

PURPOSE:
  This package holds the domain-neutral building blocks shared by every other
  package: accounts and their billing parameters, attendance records, extra
  payments, weekly report snapshots, calendar dates and periods, the ledger
  state machine and the storage interfaces. No persistence, HTTP or policy
  selection lives here.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: an authenticated identity, worker or administrator
  - BillingParams: the rate inputs that turn worked time into money
  - AttendanceRecord: one row per (account, calendar date)
  - ExtraPayment: an administrator-attributed adjustment
  - Caller: the request-scoped identity threaded through every operation

DESIGN PRINCIPLES:
  1. Precision: money and hours use decimal.Decimal, never float64
  2. Type Safety: AccountID and Role are distinct types
  3. Explicit identity: operations receive a *Caller, there is no global session

SEE ALSO:
  - accrual.go: AccrualPolicy interface
  - ledger.go: per-day state machine
  - balance.go: totals over records and payments
  - store.go: persistence interfaces
*/
package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS & ROLES
// =============================================================================

type AccountID int64

type Role string

const (
	RoleWorker        Role = "worker"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool { return r == RoleWorker || r == RoleAdministrator }

// Caller is the authenticated identity of the current request. It is built by
// the HTTP layer from a verified session or token and passed explicitly.
type Caller struct {
	AccountID AccountID
	Role      Role
}

func (c *Caller) IsAdministrator() bool { return c != nil && c.Role == RoleAdministrator }
func (c *Caller) IsWorker() bool        { return c != nil && c.Role == RoleWorker }

// =============================================================================
// BILLING PARAMETERS
// =============================================================================

// BillingVariant selects which rate fields an account carries. A deployment
// uses exactly one variant.
type BillingVariant string

const (
	BillingHourlyRate BillingVariant = "hourly_rate"
	BillingDailyWage  BillingVariant = "daily_wage"
)

func (v BillingVariant) Valid() bool { return v == BillingHourlyRate || v == BillingDailyWage }

// BillingParams holds one of two mutually exclusive rate variants.
//
// INVARIANT: StandardHours > 0 when Variant == BillingDailyWage.
type BillingParams struct {
	Variant       BillingVariant
	HourlyRate    decimal.Decimal // currency per hour
	DailyWage     decimal.Decimal // currency per day
	StandardHours decimal.Decimal // hours per day
}

func HourlyBilling(rate decimal.Decimal) BillingParams {
	return BillingParams{Variant: BillingHourlyRate, HourlyRate: rate}
}

func DailyWageBilling(wage, standardHours decimal.Decimal) BillingParams {
	return BillingParams{Variant: BillingDailyWage, DailyWage: wage, StandardHours: standardHours}
}

// Validate checks that the populated variant can produce an hourly rate.
func (b BillingParams) Validate() error {
	switch b.Variant {
	case BillingHourlyRate:
		if b.HourlyRate.IsNegative() {
			return &ValidationError{Field: "hourly_rate", Message: "must not be negative"}
		}
	case BillingDailyWage:
		if b.DailyWage.IsNegative() {
			return &ValidationError{Field: "daily_wage", Message: "must not be negative"}
		}
		if !b.StandardHours.IsPositive() {
			return &ValidationError{Field: "standard_hours", Message: "must be greater than zero"}
		}
	default:
		return &ValidationError{Field: "billing", Message: fmt.Sprintf("unknown billing variant %q", b.Variant)}
	}
	return nil
}

// EffectiveHourlyRate returns the rate used by every accrual policy.
func (b BillingParams) EffectiveHourlyRate() (decimal.Decimal, error) {
	if err := b.Validate(); err != nil {
		return decimal.Zero, err
	}
	if b.Variant == BillingDailyWage {
		return b.DailyWage.Div(b.StandardHours), nil
	}
	return b.HourlyRate, nil
}

// =============================================================================
// ACCOUNT
// =============================================================================

type Account struct {
	ID           AccountID
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Billing      BillingParams
	AdminID      *AccountID // owning administrator, workers only
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnedBy reports whether the account is a worker managed by adminID.
func (a Account) OwnedBy(adminID AccountID) bool {
	return a.Role == RoleWorker && a.AdminID != nil && *a.AdminID == adminID
}

// =============================================================================
// ATTENDANCE RECORD
// =============================================================================

type AttendanceRecord struct {
	ID        int64
	AccountID AccountID
	Date      Date
	EntryTime *time.Time
	ExitTime  *time.Time

	// Derived on exit by the deployment's accrual policy.
	Minutes int64
	Blocks  int64
	Hours   decimal.Decimal
	Earning decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// State derives the ledger state from the stored timestamps. A nil record is
// StateNoRecord.
func (r *AttendanceRecord) State() LedgerState {
	switch {
	case r == nil || r.EntryTime == nil:
		return StateNoRecord
	case r.ExitTime == nil:
		return StateEntryMarked
	default:
		return StateCompleted
	}
}

// =============================================================================
// EXTRA PAYMENT
// =============================================================================

type PaymentType string

const (
	PaymentBonus     PaymentType = "bonus"
	PaymentOvertime  PaymentType = "overtime"
	PaymentDeduction PaymentType = "deduction"
	PaymentAdvance   PaymentType = "advance"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentBonus, PaymentOvertime, PaymentDeduction, PaymentAdvance:
		return true
	}
	return false
}

// Reduces is true for payment types that lower the amount owed to the worker.
func (t PaymentType) Reduces() bool { return t == PaymentDeduction || t == PaymentAdvance }

// ExtraPayment is immutable once stored. Amount is always positive; the sign
// comes from Type.
type ExtraPayment struct {
	ID        int64
	AccountID AccountID
	Amount    decimal.Decimal
	Reason    string
	Type      PaymentType
	Date      Date
	AddedBy   AccountID
	Notes     string
	CreatedAt time.Time
}

func (p ExtraPayment) SignedAmount() decimal.Decimal {
	if p.Type.Reduces() {
		return p.Amount.Neg()
	}
	return p.Amount
}
