package generic

import "github.com/shopspring/decimal"

// =============================================================================
// TOTALS - Sums over attendance records and payments
// =============================================================================

// Totals is the aggregate of attendance over a period.
//
// Records that have an entry but no exit yet contribute zero hours and zero
// earnings but still count as a day.
type Totals struct {
	Hours    decimal.Decimal
	Earnings decimal.Decimal
	Days     int
}

func ZeroTotals() Totals { return Totals{Hours: decimal.Zero, Earnings: decimal.Zero} }

func (t Totals) Add(o Totals) Totals {
	return Totals{Hours: t.Hours.Add(o.Hours), Earnings: t.Earnings.Add(o.Earnings), Days: t.Days + o.Days}
}

// SumRecords totals records whose date falls in the period.
func SumRecords(records []AttendanceRecord, period Period) Totals {
	totals := ZeroTotals()
	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}
		totals.Days++
		if r.State() != StateCompleted {
			continue
		}
		totals.Hours = totals.Hours.Add(r.Hours)
		totals.Earnings = totals.Earnings.Add(r.Earning)
	}
	return totals
}

// SumAll totals every record regardless of date.
func SumAll(records []AttendanceRecord) Totals {
	totals := ZeroTotals()
	for _, r := range records {
		totals.Days++
		if r.State() == StateCompleted {
			totals.Hours = totals.Hours.Add(r.Hours)
			totals.Earnings = totals.Earnings.Add(r.Earning)
		}
	}
	return totals
}

// SumPayments adds the signed amounts of payments dated within the period.
func SumPayments(payments []ExtraPayment, period Period) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if period.Contains(p.Date) {
			total = total.Add(p.SignedAmount())
		}
	}
	return total
}

// Presence counts today's records: present = entry marked, completed = exit marked.
type Presence struct {
	Present   int
	Completed int
}

func CountPresence(records []AttendanceRecord, day Date) Presence {
	var p Presence
	for _, r := range records {
		if !r.Date.Equal(day) {
			continue
		}
		if r.EntryTime != nil {
			p.Present++
		}
		if r.ExitTime != nil {
			p.Completed++
		}
	}
	return p
}
