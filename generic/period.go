package generic

// =============================================================================
// PERIOD - Inclusive aggregation range
// =============================================================================

// Period is an inclusive [Start, End] range of calendar days used for summing
// hours, earnings and payments.
//
// Examples:
//   - Week to date: Monday .. today
//   - Month to date: 1st .. today
//   - Report week: any start/end picked by an administrator
type Period struct {
	Start Date
	End   Date
}

func NewPeriod(start, end Date) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &ValidationError{Field: "period", Message: "start and end dates are required"}
	}
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// SingleDay is the period covering only d.
func SingleDay(d Date) Period { return Period{Start: d, End: d} }

// WeekToDate runs from the Monday of today's week through today.
func WeekToDate(today Date) Period { return Period{Start: today.StartOfWeek(), End: today} }

// MonthToDate runs from the first of today's month through today.
func MonthToDate(today Date) Period { return Period{Start: today.StartOfMonth(), End: today} }

// =============================================================================
// OPEN RANGE - Optional bounds for listing queries
// =============================================================================

// DateRange is a query filter where either bound may be absent.
type DateRange struct {
	From *Date
	To   *Date
}

func (r DateRange) Contains(d Date) bool {
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

func (r DateRange) Validate() error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return ErrInvalidPeriod
	}
	return nil
}

// RangeOf converts a closed period into a DateRange.
func RangeOf(p Period) DateRange {
	start, end := p.Start, p.End
	return DateRange{From: &start, To: &end}
}
