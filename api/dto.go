/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Money and hours are computed with decimals and rendered as JSON numbers
  with at most two fractional digits. Request amounts accept either a JSON
  number or a numeric string.

VALIDATION:
  Request bodies decode straight into the domain input types
  (account.RegisterInput, payroll.PaymentInput, ...), which carry validator
  tags. DTOs here are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID             generic.AccountID  `json:"id"`
	Username       string             `json:"username"`
	Email          string             `json:"email,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	Role           generic.Role       `json:"role"`
	BillingVariant string             `json:"billing_variant"`
	HourlyRate     *float64           `json:"hourly_rate,omitempty"`
	DailyWage      *float64           `json:"daily_wage,omitempty"`
	StandardHours  *float64           `json:"standard_hours,omitempty"`
	AdminID        *generic.AccountID `json:"admin_id,omitempty"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      string             `json:"created_at"`
}

func toAccountDTO(a generic.Account) AccountDTO {
	dto := AccountDTO{
		ID:             a.ID,
		Username:       a.Username,
		Email:          a.Email,
		Phone:          a.Phone,
		Role:           a.Role,
		BillingVariant: string(a.Billing.Variant),
		AdminID:        a.AdminID,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
	}
	switch a.Billing.Variant {
	case generic.BillingDailyWage:
		wage := a.Billing.DailyWage.InexactFloat64()
		hours := a.Billing.StandardHours.InexactFloat64()
		dto.DailyWage, dto.StandardHours = &wage, &hours
	case generic.BillingHourlyRate:
		rate := a.Billing.HourlyRate.InexactFloat64()
		dto.HourlyRate = &rate
	}
	return dto
}

func toAccountDTOs(accounts []generic.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	return dtos
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string     `json:"message"`
	User        AccountDTO `json:"user"`
	AccessToken string     `json:"access_token"`
	ExpiresAt   string     `json:"expires_at"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type RecordDTO struct {
	ID           int64             `json:"id"`
	AccountID    generic.AccountID `json:"user_id"`
	Date         generic.Date      `json:"date"`
	State        string            `json:"state"`
	EntryTime    *string           `json:"entry_time"`
	ExitTime     *string           `json:"exit_time"`
	TotalMinutes int64             `json:"total_minutes"`
	Blocks       int64             `json:"complete_blocks"`
	Hours        float64           `json:"total_hours"`
	Earning      float64           `json:"salary_earned"`
}

func toRecordDTO(r generic.AttendanceRecord) RecordDTO {
	return RecordDTO{
		ID:           r.ID,
		AccountID:    r.AccountID,
		Date:         r.Date,
		State:        string(r.State()),
		EntryTime:    timePtr(r.EntryTime),
		ExitTime:     timePtr(r.ExitTime),
		TotalMinutes: r.Minutes,
		Blocks:       r.Blocks,
		Hours:        r.Hours.InexactFloat64(),
		Earning:      r.Earning.InexactFloat64(),
	}
}

func toRecordDTOs(records []generic.AttendanceRecord) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

type MarkResponse struct {
	Message string    `json:"message"`
	Record  RecordDTO `json:"record"`
}

type HistoryResponse struct {
	Records     []RecordDTO `json:"records"`
	Total       int         `json:"total"`
	Pages       int         `json:"pages"`
	CurrentPage int         `json:"current_page"`
	PerPage     int         `json:"per_page"`
}

func toHistoryResponse(p *attendance.HistoryPage) HistoryResponse {
	return HistoryResponse{
		Records:     toRecordDTOs(p.Records),
		Total:       p.Total,
		Pages:       p.Pages,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

type TotalsDTO struct {
	TotalHours    float64 `json:"total_hours"`
	TotalEarnings float64 `json:"total_earnings"`
	TotalDays     int     `json:"total_days"`
}

func toTotalsDTO(t generic.Totals) TotalsDTO {
	return TotalsDTO{
		TotalHours:    t.Hours.InexactFloat64(),
		TotalEarnings: t.Earnings.InexactFloat64(),
		TotalDays:     t.Days,
	}
}

type WorkerAttendanceResponse struct {
	Worker  AccountDTO  `json:"worker"`
	Records []RecordDTO `json:"records"`
	Summary TotalsDTO   `json:"summary"`
}

type PaymentDTO struct {
	ID        int64               `json:"id"`
	AccountID generic.AccountID   `json:"user_id"`
	Amount    float64             `json:"amount"`
	Signed    float64             `json:"signed_amount"`
	Reason    string              `json:"reason"`
	Type      generic.PaymentType `json:"payment_type"`
	Date      generic.Date        `json:"date"`
	AddedBy   generic.AccountID   `json:"added_by"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt string              `json:"created_at"`
}

func toPaymentDTO(p generic.ExtraPayment) PaymentDTO {
	return PaymentDTO{
		ID:        p.ID,
		AccountID: p.AccountID,
		Amount:    p.Amount.InexactFloat64(),
		Signed:    p.SignedAmount().InexactFloat64(),
		Reason:    p.Reason,
		Type:      p.Type,
		Date:      p.Date,
		AddedBy:   p.AddedBy,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPaymentDTOs(payments []generic.ExtraPayment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

type WeeklyReportRequest struct {
	WeekStart generic.Date `json:"week_start"`
	WeekEnd   generic.Date `json:"week_end"`
}

type ReportDTO struct {
	ID            int64             `json:"id"`
	AccountID     generic.AccountID `json:"user_id"`
	WeekStart     generic.Date      `json:"week_start"`
	WeekEnd       generic.Date      `json:"week_end"`
	TotalHours    float64           `json:"total_hours"`
	TotalEarnings float64           `json:"total_earnings"`
	ExtraPayments float64           `json:"extra_payments"`
	FinalAmount   float64           `json:"final_amount"`
	GeneratedBy   generic.AccountID `json:"generated_by"`
	CreatedAt     string            `json:"created_at"`
}

func toReportDTO(r generic.WeeklyReport) ReportDTO {
	return ReportDTO{
		ID:            r.ID,
		AccountID:     r.AccountID,
		WeekStart:     r.Period.Start,
		WeekEnd:       r.Period.End,
		TotalHours:    r.TotalHours.InexactFloat64(),
		TotalEarnings: r.TotalEarnings.InexactFloat64(),
		ExtraPayments: r.ExtraPayments.InexactFloat64(),
		FinalAmount:   r.FinalAmount.InexactFloat64(),
		GeneratedBy:   r.GeneratedBy,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type WeeklyReportResponse struct {
	Report   ReportDTO    `json:"report"`
	Records  []RecordDTO  `json:"attendance_records"`
	Payments []PaymentDTO `json:"extra_payments"`
}

type DashboardResponse struct {
	AsOf         generic.Date `json:"as_of"`
	TotalWorkers int          `json:"total_workers"`
	Today        struct {
		Present   int     `json:"present"`
		Completed int     `json:"completed"`
		Hours     float64 `json:"total_hours"`
		Earnings  float64 `json:"total_earnings"`
	} `json:"today"`
	ThisWeek  TotalsDTO    `json:"this_week"`
	ThisMonth TotalsDTO    `json:"this_month"`
	Workers   []AccountDTO `json:"workers"`
}

func toDashboardResponse(d *payroll.Dashboard) DashboardResponse {
	var resp DashboardResponse
	resp.AsOf = d.AsOf
	resp.TotalWorkers = d.TotalWorkers
	resp.Today.Present = d.Today.Present
	resp.Today.Completed = d.Today.Completed
	resp.Today.Hours = d.Today.Hours.InexactFloat64()
	resp.Today.Earnings = d.Today.Earnings.InexactFloat64()
	resp.ThisWeek = toTotalsDTO(d.ThisWeek)
	resp.ThisMonth = toTotalsDTO(d.ThisMonth)
	resp.Workers = toAccountDTOs(d.Workers)
	return resp
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
