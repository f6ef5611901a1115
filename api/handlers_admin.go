package api

import (
	"net/http"

	"github.com/warp/attendance-engine/account"
	"github.com/warp/attendance-engine/events"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// WORKER MANAGEMENT
// =============================================================================

// ListWorkers returns the caller's workers.
// GET /api/workers
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Accounts.ListWorkers(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTOs(workers))
}

// CreateWorker adds a worker owned by the caller.
// POST /api/workers
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var in account.WorkerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	worker, err := h.Accounts.CreateWorker(r.Context(), CallerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*worker))
}

// UpdateWorker changes the fields present in the body.
// PUT /api/workers/{id}
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in account.WorkerUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	worker, err := h.Accounts.UpdateWorker(r.Context(), CallerFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !worker.IsActive {
		h.Sessions.Drop(worker.ID)
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*worker))
}

// DeleteWorker removes a worker and its history.
// DELETE /api/workers/{id}
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Accounts.DeleteWorker(r.Context(), caller, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.Sessions.Drop(id)
	h.publish(r, events.New(events.WorkerDeleted, id, caller.AccountID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYROLL
// =============================================================================

// Dashboard summarises today, this week and this month.
// GET /api/admin/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Payroll.DashboardSummary(r.Context(), CallerFrom(r.Context()), h.Payroll.Today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(dash))
}

// WorkerAttendance returns a worker's records and summary.
// GET /api/admin/workers/{id}/attendance?start_date=&end_date=
func (h *Handler) WorkerAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dr, err := queryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	wa, err := h.Payroll.WorkerAttendance(r.Context(), CallerFrom(r.Context()), id, dr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WorkerAttendanceResponse{
		Worker:  toAccountDTO(wa.Worker),
		Records: toRecordDTOs(wa.Records),
		Summary: toTotalsDTO(wa.Summary),
	})
}

// AddExtraPayment records a bonus, overtime, deduction or advance.
// POST /api/admin/workers/{id}/extra-payments
func (h *Handler) AddExtraPayment(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in payroll.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Date.IsZero() {
		in.Date = h.Payroll.Today()
	}
	p, err := h.Payroll.AddExtraPayment(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(r, events.New(events.PaymentAdded, p.AccountID, caller.AccountID, map[string]any{
		"payment_type": string(p.Type),
		"amount":       p.Amount.String(),
		"date":         p.Date.String(),
	}))
	writeJSON(w, http.StatusCreated, toPaymentDTO(*p))
}

// ExtraPayments lists a worker's payments.
// GET /api/admin/workers/{id}/extra-payments
func (h *Handler) ExtraPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.Payroll.ExtraPayments(r.Context(), CallerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// GenerateWeeklyReport snapshots a worker's pay for a date range.
// POST /api/admin/workers/{id}/weekly-report
func (h *Handler) GenerateWeeklyReport(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req WeeklyReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Payroll.GenerateWeeklyReport(r.Context(), caller, id, generic.Period{Start: req.WeekStart, End: req.WeekEnd})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(r, events.New(events.ReportGenerated, id, caller.AccountID, map[string]any{
		"report_id":    res.Report.ID,
		"week_start":   res.Report.Period.Start.String(),
		"week_end":     res.Report.Period.End.String(),
		"final_amount": res.Report.FinalAmount.String(),
	}))
	writeJSON(w, http.StatusCreated, WeeklyReportResponse{
		Report:   toReportDTO(res.Report),
		Records:  toRecordDTOs(res.Records),
		Payments: toPaymentDTOs(res.Payments),
	})
}

// WeeklyReports lists a worker's stored reports.
// GET /api/admin/workers/{id}/weekly-reports
func (h *Handler) WeeklyReports(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reports, err := h.Payroll.Reports(r.Context(), CallerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dtos := make([]ReportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = toReportDTO(rep)
	}
	writeJSON(w, http.StatusOK, dtos)
}
