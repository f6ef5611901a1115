package api

import (
	"net/http"

	"github.com/warp/attendance-engine/events"
	"github.com/warp/attendance-engine/generic"
)

// MarkEntry starts the caller's day.
// POST /api/attendance/mark-entry
func (h *Handler) MarkEntry(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	rec, err := h.Ledger.MarkEntry(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(r, events.New(events.EntryMarked, rec.AccountID, caller.AccountID, map[string]any{
		"date": rec.Date.String(),
	}))
	writeJSON(w, http.StatusOK, MarkResponse{Message: "Entry marked successfully", Record: toRecordDTO(*rec)})
}

// MarkExit completes the caller's day and computes earnings.
// POST /api/attendance/mark-exit
func (h *Handler) MarkExit(w http.ResponseWriter, r *http.Request) {
	caller := CallerFrom(r.Context())
	rec, err := h.Ledger.MarkExit(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(r, events.New(events.ExitMarked, rec.AccountID, caller.AccountID, map[string]any{
		"date":    rec.Date.String(),
		"minutes": rec.Minutes,
		"hours":   rec.Hours.String(),
		"earning": rec.Earning.String(),
	}))
	writeJSON(w, http.StatusOK, MarkResponse{Message: "Exit marked successfully", Record: toRecordDTO(*rec)})
}

// Today returns today's record, or a zero placeholder.
// GET /api/attendance/today
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Ledger.TodayRecord(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(*rec))
}

// History pages through the caller's records, newest first. With
// start_date or end_date it returns every record in that range instead.
// GET /api/attendance/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := CallerFrom(ctx)

	q := r.URL.Query()
	if q.Has("start_date") || q.Has("end_date") {
		dr, err := queryRange(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		records, err := h.Ledger.HistoryInRange(ctx, caller, dr)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if records == nil {
			records = []generic.AttendanceRecord{}
		}
		writeJSON(w, http.StatusOK, HistoryResponse{
			Records:     toRecordDTOs(records),
			Total:       len(records),
			Pages:       1,
			CurrentPage: 1,
			PerPage:     len(records),
		})
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hist, err := h.Ledger.History(ctx, caller, page, perPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryResponse(hist))
}
