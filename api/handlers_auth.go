package api

import (
	"net/http"
	"time"

	"github.com/warp/attendance-engine/account"
)

// Register creates an account.
// POST /api/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Log.WithField("account_id", acct.ID).WithField("role", acct.Role).Info("account registered")
	writeJSON(w, http.StatusCreated, toAccountDTO(*acct))
}

// Login authenticates by username, email or phone.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acct, err := h.Accounts.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.Sessions.Start(w, *acct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "Login successful",
		User:        toAccountDTO(*acct),
		AccessToken: tok.Token,
		ExpiresAt:   tok.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout ends the caller's session.
// POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.End(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Profile returns the caller's account.
// GET /api/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Accounts.Profile(r.Context(), CallerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*acct))
}
