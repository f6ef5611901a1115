package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/attendance-engine/generic"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// errorCase maps a sentinel to its HTTP status and taxonomy code. Order
// matters: ErrWorkerNotOwned must be checked before ErrNotFound.
type errorCase struct {
	target error
	status int
	code   string
}

var errorCases = []errorCase{
	{generic.ErrDuplicateEntry, http.StatusBadRequest, "duplicate_entry"},
	{generic.ErrDuplicateExit, http.StatusBadRequest, "duplicate_exit"},
	{generic.ErrNoEntryYet, http.StatusBadRequest, "no_entry_yet"},
	{generic.ErrConflict, http.StatusBadRequest, "conflict"},
	{generic.ErrInvalidPeriod, http.StatusBadRequest, "validation_error"},
	{generic.ErrInvalidInterval, http.StatusBadRequest, "validation_error"},
	{generic.ErrValidation, http.StatusBadRequest, "validation_error"},
	{generic.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{generic.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{generic.ErrForbidden, http.StatusForbidden, "forbidden"},
	{generic.ErrNotFound, http.StatusNotFound, "not_found"},
}

// statusFor classifies err. Unknown errors are 500.
func statusFor(err error) (int, string) {
	for _, c := range errorCases {
		if errors.Is(err, c.target) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError renders err. Client errors carry their message; internal errors
// are logged with the request id and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: publicMessage(err, status), Code: code}

	var verr *generic.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		resp.Details = verr.Field
	}
	if status == http.StatusInternalServerError {
		if log := loggerFrom(r.Context()); log != nil {
			log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("request failed")
		}
	}
	writeJSON(w, status, resp)
}

func publicMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusNotFound:
		// Never echo ids or ownership details for masked lookups.
		return "not found"
	case http.StatusUnauthorized:
		if errors.Is(err, generic.ErrInvalidCredentials) {
			return generic.ErrInvalidCredentials.Error()
		}
		return generic.ErrUnauthenticated.Error()
	}
	var lerr *generic.LedgerStateError
	if errors.As(err, &lerr) {
		return lerr.Err.Error()
	}
	var verr *generic.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return err.Error()
}

// badRequest wraps a decoding failure as a validation error.
func badRequest(field, msg string) error {
	return &generic.ValidationError{Field: field, Message: msg}
}
