/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these with context; the HTTP layer maps them to
  status codes with errors.Is.

ERROR CATEGORIES:
  1. Input errors      - ErrValidation, ErrInvalidPeriod, ErrInvalidInterval
  2. Identity errors   - ErrUnauthenticated, ErrInvalidCredentials, ErrForbidden
  3. Scope errors      - ErrNotFound, ErrWorkerNotOwned (masked as not found)
  4. Ledger errors     - ErrDuplicateEntry, ErrDuplicateExit, ErrNoEntryYet
  5. Store errors      - ErrConflict

CROSS-TENANT ACCESS:
  An administrator asking for another administrator's worker gets
  ErrNotFound, never ErrForbidden, so the existence of the worker is not
  leaked. ErrForbidden is reserved for role mismatches.

SEE ALSO:
  - ledger.go: state transitions returning ledger errors
  - api/errors.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated is returned when no caller identity is established.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when the caller's role cannot perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned for missing records and for cross-tenant access.
	ErrNotFound = errors.New("not found")

	// ErrWorkerNotOwned is returned when an administrator targets a worker
	// managed by someone else. It is a NotFound.
	ErrWorkerNotOwned = fmt.Errorf("worker not owned by caller: %w", ErrNotFound)

	// ErrDuplicateEntry is returned when entry is marked twice on one day.
	ErrDuplicateEntry = errors.New("entry already marked for today")

	// ErrDuplicateExit is returned when exit is marked twice on one day.
	ErrDuplicateExit = errors.New("exit already marked for today")

	// ErrNoEntryYet is returned when exit is marked before entry.
	ErrNoEntryYet = errors.New("please mark entry first")

	// ErrConflict is returned when a unique account field is already taken.
	ErrConflict = errors.New("already exists")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidInterval is returned when exit precedes entry.
	ErrInvalidInterval = errors.New("invalid interval: exit before entry")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// LedgerStateError reports a rejected transition for one (account, date).
type LedgerStateError struct {
	AccountID AccountID
	Date      Date
	State     LedgerState
	Err       error // ErrDuplicateEntry, ErrDuplicateExit or ErrNoEntryYet
}

func (e *LedgerStateError) Error() string {
	return fmt.Sprintf("%v (account %d, %s, state %s)", e.Err, e.AccountID, e.Date, e.State)
}

func (e *LedgerStateError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsLedgerError returns true for rejected state transitions.
func IsLedgerError(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrDuplicateExit) ||
		errors.Is(err, ErrNoEntryYet)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrConflict) ||
		IsLedgerError(err)
}

// IsNotFound returns true if the error indicates a missing or out-of-scope resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
