/*
ledger.go - Per-day attendance state machine

PURPOSE:
  One ledger exists per (account, calendar date). It has three states and
  two events. This file holds the pure transition table; attendance/ledger.go
  wires it to the store and the accrual policy.

STATES:
  NoRecord    -> no row for the day
  EntryMarked -> row with entry_time, no exit_time
  Completed   -> row with entry_time and exit_time

TRANSITIONS:
  NoRecord    --entry--> EntryMarked
  EntryMarked --exit---> Completed

  Everything else is rejected:
  EntryMarked|Completed --entry--> ErrDuplicateEntry
  NoRecord              --exit---> ErrNoEntryYet
  Completed             --exit---> ErrDuplicateExit

INVARIANTS:
  1. Completed is terminal. A completed day is never reopened or edited.
  2. Entry and exit are each set exactly once per day.

SEE ALSO:
  - attendance/ledger.go: transactional implementation
  - store/sqlite/sqlite.go: unique (account_id, date) index backing invariant 2
*/
package generic

type LedgerState string

const (
	StateNoRecord    LedgerState = "no_record"
	StateEntryMarked LedgerState = "entry_marked"
	StateCompleted   LedgerState = "completed"
)

type LedgerEvent string

const (
	EventEntry LedgerEvent = "entry"
	EventExit  LedgerEvent = "exit"
)

// Transition returns the next state or the ledger error rejecting the event.
func Transition(state LedgerState, event LedgerEvent) (LedgerState, error) {
	switch event {
	case EventEntry:
		if state == StateNoRecord {
			return StateEntryMarked, nil
		}
		return state, ErrDuplicateEntry
	case EventExit:
		switch state {
		case StateEntryMarked:
			return StateCompleted, nil
		case StateCompleted:
			return state, ErrDuplicateExit
		default:
			return state, ErrNoEntryYet
		}
	}
	return state, &ValidationError{Field: "event", Message: "unknown ledger event " + string(event)}
}
