package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// STATE MACHINE TESTS
// =============================================================================

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name  string
		state generic.LedgerState
		event generic.LedgerEvent
		want  generic.LedgerState
		err   error
	}{
		{"entry on empty day", generic.StateNoRecord, generic.EventEntry, generic.StateEntryMarked, nil},
		{"exit after entry", generic.StateEntryMarked, generic.EventExit, generic.StateCompleted, nil},
		{"second entry", generic.StateEntryMarked, generic.EventEntry, generic.StateEntryMarked, generic.ErrDuplicateEntry},
		{"entry after completion", generic.StateCompleted, generic.EventEntry, generic.StateCompleted, generic.ErrDuplicateEntry},
		{"exit without entry", generic.StateNoRecord, generic.EventExit, generic.StateNoRecord, generic.ErrNoEntryYet},
		{"second exit", generic.StateCompleted, generic.EventExit, generic.StateCompleted, generic.ErrDuplicateExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generic.Transition(tt.state, tt.event)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_UnknownEvent(t *testing.T) {
	_, err := generic.Transition(generic.StateNoRecord, "lunch")
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestRecordState_DerivedFromTimestamps(t *testing.T) {
	// GIVEN: records at each stage of a day
	// THEN: State follows the timestamps, and a nil record has no state
	var missing *generic.AttendanceRecord
	assert.Equal(t, generic.StateNoRecord, missing.State())

	entry := mustTime(t, "2025-03-10T08:00:00Z")
	exit := mustTime(t, "2025-03-10T16:00:00Z")

	open := &generic.AttendanceRecord{EntryTime: &entry}
	assert.Equal(t, generic.StateEntryMarked, open.State())

	done := &generic.AttendanceRecord{EntryTime: &entry, ExitTime: &exit}
	assert.Equal(t, generic.StateCompleted, done.State())
}

// =============================================================================
// ERROR CLASSIFICATION TESTS
// =============================================================================

func TestErrors_Classification(t *testing.T) {
	assert.True(t, generic.IsNotFound(generic.ErrWorkerNotOwned), "cross-tenant access is a not found")
	assert.True(t, generic.IsLedgerError(&generic.LedgerStateError{Err: generic.ErrDuplicateExit}))
	assert.True(t, generic.IsClientError(&generic.ValidationError{Field: "amount", Message: "must be positive"}))
	assert.True(t, generic.IsClientError(generic.ErrConflict))
	assert.False(t, generic.IsClientError(generic.ErrNotFound))
}

func TestValidationError_Message(t *testing.T) {
	err := &generic.ValidationError{Field: "amount", Message: "must be positive"}
	assert.Equal(t, "amount: must be positive", err.Error())
	assert.Equal(t, "bad", (&generic.ValidationError{Message: "bad"}).Error())
}
