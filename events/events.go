/*
Package events publishes attendance domain events to a message broker.

EVENTS:
  attendance.entry_marked    a worker started the day
  attendance.exit_marked     a worker finished; carries hours and earning
  payroll.report_generated   an administrator froze a week
  payroll.payment_added      an extra payment was recorded
  account.worker_deleted     a worker and its history were removed

DELIVERY:
  Best effort. Publishing happens after the database commit and a broker
  failure is logged, never returned to the HTTP caller.
*/
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/generic"
)

type Kind string

const (
	EntryMarked     Kind = "attendance.entry_marked"
	ExitMarked      Kind = "attendance.exit_marked"
	ReportGenerated Kind = "payroll.report_generated"
	PaymentAdded    Kind = "payroll.payment_added"
	WorkerDeleted   Kind = "account.worker_deleted"
)

// Event is the JSON envelope put on the wire.
type Event struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	AccountID  generic.AccountID `json:"account_id"`
	ActorID    generic.AccountID `json:"actor_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]any    `json:"data,omitempty"`
}

func New(kind Kind, account, actor generic.AccountID, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		AccountID:  account,
		ActorID:    actor,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	Log logrus.FieldLogger
}

func (p LogPublisher) Publish(_ context.Context, e Event) error {
	p.Log.WithFields(logrus.Fields{
		"event_id":   e.ID,
		"kind":       e.Kind,
		"account_id": e.AccountID,
		"actor_id":   e.ActorID,
	}).Debug("event")
	return nil
}

func (LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory for tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Kinds lists recorded event kinds in publish order.
func (r *Recorder) Kinds() []Kind {
	out := make([]Kind, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}
