package lifecycle

import "context"

// EventKind names a lifecycle occurrence worth notifying about.
type EventKind string

const (
	EventCreated          EventKind = "created"
	EventStatusChanged    EventKind = "status_changed"
	EventCancelled        EventKind = "cancelled"
	EventTrackingAssigned EventKind = "tracking_assigned"
	EventDeleted          EventKind = "deleted"
	EventRestored         EventKind = "restored"
	EventInvoiceIssued    EventKind = "invoice_issued"
)

// Event describes a persisted change.
type Event struct {
	Kind           EventKind      `json:"kind"`
	Entity         string         `json:"entity"`
	EntityID       string         `json:"entity_id"`
	Number         string         `json:"number"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	From           string         `json:"from,omitempty"`
	To             string         `json:"to,omitempty"`
	ActorID        string         `json:"actor_id"`
	Reason         string         `json:"reason,omitempty"`
	Recipient      Contact        `json:"recipient"`
	Data           map[string]any `json:"data,omitempty"`
}

// Notifier receives events after they are persisted. Implementations must not
// block and must not fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) { f(ctx, ev) }

// NopNotifier discards events.
var NopNotifier Notifier = NotifierFunc(func(context.Context, Event) {})
