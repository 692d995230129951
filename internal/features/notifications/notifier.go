package notifications

import (
	"context"

	"freight-booking/internal/core/logger"
	"freight-booking/internal/features/lifecycle"

	"go.uber.org/zap"
)

// Enqueuer accepts jobs without blocking. *Queue implements it.
type Enqueuer interface {
	Enqueue(job Job) (string, error)
}

type eventKey struct {
	entity string
	kind   lifecycle.EventKind
}

var eventTemplates = map[eventKey]string{
	{"booking", lifecycle.EventCreated}:          TemplateBookingCreated,
	{"booking", lifecycle.EventStatusChanged}:    TemplateBookingStatusChanged,
	{"booking", lifecycle.EventCancelled}:        TemplateBookingCancelled,
	{"booking", lifecycle.EventRestored}:         TemplateBookingRestored,
	{"booking", lifecycle.EventTrackingAssigned}: TemplateTrackingAssigned,
	{"booking", lifecycle.EventInvoiceIssued}:    TemplateInvoiceIssued,

	{"shipment", lifecycle.EventStatusChanged}:    TemplateShipmentStatusChanged,
	{"shipment", lifecycle.EventCancelled}:        TemplateShipmentStatusChanged,
	{"shipment", lifecycle.EventTrackingAssigned}: TemplateTrackingAssigned,
}

// TemplateFor returns the template key for a lifecycle event.
func TemplateFor(ev lifecycle.Event) (string, bool) {
	key, ok := eventTemplates[eventKey{ev.Entity, ev.Kind}]
	return key, ok
}

// LifecycleNotifier turns lifecycle events into queued notification jobs.
type LifecycleNotifier struct {
	queue Enqueuer
	log   *zap.Logger
}

// NewLifecycleNotifier creates a notifier feeding q.
func NewLifecycleNotifier(q Enqueuer) *LifecycleNotifier {
	return &LifecycleNotifier{queue: q, log: logger.Named("notifications")}
}

// Notify enqueues the job for ev. Events without a template or recipient are skipped.
// Enqueue failures are logged and never reach the caller.
func (n *LifecycleNotifier) Notify(_ context.Context, ev lifecycle.Event) {
	template, ok := TemplateFor(ev)
	if !ok {
		return
	}
	log := n.log.With(
		zap.String("entity", ev.Entity),
		zap.String("entity_id", ev.EntityID),
		zap.String("event", string(ev.Kind)),
	)
	if ev.Recipient.Email == "" {
		log.Debug("notification skipped: no recipient email")
		return
	}

	data := map[string]any{
		"entity":          ev.Entity,
		"number":          ev.Number,
		"tracking_number": ev.TrackingNumber,
		"from":            ev.From,
		"to":              ev.To,
		"reason":          ev.Reason,
		"name":            ev.Recipient.Name,
	}
	for k, v := range ev.Data {
		data[k] = v
	}

	_, err := n.queue.Enqueue(Job{
		Template: template,
		To:       Recipient{Name: ev.Recipient.Name, Email: ev.Recipient.Email},
		Data:     data,
	})
	if err != nil {
		log.Warn("notification not enqueued", zap.String("template", template), zap.Error(err))
	}
}
