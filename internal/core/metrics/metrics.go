package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_status_transitions_total",
		Help: "Total number of persisted status changes, by entity and target status.",
	},
		[]string{"entity", "status"},
	)

	EntitiesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_entities_created_total",
		Help: "Total number of bookings and shipments created.",
	},
		[]string{"entity"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_operation_errors_total",
		Help: "Total number of failed operations, by operation and error kind.",
	},
		[]string{"operation", "kind"},
	)

	IdentifierCollisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_identifier_collisions_total",
		Help: "Total number of generated identifiers that collided and were regenerated.",
	},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_notifications_total",
		Help: "Total number of notification jobs processed, by template and outcome.",
	},
		[]string{"template", "outcome"},
	)

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freight_notification_queue_depth",
		Help: "Current number of jobs waiting in the notification queue.",
	})

	QuotesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freight_quotes_issued_total",
		Help: "Total number of quotes computed and cached.",
	})

	OutboundRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freight_outbound_http_requests_total",
		Help: "Total number of outbound HTTP requests, by host and status class.",
	},
		[]string{"host", "class"},
	)
)

// Notification outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeRequeued  = "requeued"
	OutcomeDropped   = "dropped"
	OutcomeRejected  = "rejected"
)
