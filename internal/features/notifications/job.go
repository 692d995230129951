package notifications

import (
	"context"
	"time"
)

// Recipient is the addressee of a notification.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Job is a notification waiting for delivery.
type Job struct {
	ID         string         `json:"id"`
	Template   string         `json:"template"`
	To         Recipient      `json:"to"`
	Data       map[string]any `json:"data"`
	Requeues   int            `json:"requeues"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// Message is a rendered notification handed to a transport.
type Message struct {
	ID       string `json:"id"`
	Template string `json:"template"`
	From     string `json:"from"`
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Result reports the outcome of one delivery run. A failed delivery is reported
// here and never returned as an error to the business operation.
type Result struct {
	JobID     string
	Template  string
	Delivered bool
	Attempts  int
	Err       error
}

// Transport performs the actual delivery of a rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}
