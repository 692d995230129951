package notifications

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"freight-booking/internal/core/apperror"
)

// Template keys.
const (
	TemplateBookingCreated        = "booking_created"
	TemplateBookingStatusChanged  = "booking_status_changed"
	TemplateBookingCancelled      = "booking_cancelled"
	TemplateBookingRestored       = "booking_restored"
	TemplateTrackingAssigned      = "tracking_number_assigned"
	TemplateQuoteReady            = "quote_ready"
	TemplateInvoiceIssued         = "invoice_issued"
	TemplateShipmentStatusChanged = "shipment_status_changed"
)

// TemplateSource is the raw subject and body of a template.
type TemplateSource struct {
	Subject string
	Body    string
}

// DefaultTemplates returns the built-in message templates.
func DefaultTemplates() map[string]TemplateSource {
	return map[string]TemplateSource{
		TemplateBookingCreated: {
			Subject: "Booking {{.number}} received",
			Body: "Hello {{.name}},\n\nWe received your booking {{.number}}. " +
				"Our operations team will confirm it shortly.\n",
		},
		TemplateBookingStatusChanged: {
			Subject: "Booking {{.number}} is now {{.to}}",
			Body: "Hello {{.name}},\n\nYour booking {{.number}} moved from {{.from}} to {{.to}}." +
				"{{with .tracking_number}}\nTracking number: {{.}}{{end}}\n",
		},
		TemplateBookingCancelled: {
			Subject: "Booking {{.number}} cancelled",
			Body: "Hello {{.name}},\n\nYour booking {{.number}} has been cancelled." +
				"{{with .reason}}\nReason: {{.}}{{end}}\n",
		},
		TemplateBookingRestored: {
			Subject: "Booking {{.number}} restored",
			Body:    "Hello {{.name}},\n\nYour booking {{.number}} has been restored and is {{.to}}.\n",
		},
		TemplateTrackingAssigned: {
			Subject: "Tracking number for {{.number}}",
			Body:    "Hello {{.name}},\n\nYour {{.entity}} {{.number}} can now be tracked with {{.tracking_number}}.\n",
		},
		TemplateQuoteReady: {
			Subject: "Your freight quote {{.quote_id}}",
			Body: "Hello {{.name}},\n\nYour quote {{.quote_id}} totals {{.total}} {{.currency}}." +
				"{{with .expires_at}}\nIt is valid until {{.}}.{{end}}\n",
		},
		TemplateInvoiceIssued: {
			Subject: "Invoice {{.invoice_number}} for booking {{.number}}",
			Body:    "Hello {{.name}},\n\nInvoice {{.invoice_number}} of {{.amount}} {{.currency}} was issued for booking {{.number}}.\n",
		},
		TemplateShipmentStatusChanged: {
			Subject: "Shipment {{.number}} is now {{.to}}",
			Body: "Hello {{.name}},\n\nShipment {{.number}} moved from {{.from}} to {{.to}}." +
				"{{with .tracking_number}}\nTracking number: {{.}}{{end}}\n",
		},
	}
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Registry holds parsed templates by key. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]compiled
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]compiled)}
}

// DefaultRegistry returns a registry loaded with DefaultTemplates.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for key, src := range DefaultTemplates() {
		// Built-in templates are static; a parse failure is a programming error.
		if err := r.Register(key, src); err != nil {
			panic(err)
		}
	}
	return r
}

// Register parses and stores a template, replacing any previous one with the same key.
func (r *Registry) Register(key string, src TemplateSource) error {
	subject, err := template.New(key + ".subject").Parse(src.Subject)
	if err != nil {
		return fmt.Errorf("notifications: parse %s subject: %w", key, err)
	}
	body, err := template.New(key + ".body").Parse(src.Body)
	if err != nil {
		return fmt.Errorf("notifications: parse %s body: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[key] = compiled{subject: subject, body: body}
	return nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[key]
	return ok
}

// Render executes the template for key. Unknown keys yield an UnknownTemplate error.
func (r *Registry) Render(key string, data map[string]any) (subject, body string, err error) {
	r.mu.RLock()
	tpl, ok := r.templates[key]
	r.mu.RUnlock()
	if !ok {
		return "", "", apperror.UnknownTemplate(key)
	}

	var buf bytes.Buffer
	if err := tpl.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("notifications: render %s subject: %w", key, err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("notifications: render %s body: %w", key, err)
	}
	return subject, buf.String(), nil
}
