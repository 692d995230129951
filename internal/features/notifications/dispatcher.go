package notifications

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/logger"

	"go.uber.org/zap"
)

// DispatcherConfig holds the retry policy of a Dispatcher.
type DispatcherConfig struct {
	// From is the sender placed on every message.
	From string
	// MaxAttempts is the number of sends tried per delivery. Values below 1 mean 1.
	MaxAttempts int
	// Backoff is the wait before the second attempt; it doubles after each failure.
	Backoff time.Duration
}

// Dispatcher renders jobs and sends them through a transport with bounded retries.
type Dispatcher struct {
	registry  *Registry
	transport Transport
	cfg       DispatcherConfig
	log       *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(registry *Registry, transport Transport, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Dispatcher{
		registry:  registry,
		transport: transport,
		cfg:       cfg,
		log:       logger.Named("notifications").With(zap.String("transport", transport.Name())),
		sleep:     sleepContext,
	}
}

// Validate checks that a job can be rendered and addressed.
func (d *Dispatcher) Validate(job Job) error {
	if !d.registry.Has(job.Template) {
		return apperror.UnknownTemplate(job.Template)
	}
	if job.To.Email == "" {
		return apperror.Validation("to", "recipient email is required")
	}
	return nil
}

// Deliver renders the job and sends it, retrying with exponential backoff.
// It never panics and never returns an error; the outcome is in the Result.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) Result {
	res := Result{JobID: job.ID, Template: job.Template}

	subject, body, err := d.registry.Render(job.Template, job.Data)
	if err != nil {
		res.Err = err
		return res
	}
	msg := Message{
		ID:       job.ID,
		Template: job.Template,
		From:     d.cfg.From,
		To:       job.To.Email,
		ToName:   job.To.Name,
		Subject:  subject,
		Body:     body,
	}

	wait := d.cfg.Backoff
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		if res.Err = d.send(ctx, msg); res.Err == nil {
			res.Delivered = true
			return res
		}

		d.log.Warn("notification send failed",
			zap.String("job_id", job.ID),
			zap.String("template", job.Template),
			zap.Int("attempt", attempt),
			zap.Error(res.Err),
		)

		if attempt == d.cfg.MaxAttempts {
			break
		}
		if err := d.sleep(ctx, wait); err != nil {
			res.Err = err
			return res
		}
		wait *= 2
	}
	return res
}

// send calls the transport and turns a panic into an error.
func (d *Dispatcher) send(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifications: transport %s panicked: %v", d.transport.Name(), r)
		}
	}()
	return d.transport.Send(ctx, msg)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
