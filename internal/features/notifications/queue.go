package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deliverer is what the queue drains into. *Dispatcher implements it.
type Deliverer interface {
	Validate(job Job) error
	Deliver(ctx context.Context, job Job) Result
}

// QueueConfig holds the drain policy.
type QueueConfig struct {
	// SendDelay is the pause between two sends.
	SendDelay time.Duration
	// MaxRequeues is how many times a failed job is put back before it is dropped.
	MaxRequeues int
	// OnResult, if set, observes every delivery result.
	OnResult func(Result)
}

// Queue is an in-memory FIFO of notification jobs drained by a single worker.
type Queue struct {
	deliverer Deliverer
	cfg       QueueConfig
	log       *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	jobs   []Job
	signal chan struct{}
}

// NewQueue creates a queue draining into d.
func NewQueue(d Deliverer, cfg QueueConfig) *Queue {
	return &Queue{
		deliverer: d,
		cfg:       cfg,
		log:       logger.Named("notifications.queue"),
		now:       func() time.Time { return time.Now().UTC() },
		signal:    make(chan struct{}, 1),
	}
}

// Enqueue validates the job and appends it. It never blocks on delivery.
// Unknown templates are rejected here rather than dropped later.
func (q *Queue) Enqueue(job Job) (string, error) {
	if err := q.deliverer.Validate(job); err != nil {
		metrics.NotificationsTotal.WithLabelValues(job.Template, metrics.OutcomeRejected).Inc()
		return "", err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.EnqueuedAt = q.now()

	q.push(job)
	return job.ID, nil
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Run drains the queue in order until ctx is cancelled. Only one Run may be active.
func (q *Queue) Run(ctx context.Context) error {
	q.log.Info("notification worker started")
	for {
		if ctx.Err() != nil {
			q.stop()
			return nil
		}
		job, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				q.stop()
				return nil
			case <-q.signal:
				continue
			}
		}

		res := q.deliverer.Deliver(ctx, job)
		if !res.Delivered && ctx.Err() != nil {
			q.pushFront(job)
			q.stop()
			return nil
		}
		q.handle(job, res)

		if err := sleepContext(ctx, q.cfg.SendDelay); err != nil {
			q.stop()
			return nil
		}
	}
}

func (q *Queue) handle(job Job, res Result) {
	if q.cfg.OnResult != nil {
		q.cfg.OnResult(res)
	}

	log := q.log.With(
		zap.String("job_id", job.ID),
		zap.String("template", job.Template),
		zap.Int("attempts", res.Attempts),
	)

	switch {
	case res.Delivered:
		metrics.NotificationsTotal.WithLabelValues(job.Template, metrics.OutcomeDelivered).Inc()
		log.Debug("notification delivered")
	case errors.Is(res.Err, apperror.ErrUnknownTemplate):
		metrics.NotificationsTotal.WithLabelValues(job.Template, metrics.OutcomeRejected).Inc()
		log.Error("notification dropped: unknown template", zap.Error(res.Err))
	case job.Requeues < q.cfg.MaxRequeues:
		job.Requeues++
		q.push(job)
		metrics.NotificationsTotal.WithLabelValues(job.Template, metrics.OutcomeRequeued).Inc()
		log.Warn("notification requeued", zap.Int("requeues", job.Requeues), zap.Error(res.Err))
	default:
		metrics.NotificationsTotal.WithLabelValues(job.Template, metrics.OutcomeDropped).Inc()
		log.Error("notification dropped after retries",
			zap.Int("requeues", job.Requeues),
			zap.String("recipient", job.To.Email),
			zap.Error(res.Err),
		)
	}
}

func (q *Queue) push(job Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	metrics.NotificationQueueDepth.Set(float64(len(q.jobs)))
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) pushFront(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append([]Job{job}, q.jobs...)
	metrics.NotificationQueueDepth.Set(float64(len(q.jobs)))
}

func (q *Queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	job := q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	metrics.NotificationQueueDepth.Set(float64(len(q.jobs)))
	return job, true
}

func (q *Queue) stop() {
	if pending := q.Len(); pending > 0 {
		q.log.Warn("notification worker stopped with pending jobs", zap.Int("pending", pending))
		return
	}
	q.log.Info("notification worker stopped")
}
