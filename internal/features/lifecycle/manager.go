package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/metrics"
	"freight-booking/internal/core/query"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the persistence port for a managed entity type.
type Repository[E any] interface {
	// FindByID returns the entity whether or not it is in the trash.
	FindByID(ctx context.Context, id string) (E, error)
	// Insert stores a new entity. Unique violations yield apperror.ErrDuplicateIdentifier.
	Insert(ctx context.Context, entity E) error
	// Update overwrites the entity only if its stored version is expectedVersion.
	Update(ctx context.Context, entity E, expectedVersion int) error
	// Delete physically removes one entity.
	Delete(ctx context.Context, id string) error
	// Find returns one page of matching entities.
	Find(ctx context.Context, q query.Query) (query.Page[E], error)
	// Count counts matching entities.
	Count(ctx context.Context, q query.Query) (int64, error)
	// CountBy counts matching entities grouped by field.
	CountBy(ctx context.Context, field string, q query.Query) (map[string]int64, error)
	// DeleteWhere physically removes all matching entities.
	DeleteWhere(ctx context.Context, q query.Query) (int64, error)
}

// Hook runs after a transition into its status has been applied in memory and
// before the entity is persisted. A failing hook aborts the whole transition.
type Hook[E any] func(ctx context.Context, entity E, actor auth.Actor) error

// Options configures a Manager.
type Options[S Status, E any] struct {
	// Tracking issues tracking numbers on confirmation.
	Tracking TrackingIssuer
	// Notifier receives events after every persisted change.
	Notifier Notifier
	// Hooks run on entry into specific statuses.
	Hooks map[S]Hook[E]
	// OwnerField is the query field holding the owner id. Defaults to "customer_id".
	OwnerField string
	// MaxAttempts caps retries when a generated identifier collides on write.
	MaxAttempts int
	// Now overrides the clock.
	Now func() time.Time
}

// Stats summarises the live entities and the trash.
type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	InTrash  int64            `json:"in_trash"`
}

// Manager runs lifecycle operations for one entity type: it loads, checks,
// mutates, persists with a version check and then notifies.
type Manager[S Status, E Entity[S]] struct {
	engine      *Engine[S]
	repo        Repository[E]
	notifier    Notifier
	hooks       map[S]Hook[E]
	ownerField  string
	maxAttempts int
	now         func() time.Time
	log         *zap.Logger
}

// NewManager wires a manager for table over repo.
func NewManager[S Status, E Entity[S]](table *Table[S], repo Repository[E], opts Options[S, E]) *Manager[S, E] {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier
	}
	if opts.OwnerField == "" {
		opts.OwnerField = "customer_id"
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &Manager[S, E]{
		engine:      NewEngine(table, opts.Tracking, opts.Now),
		repo:        repo,
		notifier:    opts.Notifier,
		hooks:       opts.Hooks,
		ownerField:  opts.OwnerField,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		log:         logger.Named(table.Entity()),
	}
}

// Table returns the transition table.
func (m *Manager[S, E]) Table() *Table[S] { return m.engine.Table() }

// Engine returns the rule engine, for entity specific checks.
func (m *Manager[S, E]) Engine() *Engine[S] { return m.engine }

// Now returns the manager's clock reading.
func (m *Manager[S, E]) Now() time.Time { return m.now() }

func (m *Manager[S, E]) entity() string { return m.engine.Table().Entity() }

// AllowedTransitions lists the statuses e may move to next.
func (m *Manager[S, E]) AllowedTransitions(e E) []S {
	rec := e.Lifecycle()
	if rec.IsDeleted {
		return nil
	}
	return m.Table().Allowed(rec.Status)
}

// Progress returns e's 0-100 position on the canonical path.
func (m *Manager[S, E]) Progress(e E) int {
	return m.Table().Progress(e.Lifecycle().Status)
}

// Create seeds e, allocates its business number and inserts it. The number is
// re-derived when the insert hits a unique violation.
func (m *Manager[S, E]) Create(ctx context.Context, e E, actor auth.Actor, number func(ctx context.Context) (string, error)) (E, error) {
	var zero E
	rec := e.Lifecycle()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.engine.Seed(rec, actor, "")

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		n, err := number(ctx)
		if err != nil {
			return zero, m.fail("create", fmt.Errorf("lifecycle: failed to allocate %s number: %w", m.entity(), err))
		}
		rec.Number = n

		err = m.repo.Insert(ctx, e)
		if err == nil {
			metrics.EntitiesCreatedTotal.WithLabelValues(m.entity()).Inc()
			m.log.Info("created", zap.String("id", rec.ID), zap.String("number", rec.Number), zap.String("actor", actor.ID))
			m.emit(ctx, m.event(EventCreated, e, actor))
			return e, nil
		}
		if !errors.Is(err, apperror.ErrDuplicateIdentifier) {
			return zero, m.fail("create", fmt.Errorf("lifecycle: failed to insert %s: %w", m.entity(), err))
		}
		lastErr = err
		metrics.IdentifierCollisionsTotal.WithLabelValues(m.entity() + "_number").Inc()
		m.log.Debug("number collided, retrying", zap.String("number", n), zap.Int("attempt", attempt))
	}
	return zero, m.fail("create", apperror.DuplicateIdentifier("number", m.maxAttempts, lastErr))
}

// Load returns the entity without access checks.
func (m *Manager[S, E]) Load(ctx context.Context, id string) (E, error) {
	return m.repo.FindByID(ctx, id)
}

// Get returns the entity if actor may see it. Trashed entities are visible to staff only.
func (m *Manager[S, E]) Get(ctx context.Context, id string, actor auth.Actor) (E, error) {
	var zero E
	e, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return zero, m.fail("get", err)
	}
	if err := m.CanView(e, actor); err != nil {
		return zero, m.fail("get", err)
	}
	return e, nil
}

// CanView reports whether actor may read e.
func (m *Manager[S, E]) CanView(e E, actor auth.Actor) error {
	rec := e.Lifecycle()
	if actor.IsStaff() {
		return nil
	}
	if rec.IsDeleted {
		return apperror.NotFound(m.entity(), rec.ID)
	}
	if e.OwnerID() != actor.ID {
		return apperror.Unauthorized("view another customer's "+m.entity(), string(actor.Role))
	}
	return nil
}

// Transition moves the entity to req.Target.
func (m *Manager[S, E]) Transition(ctx context.Context, id string, actor auth.Actor, req TransitionRequest[S]) (E, error) {
	return m.apply(ctx, id, actor, "transition", func(ctx context.Context, e E) ([]Event, error) {
		if err := m.CanView(e, actor); err != nil {
			return nil, err
		}
		rec := e.Lifecycle()
		out, err := m.engine.Transition(ctx, rec, e.OwnerID(), actor, req)
		if err != nil {
			return nil, err
		}
		if hook, ok := m.hooks[out.To]; ok {
			if err := hook(ctx, e, actor); err != nil {
				return nil, err
			}
		}
		return m.outcomeEvents(e, actor, out, req.Description), nil
	})
}

// Cancel takes the cancel path.
func (m *Manager[S, E]) Cancel(ctx context.Context, id string, actor auth.Actor, reason string) (E, error) {
	return m.apply(ctx, id, actor, "cancel", func(ctx context.Context, e E) ([]Event, error) {
		if err := m.CanView(e, actor); err != nil {
			return nil, err
		}
		out, err := m.engine.Cancel(e.Lifecycle(), e.OwnerID(), actor, reason)
		if err != nil {
			return nil, err
		}
		return m.outcomeEvents(e, actor, out, reason), nil
	})
}

// Assign sets the responsible staff member.
func (m *Manager[S, E]) Assign(ctx context.Context, id string, actor auth.Actor, assignee string) (E, error) {
	return m.apply(ctx, id, actor, "assign", func(_ context.Context, e E) ([]Event, error) {
		return nil, m.engine.Assign(e.Lifecycle(), actor, assignee)
	})
}

// Mutate runs an entity specific change through the same load, check, persist and
// notify cycle as transitions. fn receives a live, visible entity.
func (m *Manager[S, E]) Mutate(ctx context.Context, id string, actor auth.Actor, operation string, fn func(ctx context.Context, e E) ([]Event, error)) (E, error) {
	return m.apply(ctx, id, actor, operation, func(ctx context.Context, e E) ([]Event, error) {
		if e.Lifecycle().IsDeleted {
			return nil, apperror.NotFound(m.entity(), id)
		}
		if err := m.CanView(e, actor); err != nil {
			return nil, err
		}
		return fn(ctx, e)
	})
}

// SoftDelete moves the entity to the trash.
func (m *Manager[S, E]) SoftDelete(ctx context.Context, id string, actor auth.Actor, reason string) (E, error) {
	return m.apply(ctx, id, actor, "soft_delete", func(_ context.Context, e E) ([]Event, error) {
		if err := m.engine.SoftDelete(e.Lifecycle(), e.OwnerID(), actor, reason); err != nil {
			return nil, err
		}
		ev := m.event(EventDeleted, e, actor)
		ev.Reason = reason
		return []Event{ev}, nil
	})
}

// Restore takes the entity out of the trash.
func (m *Manager[S, E]) Restore(ctx context.Context, id string, actor auth.Actor) (E, error) {
	return m.apply(ctx, id, actor, "restore", func(_ context.Context, e E) ([]Event, error) {
		if err := m.engine.Restore(e.Lifecycle(), actor); err != nil {
			return nil, err
		}
		return []Event{m.event(EventRestored, e, actor)}, nil
	})
}

// HardDelete permanently removes one entity. The audit line is written before removal.
func (m *Manager[S, E]) HardDelete(ctx context.Context, id string, actor auth.Actor, confirm bool) error {
	if err := m.engine.CheckPurge(actor, confirm); err != nil {
		return m.fail("hard_delete", err)
	}
	e, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return m.fail("hard_delete", err)
	}
	rec := e.Lifecycle()
	logger.Audit().Warn("permanently deleting "+m.entity(),
		zap.String("id", rec.ID),
		zap.String("number", rec.Number),
		zap.String("status", string(rec.Status)),
		zap.Bool("was_in_trash", rec.IsDeleted),
		zap.String("actor", actor.ID),
	)
	if err := m.repo.Delete(ctx, id); err != nil {
		return m.fail("hard_delete", fmt.Errorf("lifecycle: failed to delete %s %s: %w", m.entity(), id, err))
	}
	return nil
}

// EmptyTrash permanently removes every trashed entity and returns how many were removed.
func (m *Manager[S, E]) EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error) {
	if err := m.engine.CheckPurge(actor, confirm); err != nil {
		return 0, m.fail("empty_trash", err)
	}
	trash := query.New().WithTrash(query.OnlyDeleted)
	pending, err := m.repo.Count(ctx, trash)
	if err != nil {
		return 0, m.fail("empty_trash", fmt.Errorf("lifecycle: failed to count %s trash: %w", m.entity(), err))
	}
	logger.Audit().Warn("emptying "+m.entity()+" trash", zap.Int64("pending", pending), zap.String("actor", actor.ID))

	removed, err := m.repo.DeleteWhere(ctx, trash)
	if err != nil {
		return 0, m.fail("empty_trash", fmt.Errorf("lifecycle: failed to empty %s trash: %w", m.entity(), err))
	}
	logger.Audit().Warn("emptied "+m.entity()+" trash", zap.Int64("removed", removed), zap.String("actor", actor.ID))
	return removed, nil
}

// List returns live entities matching q. Customers only see their own.
func (m *Manager[S, E]) List(ctx context.Context, actor auth.Actor, q query.Query) (query.Page[E], error) {
	page, err := m.repo.Find(ctx, m.scope(actor, q.WithTrash(query.ExcludeDeleted)))
	if err != nil {
		return query.Page[E]{}, m.fail("list", err)
	}
	return page, nil
}

// Trash returns trashed entities matching q. Staff only.
func (m *Manager[S, E]) Trash(ctx context.Context, actor auth.Actor, q query.Query) (query.Page[E], error) {
	if !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return query.Page[E]{}, m.fail("trash", apperror.Unauthorized("list the "+m.entity()+" trash", string(actor.Role)))
	}
	page, err := m.repo.Find(ctx, q.WithTrash(query.OnlyDeleted))
	if err != nil {
		return query.Page[E]{}, m.fail("trash", err)
	}
	return page, nil
}

// Statistics counts live entities per status plus the trash size.
func (m *Manager[S, E]) Statistics(ctx context.Context, actor auth.Actor, q query.Query) (Stats, error) {
	live := m.scope(actor, q.WithTrash(query.ExcludeDeleted))
	byStatus, err := m.repo.CountBy(ctx, "status", live)
	if err != nil {
		return Stats{}, m.fail("statistics", err)
	}
	stats := Stats{ByStatus: make(map[string]int64, len(m.Table().Statuses()))}
	for _, s := range m.Table().Statuses() {
		stats.ByStatus[string(s)] = byStatus[string(s)]
		stats.Total += byStatus[string(s)]
	}
	if actor.IsStaff() {
		stats.InTrash, err = m.repo.Count(ctx, q.WithTrash(query.OnlyDeleted))
		if err != nil {
			return Stats{}, m.fail("statistics", err)
		}
	}
	return stats, nil
}

func (m *Manager[S, E]) scope(actor auth.Actor, q query.Query) query.Query {
	if actor.IsStaff() {
		return q
	}
	return q.Eq(m.ownerField, actor.ID)
}

// apply loads the entity, runs fn and persists the result with a version check.
// A unique violation on write (a freshly generated identifier taken concurrently)
// reloads and retries.
func (m *Manager[S, E]) apply(ctx context.Context, id string, actor auth.Actor, operation string, fn func(ctx context.Context, e E) ([]Event, error)) (E, error) {
	var zero E
	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		e, err := m.repo.FindByID(ctx, id)
		if err != nil {
			return zero, m.fail(operation, err)
		}

		events, err := fn(ctx, e)
		if err != nil {
			return zero, m.fail(operation, err)
		}

		err = m.persist(ctx, e, actor)
		if err == nil {
			m.emit(ctx, events...)
			return e, nil
		}
		if !errors.Is(err, apperror.ErrDuplicateIdentifier) {
			return zero, m.fail(operation, err)
		}
		lastErr = err
		metrics.IdentifierCollisionsTotal.WithLabelValues(m.entity() + "_" + operation).Inc()
	}
	return zero, m.fail(operation, apperror.DuplicateIdentifier("identifier", m.maxAttempts, lastErr))
}

func (m *Manager[S, E]) persist(ctx context.Context, e E, actor auth.Actor) error {
	rec := e.Lifecycle()
	expected := rec.Version
	rec.Version = expected + 1
	rec.UpdatedBy = actor.ID
	rec.UpdatedAt = m.now()
	return m.repo.Update(ctx, e, expected)
}

func (m *Manager[S, E]) outcomeEvents(e E, actor auth.Actor, out Outcome[S], reason string) []Event {
	var events []Event
	if out.TrackingAssigned {
		events = append(events, m.event(EventTrackingAssigned, e, actor))
	}
	kind := EventStatusChanged
	if out.To == m.Table().Cancelled() {
		kind = EventCancelled
	}
	ev := m.event(kind, e, actor)
	ev.From = string(out.From)
	ev.To = string(out.To)
	ev.Reason = reason
	return append(events, ev)
}

// Event builds an event for e carrying the common fields.
func (m *Manager[S, E]) Event(kind EventKind, e E, actor auth.Actor) Event {
	return m.event(kind, e, actor)
}

func (m *Manager[S, E]) event(kind EventKind, e E, actor auth.Actor) Event {
	rec := e.Lifecycle()
	return Event{
		Kind:           kind,
		Entity:         m.entity(),
		EntityID:       rec.ID,
		Number:         rec.Number,
		TrackingNumber: rec.TrackingNumber,
		To:             string(rec.Status),
		ActorID:        actor.ID,
		Recipient:      e.Contact(),
	}
}

func (m *Manager[S, E]) emit(ctx context.Context, events ...Event) {
	for _, ev := range events {
		if ev.Kind == EventStatusChanged || ev.Kind == EventCancelled {
			metrics.TransitionsTotal.WithLabelValues(ev.Entity, ev.To).Inc()
		}
		m.notifier.Notify(ctx, ev)
	}
}

func (m *Manager[S, E]) fail(operation string, err error) error {
	kind := apperror.KindOf(err)
	label := string(kind)
	if label == "" {
		label = "INTERNAL"
	}
	metrics.OperationErrorsTotal.WithLabelValues(m.entity()+"."+operation, label).Inc()
	if kind == "" {
		m.log.Error(operation+" failed", zap.Error(err))
	}
	return err
}
