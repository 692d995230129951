package lifecycle

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/features/timeline"
)

// TrackingIssuer allocates tracking numbers.
type TrackingIssuer interface {
	TrackingNumber(ctx context.Context) (string, error)
}

// TransitionRequest asks for a status change.
type TransitionRequest[S Status] struct {
	Target      S
	Location    string
	Description string
	// GenerateTrackingNumber issues a tracking number when Target is the
	// confirmed status and the entity has none yet.
	GenerateTrackingNumber bool
}

// Outcome describes what a transition did.
type Outcome[S Status] struct {
	From             S
	To               S
	TrackingAssigned bool
}

// Engine validates and applies lifecycle rules to a Record. It never persists.
// Every check runs before the first mutation so a failed call leaves the record untouched.
type Engine[S Status] struct {
	table    *Table[S]
	tracking TrackingIssuer
	now      func() time.Time
}

// NewEngine returns an engine for table. tracking may be nil when the entity
// never issues tracking numbers.
func NewEngine[S Status](table *Table[S], tracking TrackingIssuer, now func() time.Time) *Engine[S] {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine[S]{table: table, tracking: tracking, now: now}
}

// Table returns the engine's transition table.
func (e *Engine[S]) Table() *Table[S] { return e.table }

// Seed initialises a freshly built record: initial status, one timeline entry, audit fields.
func (e *Engine[S]) Seed(rec *Record[S], actor auth.Actor, description string) {
	now := e.now()
	if description == "" {
		description = fmt.Sprintf("%s created", e.table.Entity())
	}
	rec.Status = e.table.Initial()
	rec.Timeline = timeline.Timeline{{
		Status:      string(rec.Status),
		Description: description,
		ActorID:     actor.ID,
		Timestamp:   now,
	}}
	rec.Version = 1
	rec.CreatedBy = actor.ID
	rec.UpdatedBy = actor.ID
	rec.CreatedAt = now
	rec.UpdatedAt = now
}

// CheckTransition reports why rec cannot move to target, or nil.
func (e *Engine[S]) CheckTransition(rec *Record[S], ownerID string, actor auth.Actor, target S) error {
	if rec.IsDeleted {
		return apperror.NotFound(e.table.Entity(), rec.ID)
	}
	if target == rec.Status || e.table.IsTerminal(rec.Status) || !e.table.CanTransition(rec.Status, target) {
		return apperror.InvalidTransition(string(rec.Status), string(target))
	}
	return e.authorize(rec, ownerID, actor, target)
}

func (e *Engine[S]) authorize(rec *Record[S], ownerID string, actor auth.Actor, target S) error {
	if actor.HasRole(e.table.RolesFor(target)...) {
		return nil
	}
	// Customers may withdraw their own request before anyone acted on it.
	if target == e.table.Cancelled() && rec.Status == e.table.Initial() &&
		actor.Role == auth.RoleCustomer && actor.ID == ownerID {
		return nil
	}
	err := apperror.Unauthorized("move "+e.table.Entity()+" to "+string(target), string(actor.Role))
	err.Details["requested_status"] = string(target)
	return err
}

// Transition applies req to rec. A transition to the cancelled status takes the cancel path.
func (e *Engine[S]) Transition(ctx context.Context, rec *Record[S], ownerID string, actor auth.Actor, req TransitionRequest[S]) (Outcome[S], error) {
	if req.Target == e.table.Cancelled() {
		return e.Cancel(rec, ownerID, actor, req.Description)
	}
	if err := e.CheckTransition(rec, ownerID, actor, req.Target); err != nil {
		return Outcome[S]{}, err
	}

	var trackingNumber string
	if req.GenerateTrackingNumber && req.Target == e.table.Confirmed() && rec.TrackingNumber == "" {
		if e.tracking == nil {
			return Outcome[S]{}, fmt.Errorf("lifecycle: %s has no tracking number issuer", e.table.Entity())
		}
		tn, err := e.tracking.TrackingNumber(ctx)
		if err != nil {
			return Outcome[S]{}, fmt.Errorf("lifecycle: failed to issue tracking number: %w", err)
		}
		trackingNumber = tn
	}

	now := e.now()
	out := Outcome[S]{From: rec.Status, To: req.Target}

	if trackingNumber != "" {
		rec.TrackingNumber = trackingNumber
		rec.Timeline.Append(timeline.Entry{
			Status:      string(req.Target),
			Location:    req.Location,
			Description: "Tracking number " + trackingNumber + " assigned",
			ActorID:     actor.ID,
			Timestamp:   now,
		})
		out.TrackingAssigned = true
	}

	description := req.Description
	if description == "" {
		description = "Status changed to " + string(req.Target)
	}
	rec.Timeline.Append(timeline.Entry{
		Status:      string(req.Target),
		Location:    req.Location,
		Description: description,
		ActorID:     actor.ID,
		Timestamp:   now,
	})
	rec.Status = req.Target
	return out, nil
}

// Cancel moves rec to the cancelled status and records who cancelled it and why.
func (e *Engine[S]) Cancel(rec *Record[S], ownerID string, actor auth.Actor, reason string) (Outcome[S], error) {
	target := e.table.Cancelled()
	if err := e.CheckTransition(rec, ownerID, actor, target); err != nil {
		return Outcome[S]{}, err
	}

	now := e.now()
	out := Outcome[S]{From: rec.Status, To: target}
	description := "Cancelled"
	if reason != "" {
		description = "Cancelled: " + reason
	}
	rec.Timeline.Append(timeline.Entry{
		Status:      string(target),
		Description: description,
		ActorID:     actor.ID,
		Timestamp:   now,
	})
	rec.Status = target
	rec.CancelledBy = actor.ID
	rec.CancelledAt = &now
	rec.CancellationReason = reason
	return out, nil
}

// Assign sets the staff member responsible for rec.
func (e *Engine[S]) Assign(rec *Record[S], actor auth.Actor, assignee string) error {
	if rec.IsDeleted {
		return apperror.NotFound(e.table.Entity(), rec.ID)
	}
	if !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return apperror.Unauthorized("assign "+e.table.Entity(), string(actor.Role))
	}
	if assignee == "" {
		return apperror.Validation("assigned_to", "is required")
	}
	rec.AssignedTo = assignee
	return nil
}

// SoftDelete moves rec to the trash. Status and timeline are left as they are.
func (e *Engine[S]) SoftDelete(rec *Record[S], ownerID string, actor auth.Actor, reason string) error {
	if rec.IsDeleted {
		return apperror.NotFound(e.table.Entity(), rec.ID)
	}
	owner := actor.Role == auth.RoleCustomer && actor.ID == ownerID
	if !owner && !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return apperror.Unauthorized("delete "+e.table.Entity(), string(actor.Role))
	}
	if !actor.IsAdmin() && !e.table.Deletable(rec.Status) {
		err := apperror.Unauthorized("delete "+e.table.Entity()+" in status "+string(rec.Status), string(actor.Role))
		err.Details["current_status"] = string(rec.Status)
		return err
	}

	now := e.now()
	rec.IsDeleted = true
	rec.DeletedAt = &now
	rec.DeletedBy = actor.ID
	rec.DeletionReason = reason
	return nil
}

// Restore takes rec out of the trash and records the restoration on the timeline.
func (e *Engine[S]) Restore(rec *Record[S], actor auth.Actor) error {
	if !rec.IsDeleted {
		return apperror.NotDeleted(e.table.Entity(), rec.ID)
	}
	if !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return apperror.Unauthorized("restore "+e.table.Entity(), string(actor.Role))
	}

	now := e.now()
	rec.IsDeleted = false
	rec.DeletedAt = nil
	rec.DeletedBy = ""
	rec.DeletionReason = ""
	rec.RestoredAt = &now
	rec.RestoredBy = actor.ID
	rec.Timeline.Append(timeline.Entry{
		Status:      string(rec.Status),
		Description: "Restored from trash",
		ActorID:     actor.ID,
		Timestamp:   now,
	})
	return nil
}

// CheckPurge guards irreversible deletes.
func (e *Engine[S]) CheckPurge(actor auth.Actor, confirm bool) error {
	if !actor.IsAdmin() {
		return apperror.Unauthorized("permanently delete "+e.table.Entity(), string(actor.Role))
	}
	if !confirm {
		return apperror.Validation("confirm", "must be true for a permanent delete")
	}
	return nil
}
