package docstore

import (
	"context"
	"errors"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/query"
)

// Mapper converts between a domain entity E and its stored row R.
type Mapper[E, R any] struct {
	ToRow   func(E) *R
	FromRow func(*R) (E, error)
	// ID returns the entity's primary key.
	ID func(E) string
}

// Repository adapts a Store to entity level persistence. Store errors are
// translated into apperror kinds so services never see gorm or docstore errors.
type Repository[E, R any] struct {
	store  *Store[R]
	entity string
	mapper Mapper[E, R]
}

// NewRepository wraps store for the named entity.
func NewRepository[E, R any](store *Store[R], entity string, mapper Mapper[E, R]) *Repository[E, R] {
	return &Repository[E, R]{store: store, entity: entity, mapper: mapper}
}

// Store exposes the underlying store.
func (r *Repository[E, R]) Store() *Store[R] { return r.store }

// FindByID returns the entity whether or not it is in the trash.
func (r *Repository[E, R]) FindByID(ctx context.Context, id string) (E, error) {
	var zero E
	row, err := r.store.FindByID(ctx, id)
	if err != nil {
		return zero, r.translate(err, id, 0)
	}
	return r.mapper.FromRow(row)
}

// Insert stores a new entity.
func (r *Repository[E, R]) Insert(ctx context.Context, entity E) error {
	return r.translate(r.store.Insert(ctx, r.mapper.ToRow(entity)), r.mapper.ID(entity), 0)
}

// Update overwrites the entity if its stored version is expectedVersion.
func (r *Repository[E, R]) Update(ctx context.Context, entity E, expectedVersion int) error {
	err := r.store.UpdateVersioned(ctx, r.mapper.ToRow(entity), expectedVersion)
	return r.translate(err, r.mapper.ID(entity), expectedVersion)
}

// Delete physically removes one entity.
func (r *Repository[E, R]) Delete(ctx context.Context, id string) error {
	return r.translate(r.store.DeleteByID(ctx, id), id, 0)
}

// Find returns one page of matching entities.
func (r *Repository[E, R]) Find(ctx context.Context, q query.Query) (query.Page[E], error) {
	page, err := r.store.Page(ctx, q)
	if err != nil {
		return query.Page[E]{}, r.translate(err, "", 0)
	}
	out := query.Page[E]{Items: make([]E, 0, len(page.Items)), Total: page.Total, Skip: page.Skip, Limit: page.Limit}
	for i := range page.Items {
		e, err := r.mapper.FromRow(&page.Items[i])
		if err != nil {
			return query.Page[E]{}, err
		}
		out.Items = append(out.Items, e)
	}
	return out, nil
}

// Count counts matching entities.
func (r *Repository[E, R]) Count(ctx context.Context, q query.Query) (int64, error) {
	n, err := r.store.Count(ctx, q)
	return n, r.translate(err, "", 0)
}

// CountBy counts matching entities grouped by field.
func (r *Repository[E, R]) CountBy(ctx context.Context, field string, q query.Query) (map[string]int64, error) {
	counts, err := r.store.GroupCount(ctx, field, q)
	return counts, r.translate(err, "", 0)
}

// DeleteWhere physically removes all matching entities.
func (r *Repository[E, R]) DeleteWhere(ctx context.Context, q query.Query) (int64, error) {
	n, err := r.store.DeleteMany(ctx, q)
	return n, r.translate(err, "", 0)
}

// MaxWithPrefix implements identifiers.SequenceSource.
func (r *Repository[E, R]) MaxWithPrefix(ctx context.Context, field, prefix string) (string, bool, error) {
	return r.store.MaxWithPrefix(ctx, field, prefix)
}

// TrackingNumberExists implements identifiers.TrackingLookup.
func (r *Repository[E, R]) TrackingNumberExists(ctx context.Context, trackingNumber string) (bool, error) {
	return r.store.Exists(ctx, "tracking_number", trackingNumber)
}

func (r *Repository[E, R]) translate(err error, id string, version int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperror.NotFound(r.entity, id)
	case errors.Is(err, ErrDuplicate):
		return apperror.DuplicateIdentifier(r.entity+" identifier", 1, err)
	case errors.Is(err, ErrVersionMismatch):
		return apperror.Conflict(r.entity, id, version)
	case errors.Is(err, ErrUnknownField):
		return apperror.Validation("query", err.Error())
	default:
		return err
	}
}
