package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freight-booking/internal/core/query"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
	// ErrVersionMismatch is returned when a versioned update matched no row.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrUnknownField is returned when a query references a field outside the schema.
	ErrUnknownField = errors.New("unknown query field")
)

// Schema maps public query fields to columns for one document type.
type Schema struct {
	// Fields maps query field names to column names. Only these may be filtered or sorted on.
	Fields map[string]string
	// DeletedColumn is the boolean soft-delete column.
	DeletedColumn string
	// VersionColumn is the optimistic concurrency column.
	VersionColumn string
	// DefaultSort is the column used when the query has no sort.
	DefaultSort string
}

// Store is a generic document store over a gorm model type R.
type Store[R any] struct {
	db     *gorm.DB
	schema Schema
}

// New creates a Store for rows of type R.
func New[R any](db *gorm.DB, schema Schema) *Store[R] {
	if schema.DeletedColumn == "" {
		schema.DeletedColumn = "is_deleted"
	}
	if schema.VersionColumn == "" {
		schema.VersionColumn = "version"
	}
	if schema.DefaultSort == "" {
		schema.DefaultSort = "created_at"
	}
	return &Store[R]{db: db, schema: schema}
}

// FindByID returns the document regardless of its trash state.
func (s *Store[R]) FindByID(ctx context.Context, id string) (*R, error) {
	var row R
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: find by id %s: %w", id, err)
	}
	return &row, nil
}

// FindOne returns the first document matching q.
func (s *Store[R]) FindOne(ctx context.Context, q query.Query) (*R, error) {
	tx, err := s.apply(s.db.WithContext(ctx).Model(new(R)), q, true)
	if err != nil {
		return nil, err
	}
	var row R
	if err := tx.Limit(1).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore: find one: %w", err)
	}
	return &row, nil
}

// FindMany returns documents matching q, sorted and paginated.
func (s *Store[R]) FindMany(ctx context.Context, q query.Query) ([]R, error) {
	tx, err := s.apply(s.db.WithContext(ctx).Model(new(R)), q, true)
	if err != nil {
		return nil, err
	}
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var rows []R
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: find many: %w", err)
	}
	return rows, nil
}

// Count returns the number of documents matching q, ignoring pagination.
func (s *Store[R]) Count(ctx context.Context, q query.Query) (int64, error) {
	tx, err := s.apply(s.db.WithContext(ctx).Model(new(R)), q, false)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("docstore: count: %w", err)
	}
	return total, nil
}

// Page runs FindMany and Count for the same query.
func (s *Store[R]) Page(ctx context.Context, q query.Query) (query.Page[R], error) {
	total, err := s.Count(ctx, q)
	if err != nil {
		return query.Page[R]{}, err
	}
	rows, err := s.FindMany(ctx, q)
	if err != nil {
		return query.Page[R]{}, err
	}
	return query.Page[R]{Items: rows, Total: total, Skip: q.Skip, Limit: q.Limit}, nil
}

// Insert creates a new document. Unique violations yield ErrDuplicate.
func (s *Store[R]) Insert(ctx context.Context, row *R) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("docstore: insert: %w", err)
	}
	return nil
}

// UpdateVersioned overwrites the whole document only if its stored version equals
// expectedVersion. The caller is responsible for incrementing the version on row.
func (s *Store[R]) UpdateVersioned(ctx context.Context, row *R, expectedVersion int) error {
	res := s.db.WithContext(ctx).
		Model(row).
		Where(s.schema.VersionColumn+" = ?", expectedVersion).
		Select("*").
		Updates(row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicate, res.Error)
		}
		return fmt.Errorf("docstore: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// DeleteByID physically removes a document.
func (s *Store[R]) DeleteByID(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(R))
	if res.Error != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany physically removes every document matching q and returns the count.
func (s *Store[R]) DeleteMany(ctx context.Context, q query.Query) (int64, error) {
	tx, err := s.apply(s.db.WithContext(ctx), q, false)
	if err != nil {
		return 0, err
	}
	res := tx.Delete(new(R))
	if res.Error != nil {
		return 0, fmt.Errorf("docstore: delete many: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Exists reports whether any document, deleted or not, has field = value.
func (s *Store[R]) Exists(ctx context.Context, field string, value any) (bool, error) {
	total, err := s.Count(ctx, query.New().WithTrash(query.IncludeDeleted).Eq(field, value))
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// MaxWithPrefix returns the greatest value of field starting with prefix, across
// deleted and live documents. Longer values sort higher so sequences past 9999 still order.
func (s *Store[R]) MaxWithPrefix(ctx context.Context, field, prefix string) (string, bool, error) {
	column, ok := s.schema.Fields[field]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	var values []string
	err := s.db.WithContext(ctx).
		Model(new(R)).
		Where(column+" LIKE ?", prefix+"%").
		Order("LENGTH(" + column + ") DESC").
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &values).Error
	if err != nil {
		return "", false, fmt.Errorf("docstore: max %s: %w", field, err)
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// GroupCount counts documents matching q grouped by field.
func (s *Store[R]) GroupCount(ctx context.Context, field string, q query.Query) (map[string]int64, error) {
	column, ok := s.schema.Fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	tx, err := s.apply(s.db.WithContext(ctx).Model(new(R)), q, false)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		GroupKey string
		Total    int64
	}
	if err := tx.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: group count: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.GroupKey] = r.Total
	}
	return counts, nil
}

// apply translates a structured query into gorm clauses.
func (s *Store[R]) apply(tx *gorm.DB, q query.Query, withSort bool) (*gorm.DB, error) {
	switch q.Trash {
	case query.ExcludeDeleted:
		tx = tx.Where(s.schema.DeletedColumn+" = ?", false)
	case query.OnlyDeleted:
		tx = tx.Where(s.schema.DeletedColumn+" = ?", true)
	}

	for _, c := range q.Conditions {
		column, ok := s.schema.Fields[c.Field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
		}
		switch c.Op {
		case query.OpEq:
			tx = tx.Where(column+" = ?", c.Value)
		case query.OpIn:
			tx = tx.Where(column+" IN ?", c.Value)
		case query.OpGte:
			tx = tx.Where(column+" >= ?", c.Value)
		case query.OpLte:
			tx = tx.Where(column+" <= ?", c.Value)
		case query.OpContains:
			needle, _ := c.Value.(string)
			tx = tx.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(needle)+"%")
		default:
			return nil, fmt.Errorf("docstore: unsupported operator %q", c.Op)
		}
	}

	if !withSort {
		return tx, nil
	}

	sortColumn := s.schema.DefaultSort
	if q.SortBy != "" {
		column, ok := s.schema.Fields[q.SortBy]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, q.SortBy)
		}
		sortColumn = column
	}
	direction := " ASC"
	if q.Desc || q.SortBy == "" {
		direction = " DESC"
	}
	return tx.Order(sortColumn + direction), nil
}
