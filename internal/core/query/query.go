package query

import "time"

// Op is a structured filter operator.
type Op string

const (
	// OpEq matches field = value.
	OpEq Op = "eq"
	// OpIn matches field IN (values...). Value must be a slice.
	OpIn Op = "in"
	// OpGte matches field >= value.
	OpGte Op = "gte"
	// OpLte matches field <= value.
	OpLte Op = "lte"
	// OpContains matches a case-insensitive substring of a text field.
	OpContains Op = "contains"
)

// TrashScope selects how soft-deleted documents are treated.
type TrashScope int

const (
	// ExcludeDeleted is the default: soft-deleted documents are invisible.
	ExcludeDeleted TrashScope = iota
	// OnlyDeleted returns the trash.
	OnlyDeleted
	// IncludeDeleted returns both, used by audit lookups.
	IncludeDeleted
)

// Condition is a single predicate on a whitelisted field.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Query describes a filtered, sorted and paginated read.
type Query struct {
	Conditions []Condition
	Trash      TrashScope
	SortBy     string
	Desc       bool
	Skip       int
	Limit      int
}

// New returns an empty query that excludes deleted documents.
func New() Query {
	return Query{}
}

// Where appends an arbitrary condition.
func (q Query) Where(field string, op Op, value any) Query {
	q.Conditions = append(append([]Condition(nil), q.Conditions...), Condition{Field: field, Op: op, Value: value})
	return q
}

// Eq appends an equality condition.
func (q Query) Eq(field string, value any) Query {
	return q.Where(field, OpEq, value)
}

// In appends a set-membership condition. An empty set is ignored.
func (q Query) In(field string, values []string) Query {
	if len(values) == 0 {
		return q
	}
	return q.Where(field, OpIn, values)
}

// Contains appends a substring condition. An empty needle is ignored.
func (q Query) Contains(field, needle string) Query {
	if needle == "" {
		return q
	}
	return q.Where(field, OpContains, needle)
}

// Between appends a date range. Zero bounds are open.
func (q Query) Between(field string, from, to time.Time) Query {
	if !from.IsZero() {
		q = q.Where(field, OpGte, from)
	}
	if !to.IsZero() {
		q = q.Where(field, OpLte, to)
	}
	return q
}

// WithTrash sets the trash scope.
func (q Query) WithTrash(scope TrashScope) Query {
	q.Trash = scope
	return q
}

// OrderBy sets the sort field and direction.
func (q Query) OrderBy(field string, desc bool) Query {
	q.SortBy = field
	q.Desc = desc
	return q
}

// Paginate sets skip and limit.
func (q Query) Paginate(skip, limit int) Query {
	q.Skip = skip
	q.Limit = limit
	return q
}

// Page is one page of results plus the total matching count.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

// HasNext reports whether more items exist after this page.
func (p Page[T]) HasNext() bool {
	return int64(p.Skip+len(p.Items)) < p.Total
}

// Map converts a page of one type into a page of another.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return Page[U]{Items: items, Total: p.Total, Skip: p.Skip, Limit: p.Limit}
}
