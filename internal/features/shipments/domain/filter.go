package domain

import (
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/query"
	"freight-booking/internal/features/lifecycle"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var sortable = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"status":       true,
	"total_weight": true,
}

// Filter is the structured listing request for shipments.
type Filter struct {
	Statuses    []string  `json:"status,omitempty"`
	CustomerID  string    `json:"customer_id,omitempty"`
	BookingID   string    `json:"booking_id,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	Number      string    `json:"number,omitempty"`
	CreatedFrom time.Time `json:"created_from,omitempty"`
	CreatedTo   time.Time `json:"created_to,omitempty"`
	SortBy      string    `json:"sort_by,omitempty"`
	Desc        bool      `json:"desc,omitempty"`
	Skip        int       `json:"skip,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// Query validates f and converts it into a store query.
func (f Filter) Query() (query.Query, error) {
	for _, s := range f.Statuses {
		if _, ok := ParseStatus(s); !ok {
			return query.Query{}, apperror.Validation("status", "unknown status "+s)
		}
	}
	if f.SortBy != "" && !sortable[f.SortBy] {
		return query.Query{}, apperror.Validation("sort_by", "cannot sort on "+f.SortBy)
	}
	if f.Skip < 0 {
		return query.Query{}, apperror.Validation("skip", "must not be negative")
	}
	if !f.CreatedFrom.IsZero() && !f.CreatedTo.IsZero() && f.CreatedTo.Before(f.CreatedFrom) {
		return query.Query{}, apperror.Validation("created_to", "must not be before created_from")
	}

	limit := min(f.Limit, MaxLimit)
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := query.New().
		In("status", f.Statuses).
		Contains("number", f.Number).
		Between("created_at", f.CreatedFrom, f.CreatedTo).
		OrderBy(f.SortBy, f.Desc).
		Paginate(f.Skip, limit)
	if f.CustomerID != "" {
		q = q.Eq("customer_id", f.CustomerID)
	}
	if f.BookingID != "" {
		q = q.Eq("booking_id", f.BookingID)
	}
	if f.Mode != "" {
		q = q.Eq("mode", f.Mode)
	}
	return q, nil
}

// TransitionRequest asks for a shipment status change.
type TransitionRequest struct {
	Status                 Status `json:"status"`
	Location               string `json:"location,omitempty"`
	Description            string `json:"description,omitempty"`
	GenerateTrackingNumber bool   `json:"generate_tracking_number,omitempty"`
}

// Lifecycle converts r into the generic request.
func (r TransitionRequest) Lifecycle() lifecycle.TransitionRequest[Status] {
	return lifecycle.TransitionRequest[Status]{
		Target:                 r.Status,
		Location:               r.Location,
		Description:            r.Description,
		GenerateTrackingNumber: r.GenerateTrackingNumber,
	}
}
