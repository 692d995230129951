package server

import (
	"strings"
	"time"

	"freight-booking/internal/core/apperror"

	"github.com/gofiber/fiber/v2"
)

// ListParams are the query string parameters shared by every listing endpoint.
type ListParams struct {
	Statuses    []string
	Search      string
	SortBy      string
	Desc        bool
	Skip        int
	Limit       int
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// ParseList reads status (comma separated), q, sort_by, order, skip, limit,
// created_from and created_to. Dates accept RFC 3339 or YYYY-MM-DD.
func ParseList(c *fiber.Ctx) (ListParams, error) {
	p := ListParams{
		Search: c.Query("q"),
		SortBy: c.Query("sort_by"),
		Desc:   strings.EqualFold(c.Query("order"), "desc"),
		Skip:   c.QueryInt("skip", 0),
		Limit:  c.QueryInt("limit", 0),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				p.Statuses = append(p.Statuses, s)
			}
		}
	}

	var err error
	if p.CreatedFrom, err = ParseTime("created_from", c.Query("created_from")); err != nil {
		return ListParams{}, err
	}
	if p.CreatedTo, err = ParseTime("created_to", c.Query("created_to")); err != nil {
		return ListParams{}, err
	}
	// A bare end date covers the whole day.
	if raw := c.Query("created_to"); len(raw) == len(time.DateOnly) {
		p.CreatedTo = p.CreatedTo.Add(24*time.Hour - time.Nanosecond)
	}
	return p, nil
}

// ParseTime parses an optional timestamp parameter. An empty value yields the zero time.
func ParseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperror.Validation(field, "must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
