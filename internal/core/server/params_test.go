package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseVia(t *testing.T, target string) (ListParams, error) {
	t.Helper()
	var (
		got    ListParams
		gotErr error
	)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got, gotErr = ParseList(c)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	resp.Body.Close()
	return got, gotErr
}

func TestParseList_AllParameters(t *testing.T) {
	p, err := parseVia(t, "/?status=requested,%20confirmed,,&q=BK25&sort_by=number&order=DESC&skip=20&limit=10"+
		"&created_from=2025-03-01T08:00:00%2B02:00&created_to=2025-03-31")
	require.NoError(t, err)

	assert.Equal(t, []string{"requested", "confirmed"}, p.Statuses)
	assert.Equal(t, "BK25", p.Search)
	assert.Equal(t, "number", p.SortBy)
	assert.True(t, p.Desc)
	assert.Equal(t, 20, p.Skip)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC), p.CreatedFrom)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 999999999, time.UTC), p.CreatedTo)
}

func TestParseList_Defaults(t *testing.T) {
	p, err := parseVia(t, "/")
	require.NoError(t, err)

	assert.Empty(t, p.Statuses)
	assert.False(t, p.Desc)
	assert.Zero(t, p.Limit)
	assert.True(t, p.CreatedFrom.IsZero())
	assert.True(t, p.CreatedTo.IsZero())
}

func TestParseList_RFC3339EndIsExact(t *testing.T) {
	p, err := parseVia(t, "/?created_to=2025-03-31T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), p.CreatedTo)
}

func TestParseTime_Invalid(t *testing.T) {
	_, err := ParseTime("created_from", "yesterday")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "created_from", appErr.Details["field"])
}
