package domain

import (
	"testing"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Query(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	q, err := Filter{
		Statuses:         []string{"booking_requested", "booking_confirmed"},
		CustomerID:       "cust-1",
		ShipmentCategory: "AIR_FREIGHT",
		Number:           "BA2501",
		CreatedFrom:      from,
		CreatedTo:        to,
		SortBy:           "number",
		Skip:             20,
		Limit:            500,
	}.Query()
	require.NoError(t, err)

	assert.Equal(t, []query.Condition{
		{Field: "status", Op: query.OpIn, Value: []string{"booking_requested", "booking_confirmed"}},
		{Field: "number", Op: query.OpContains, Value: "BA2501"},
		{Field: "created_at", Op: query.OpGte, Value: from},
		{Field: "created_at", Op: query.OpLte, Value: to},
		{Field: "customer_id", Op: query.OpEq, Value: "cust-1"},
		{Field: "shipment_category", Op: query.OpEq, Value: "AIR_FREIGHT"},
	}, q.Conditions)
	assert.Equal(t, "number", q.SortBy)
	assert.Equal(t, 20, q.Skip)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, query.ExcludeDeleted, q.Trash)
}

func TestFilter_Defaults(t *testing.T) {
	q, err := Filter{}.Query()
	require.NoError(t, err)
	assert.Empty(t, q.Conditions)
	assert.Equal(t, DefaultLimit, q.Limit)
}

func TestFilter_Invalid(t *testing.T) {
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		filter Filter
		field  string
	}{
		{"UnknownStatus", Filter{Statuses: []string{"lost"}}, "status"},
		{"UnsortableField", Filter{SortBy: "customer_email"}, "sort_by"},
		{"NegativeSkip", Filter{Skip: -1}, "skip"},
		{"InvertedRange", Filter{CreatedFrom: from, CreatedTo: from.AddDate(0, 0, -1)}, "created_to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.filter.Query()
			var appErr *apperror.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}
