package adapters

import (
	"context"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/database"
	"freight-booking/internal/core/query"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/shipments/domain"
	"freight-booking/internal/features/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *GormShipmentRepository {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return NewGormShipmentRepository(db)
}

func sampleShipment(id, number string) *domain.Shipment {
	s := &domain.Shipment{
		Record: lifecycle.Record[domain.Status]{
			ID:      id,
			Number:  number,
			Status:  domain.StatusRequested,
			Version: 1,
			Timeline: timeline.Timeline{
				{Status: string(domain.StatusRequested), Description: "shipment created", ActorID: "ops-1", Timestamp: created},
			},
			CreatedBy: "ops-1",
			CreatedAt: created,
			UpdatedAt: created,
		},
		BookingID:   "b-1",
		CustomerID:  "cust-1",
		Consignee:   lifecycle.Contact{Name: "Kemi", Email: "kemi@example.com"},
		Mode:        charges.SeaFreight,
		Origin:      "CN",
		Destination: "NG",
		Packages:    []domain.Package{{Type: charges.Pallet, Quantity: 4, Weight: 800, Volume: 6}},
		Carrier:     "Maersk",
	}
	s.RecomputeAggregates()
	return s
}

func TestGormShipmentRepository_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	s := sampleShipment("s-1", "SH2501-0001")
	s.ContainerNumber = "MSKU1234565"
	require.NoError(t, repo.Insert(ctx, s))

	got, err := repo.FindByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "SH2501-0001", got.Number)
	assert.Equal(t, "b-1", got.BookingID)
	assert.Equal(t, "kemi@example.com", got.Consignee.Email)
	assert.Equal(t, charges.SeaFreight, got.Mode)
	assert.Equal(t, 4, got.TotalPackages)
	assert.Equal(t, 800.0, got.TotalWeight)
	require.Len(t, got.Packages, 1)
	assert.Equal(t, charges.Pallet, got.Packages[0].Type)
	assert.Equal(t, "MSKU1234565", got.ContainerNumber)
	require.Len(t, got.Timeline, 1)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestGormShipmentRepository_Errors(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, sampleShipment("s-1", "SH2501-0001")))

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = repo.Insert(ctx, sampleShipment("s-2", "SH2501-0001"))
	assert.ErrorIs(t, err, apperror.ErrDuplicateIdentifier)

	s, err := repo.FindByID(ctx, "s-1")
	require.NoError(t, err)
	s.Version = 3
	assert.ErrorIs(t, repo.Update(ctx, s, 2), apperror.ErrConflict)
}

func TestGormShipmentRepository_Queries(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := sampleShipment("s-1", "SH2501-0001")
	second := sampleShipment("s-2", "SH2501-0002")
	second.BookingID = "b-2"
	second.TrackingNumber = "TRKAA0001BB"
	second.CreatedAt = created.Add(time.Hour)
	trashed := sampleShipment("s-3", "SH2501-0003")
	trashed.IsDeleted = true
	for _, s := range []*domain.Shipment{first, second, trashed} {
		require.NoError(t, repo.Insert(ctx, s))
	}

	page, err := repo.Find(ctx, query.New().Eq("booking_id", "b-2"))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s-2", page.Items[0].ID)

	total, err := repo.Count(ctx, query.New())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	highest, ok, err := repo.MaxWithPrefix(ctx, "number", "SH2501-")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SH2501-0003", highest)

	taken, err := repo.TrackingNumberExists(ctx, "TRKAA0001BB")
	require.NoError(t, err)
	assert.True(t, taken)
}
