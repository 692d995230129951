package adapters

import (
	"context"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/cache"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/quotes/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*RedisQuoteRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://"+mr.Addr(), "freight")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return NewRedisQuoteRepository(c), mr
}

func TestRedisQuoteRepository_SaveAndGet(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	quote := &domain.Quote{
		ID:        "q-1",
		Input:     charges.Input{Weight: 100, Volume: 1, ShipmentCategory: charges.AirFreight},
		Breakdown: charges.Breakdown{Total: decimal.RequireFromString("1890.00"), Currency: "USD"},
		CreatedBy: "cust-1",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, quote, 30*time.Minute))
	assert.True(t, mr.Exists("freight:quote:q-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("freight:quote:q-1"))

	got, err := repo.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", got.CreatedBy)
	assert.True(t, got.Breakdown.Total.Equal(decimal.RequireFromString("1890")))
	assert.Equal(t, charges.AirFreight, got.Input.ShipmentCategory)
}

func TestRedisQuoteRepository_Expiry(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Quote{ID: "q-2"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "q-2")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRedisQuoteRepository_BackendError(t *testing.T) {
	repo, mr := newRepo(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "q-3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrNotFound)
}
