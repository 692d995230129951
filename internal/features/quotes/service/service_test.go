package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/metrics"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/notifications"
	"freight-booking/internal/features/quotes/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuoteRepository is a mock implementation of ports.QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Save(ctx context.Context, quote *domain.Quote, ttl time.Duration) error {
	args := m.Called(ctx, quote, ttl)
	return args.Error(0)
}

func (m *MockQuoteRepository) Get(ctx context.Context, id string) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

// MockEnqueuer is a mock implementation of notifications.Enqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(job notifications.Job) (string, error) {
	args := m.Called(job)
	return args.String(0), args.Error(1)
}

var (
	customer = auth.Actor{ID: "cust-1", Role: auth.RoleCustomer}
	other    = auth.Actor{ID: "cust-2", Role: auth.RoleCustomer}
	ops      = auth.Actor{ID: "ops-1", Role: auth.RoleOperations}
	fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newService(repo *MockQuoteRepository, queue *MockEnqueuer) *QuoteServiceImpl {
	s := NewQuoteService(repo, charges.Default(), queue, 30*time.Minute)
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "q-1" }
	return s
}

func airRequest() domain.Request {
	return domain.Request{Input: charges.Input{Weight: 100, Volume: 1, ShipmentCategory: charges.AirFreight}}
}

func TestQuoteService_CreateQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, queue := new(MockQuoteRepository), new(MockEnqueuer)
		service := newService(repo, queue)
		before := testutil.ToFloat64(metrics.QuotesIssuedTotal)

		repo.On("Save", ctx, mock.AnythingOfType("*domain.Quote"), 30*time.Minute).Return(nil).Once()

		quote, err := service.CreateQuote(ctx, customer, airRequest())
		require.NoError(t, err)
		assert.Equal(t, "q-1", quote.ID)
		assert.Equal(t, "cust-1", quote.CreatedBy)
		assert.Equal(t, "1800.00", quote.Breakdown.Freight.StringFixed(2))
		assert.Equal(t, fixedNow.Add(30*time.Minute), quote.ExpiresAt)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QuotesIssuedTotal)-before)
		repo.AssertExpectations(t)
		queue.AssertNotCalled(t, "Enqueue", mock.Anything)
	})

	t.Run("NotifiesContact", func(t *testing.T) {
		repo, queue := new(MockQuoteRepository), new(MockEnqueuer)
		service := newService(repo, queue)

		repo.On("Save", ctx, mock.AnythingOfType("*domain.Quote"), 30*time.Minute).Return(nil).Once()
		queue.On("Enqueue", mock.MatchedBy(func(job notifications.Job) bool {
			return job.Template == notifications.TemplateQuoteReady &&
				job.To.Email == "ada@example.com" &&
				job.Data["quote_id"] == "q-1" &&
				job.Data["total"] == "1890.00"
		})).Return("job-1", nil).Once()

		req := airRequest()
		req.Name, req.Email = "Ada", "ada@example.com"
		_, err := service.CreateQuote(ctx, customer, req)
		require.NoError(t, err)
		queue.AssertExpectations(t)
	})

	t.Run("EnqueueFailureDoesNotFail", func(t *testing.T) {
		repo, queue := new(MockQuoteRepository), new(MockEnqueuer)
		service := newService(repo, queue)

		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		queue.On("Enqueue", mock.Anything).Return("", apperror.UnknownTemplate("quote_ready")).Once()

		req := airRequest()
		req.Email = "ada@example.com"
		_, err := service.CreateQuote(ctx, customer, req)
		assert.NoError(t, err)
	})

	t.Run("ValidationError", func(t *testing.T) {
		repo, queue := new(MockQuoteRepository), new(MockEnqueuer)
		service := newService(repo, queue)

		_, err := service.CreateQuote(ctx, customer, domain.Request{Input: charges.Input{ShipmentCategory: charges.AirFreight}})
		assert.ErrorIs(t, err, apperror.ErrValidation)

		_, err = service.CreateQuote(ctx, customer, domain.Request{Input: charges.Input{Weight: 1, ShipmentCategory: "RAIL"}})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RepoError", func(t *testing.T) {
		repo, queue := new(MockQuoteRepository), new(MockEnqueuer)
		service := newService(repo, queue)

		repo.On("Save", ctx, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		_, err := service.CreateQuote(ctx, customer, airRequest())
		assert.ErrorContains(t, err, "service: failed to save quote")
		repo.AssertExpectations(t)
	})
}

func TestQuoteService_GetQuote(t *testing.T) {
	ctx := context.Background()
	stored := &domain.Quote{ID: "q-1", CreatedBy: "cust-1", ExpiresAt: fixedNow.Add(time.Minute)}

	t.Run("Owner", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		repo.On("Get", ctx, "q-1").Return(stored, nil).Once()

		quote, err := service.GetQuote(ctx, customer, "q-1")
		require.NoError(t, err)
		assert.Equal(t, stored, quote)
	})

	t.Run("Staff", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		repo.On("Get", ctx, "q-1").Return(stored, nil).Once()

		_, err := service.GetQuote(ctx, ops, "q-1")
		assert.NoError(t, err)
	})

	t.Run("OtherCustomer", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		repo.On("Get", ctx, "q-1").Return(stored, nil).Once()

		_, err := service.GetQuote(ctx, other, "q-1")
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("Expired", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		expired := &domain.Quote{ID: "q-1", CreatedBy: "cust-1", ExpiresAt: fixedNow}
		repo.On("Get", ctx, "q-1").Return(expired, nil).Once()

		_, err := service.GetQuote(ctx, customer, "q-1")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		repo.On("Get", ctx, "q-9").Return(nil, apperror.NotFound("quote", "q-9")).Once()

		_, err := service.GetQuote(ctx, customer, "q-9")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("RepoError", func(t *testing.T) {
		repo := new(MockQuoteRepository)
		service := newService(repo, new(MockEnqueuer))
		repo.On("Get", ctx, "q-1").Return(nil, errors.New("redis down")).Once()

		_, err := service.GetQuote(ctx, customer, "q-1")
		assert.ErrorContains(t, err, "service: failed to get quote")
	})
}
