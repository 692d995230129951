package service

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/metrics"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/notifications"
	"freight-booking/internal/features/quotes/domain"
	"freight-booking/internal/features/quotes/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteServiceImpl implements ports.QuoteService.
type QuoteServiceImpl struct {
	repo       ports.QuoteRepository
	calculator *charges.Calculator
	queue      notifications.Enqueuer
	ttl        time.Duration
	now        func() time.Time
	newID      func() string
}

// NewQuoteService creates a new QuoteServiceImpl. Quotes live for ttl.
func NewQuoteService(repo ports.QuoteRepository, calculator *charges.Calculator, queue notifications.Enqueuer, ttl time.Duration) *QuoteServiceImpl {
	return &QuoteServiceImpl{
		repo:       repo,
		calculator: calculator,
		queue:      queue,
		ttl:        ttl,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// CreateQuote prices the request, stores the result and notifies the contact if one is given.
func (s *QuoteServiceImpl) CreateQuote(ctx context.Context, actor auth.Actor, req domain.Request) (*domain.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	breakdown, err := s.calculator.Calculate(req.Input)
	if err != nil {
		return nil, err
	}

	quote := domain.NewQuote(s.newID(), req, breakdown, actor.ID, s.now(), s.ttl)
	if err := s.repo.Save(ctx, quote, s.ttl); err != nil {
		return nil, fmt.Errorf("service: failed to save quote: %w", err)
	}
	metrics.QuotesIssuedTotal.Inc()

	if quote.Email != "" {
		s.notify(quote)
	}
	return quote, nil
}

// GetQuote returns a stored quote. Customers only see their own quotes.
func (s *QuoteServiceImpl) GetQuote(ctx context.Context, actor auth.Actor, id string) (*domain.Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to get quote: %w", err)
	}
	if quote.Expired(s.now()) {
		return nil, apperror.NotFound("quote", id)
	}
	if !actor.IsStaff() && quote.CreatedBy != actor.ID {
		return nil, apperror.Unauthorized("view another customer's quote", string(actor.Role))
	}
	return quote, nil
}

func (s *QuoteServiceImpl) notify(quote *domain.Quote) {
	_, err := s.queue.Enqueue(notifications.Job{
		Template: notifications.TemplateQuoteReady,
		To:       notifications.Recipient{Name: quote.Name, Email: quote.Email},
		Data: map[string]any{
			"name":       quote.Name,
			"quote_id":   quote.ID,
			"total":      quote.Breakdown.Total.StringFixed(2),
			"currency":   quote.Breakdown.Currency,
			"expires_at": quote.ExpiresAt.Format(time.RFC1123),
		},
	})
	if err != nil {
		logger.Named("quotes").Warn("quote notification not enqueued",
			zap.String("quote_id", quote.ID),
			zap.Error(err),
		)
	}
}
