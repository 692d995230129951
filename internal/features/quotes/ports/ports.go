package ports

import (
	"context"
	"time"

	"freight-booking/internal/core/auth"
	"freight-booking/internal/features/quotes/domain"
)

// QuoteService defines the primary port for quote operations.
type QuoteService interface {
	CreateQuote(ctx context.Context, actor auth.Actor, req domain.Request) (*domain.Quote, error)
	GetQuote(ctx context.Context, actor auth.Actor, id string) (*domain.Quote, error)
}

// QuoteRepository defines the secondary port for quote storage.
type QuoteRepository interface {
	// Save stores the quote and evicts it after ttl.
	Save(ctx context.Context, quote *domain.Quote, ttl time.Duration) error
	// Get returns the quote, or a NotFound error once it expired.
	Get(ctx context.Context, id string) (*domain.Quote, error)
}
