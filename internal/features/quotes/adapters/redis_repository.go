package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/cache"
	"freight-booking/internal/features/quotes/domain"
)

const quoteKeyPrefix = "quote:"

// RedisQuoteRepository implements ports.QuoteRepository using the cache adaptation.
type RedisQuoteRepository struct {
	cache cache.Cache
}

// NewRedisQuoteRepository creates a new RedisQuoteRepository.
func NewRedisQuoteRepository(c cache.Cache) *RedisQuoteRepository {
	return &RedisQuoteRepository{
		cache: c,
	}
}

// Save stores the quote in the cache.
func (r *RedisQuoteRepository) Save(ctx context.Context, quote *domain.Quote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := r.cache.Set(ctx, quoteKeyPrefix+quote.ID, data, ttl); err != nil {
		return fmt.Errorf("failed to save quote to cache: %w", err)
	}

	return nil
}

// Get retrieves the quote from the cache.
func (r *RedisQuoteRepository) Get(ctx context.Context, id string) (*domain.Quote, error) {
	data, err := r.cache.Get(ctx, quoteKeyPrefix+id)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, apperror.NotFound("quote", id)
		}
		return nil, fmt.Errorf("failed to get quote from cache: %w", err)
	}

	var quote domain.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	return &quote, nil
}
