package domain

import (
	"strings"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/features/charges"
)

// Request is the input for a new quote: the priced attributes plus an optional contact.
type Request struct {
	charges.Input
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks the fields the calculator does not.
func (r Request) Validate() error {
	if r.Weight <= 0 && r.Volume <= 0 {
		return apperror.Validation("cargo", "weight or volume is required")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return apperror.Validation("email", "not an email address")
	}
	return nil
}

// Quote is a priced request, kept only until ExpiresAt.
type Quote struct {
	ID        string            `json:"id"`
	Input     charges.Input     `json:"input"`
	Breakdown charges.Breakdown `json:"breakdown"`
	Name      string            `json:"name,omitempty"`
	Email     string            `json:"email,omitempty"`
	CreatedBy string            `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// NewQuote builds a quote valid for ttl from now.
func NewQuote(id string, req Request, breakdown charges.Breakdown, createdBy string, now time.Time, ttl time.Duration) *Quote {
	return &Quote{
		ID:        id,
		Input:     req.Input,
		Breakdown: breakdown,
		Name:      req.Name,
		Email:     req.Email,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the quote is no longer valid at now.
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}
