package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := InvalidTransition("delivered", "in_transit")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("service: failed to transition: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidTransition)
	assert.Equal(t, KindInvalidTransition, KindOf(wrapped))
}

func TestError_Details(t *testing.T) {
	err := InvalidTransition("received_at_warehouse", "delivered")
	assert.Equal(t, "received_at_warehouse", err.Details["current_status"])
	assert.Equal(t, "delivered", err.Details["requested_status"])
	assert.Contains(t, err.Error(), "cannot transition")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("unique constraint")
	err := DuplicateIdentifier("number", 5, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "unique constraint")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}
