package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"freight-booking/internal/core/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport is a mock implementation of Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTransport) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type panickingTransport struct{}

func (panickingTransport) Name() string                        { return "panicky" }
func (panickingTransport) Send(context.Context, Message) error { panic("socket closed") }

func newTestDispatcher(tr Transport, attempts int) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(DefaultRegistry(), tr, DispatcherConfig{
		From:        "ops@example.com",
		MaxAttempts: attempts,
		Backoff:     10 * time.Millisecond,
	})
	var waits []time.Duration
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		waits = append(waits, wait)
		return ctx.Err()
	}
	return d, &waits
}

func createdJob() Job {
	return Job{
		ID:       "job-1",
		Template: TemplateBookingCreated,
		To:       Recipient{Name: "Ada", Email: "ada@example.com"},
		Data:     map[string]any{"name": "Ada", "number": "BA2501-0001"},
	}
}

func TestDispatcher_DeliverFirstAttempt(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()
	tr.On("Send", mock.Anything, mock.MatchedBy(func(m Message) bool {
		return m.ID == "job-1" &&
			m.To == "ada@example.com" &&
			m.From == "ops@example.com" &&
			m.Subject == "Booking BA2501-0001 received"
	})).Return(nil).Once()

	d, waits := newTestDispatcher(tr, 3)
	res := d.Deliver(context.Background(), createdJob())

	assert.True(t, res.Delivered)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
	assert.Empty(t, *waits)
	tr.AssertExpectations(t)
}

func TestDispatcher_RetriesWithExponentialBackoff(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()
	tr.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp busy")).Twice()
	tr.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	d, waits := newTestDispatcher(tr, 3)
	res := d.Deliver(context.Background(), createdJob())

	assert.True(t, res.Delivered)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *waits)
	tr.AssertExpectations(t)
}

func TestDispatcher_ReportsExhaustedRetries(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()
	tr.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Times(3)

	d, waits := newTestDispatcher(tr, 3)
	res := d.Deliver(context.Background(), createdJob())

	assert.False(t, res.Delivered)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualError(t, res.Err, "smtp down")
	assert.Len(t, *waits, 2, "no wait after the last attempt")
	tr.AssertExpectations(t)
}

func TestDispatcher_UnknownTemplateIsNotSent(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()

	d, _ := newTestDispatcher(tr, 3)
	job := createdJob()
	job.Template = "password_reset"
	res := d.Deliver(context.Background(), job)

	assert.False(t, res.Delivered)
	assert.Equal(t, 0, res.Attempts)
	assert.ErrorIs(t, res.Err, apperror.ErrUnknownTemplate)
	tr.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_RecoversTransportPanic(t *testing.T) {
	d, _ := newTestDispatcher(panickingTransport{}, 2)

	var res Result
	require.NotPanics(t, func() {
		res = d.Deliver(context.Background(), createdJob())
	})
	assert.False(t, res.Delivered)
	assert.Equal(t, 2, res.Attempts)
	assert.ErrorContains(t, res.Err, "panicked")
}

func TestDispatcher_StopsWhenContextCancelled(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()
	tr.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp busy")).Once()

	d, _ := newTestDispatcher(tr, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Deliver(ctx, createdJob())

	assert.False(t, res.Delivered)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
	tr.AssertExpectations(t)
}

func TestDispatcher_Validate(t *testing.T) {
	tr := new(MockTransport)
	tr.On("Name").Return("mock").Maybe()
	d, _ := newTestDispatcher(tr, 1)

	assert.NoError(t, d.Validate(createdJob()))

	job := createdJob()
	job.Template = "password_reset"
	assert.ErrorIs(t, d.Validate(job), apperror.ErrUnknownTemplate)

	job = createdJob()
	job.To.Email = ""
	assert.ErrorIs(t, d.Validate(job), apperror.ErrValidation)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
