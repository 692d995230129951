package ports

import (
	"context"

	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	"freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/identifiers"
	"freight-booking/internal/features/lifecycle"

	"github.com/shopspring/decimal"
)

// BookingService defines the primary port for booking operations.
type BookingService interface {
	Create(ctx context.Context, actor auth.Actor, req domain.CreateRequest) (*domain.Booking, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error)
	List(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error)
	Transition(ctx context.Context, actor auth.Actor, id string, req domain.TransitionRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error)
	Assign(ctx context.Context, actor auth.Actor, id, assignee string) (*domain.Booking, error)
	AddNote(ctx context.Context, actor auth.Actor, id, text string) (*domain.Booking, error)
	AddCharge(ctx context.Context, actor auth.Actor, id, label string, amount decimal.Decimal) (*domain.Booking, error)
	UpdateCargo(ctx context.Context, actor auth.Actor, id string, items []domain.CargoItem) (*domain.Booking, error)
	IssueInvoice(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error)
	SoftDelete(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error)
	Restore(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error)
	HardDelete(ctx context.Context, actor auth.Actor, id string, confirm bool) error
	Trash(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error)
	EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error)
	Statistics(ctx context.Context, actor auth.Actor, filter domain.Filter) (lifecycle.Stats, error)
}

// BookingRepository defines the secondary port for booking storage. It also
// backs the number sequences and tracking lookups of the identifier generator.
type BookingRepository interface {
	lifecycle.Repository[*domain.Booking]
	identifiers.SequenceSource
	identifiers.TrackingLookup
}

// NumberIssuer allocates the business numbers a booking collects over its life.
type NumberIssuer interface {
	BookingNumber(ctx context.Context, category string) (string, error)
	InvoiceNumber(ctx context.Context) (string, error)
	ConsolidationNumber(ctx context.Context) (string, error)
	WarehouseReceiptNumber(ctx context.Context) (string, error)
	TrackingNumber(ctx context.Context) (string, error)
}
