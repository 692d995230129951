package ports

import (
	"context"

	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	bookingdomain "freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/identifiers"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/shipments/domain"
)

// ShipmentService defines the primary port for shipment operations.
type ShipmentService interface {
	Create(ctx context.Context, actor auth.Actor, req domain.CreateRequest) (*domain.Shipment, error)
	Get(ctx context.Context, actor auth.Actor, id string) (*domain.Shipment, error)
	List(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Shipment], error)
	Transition(ctx context.Context, actor auth.Actor, id string, req domain.TransitionRequest) (*domain.Shipment, error)
	Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Shipment, error)
	Assign(ctx context.Context, actor auth.Actor, id, assignee string) (*domain.Shipment, error)
	UpdatePackages(ctx context.Context, actor auth.Actor, id string, packages []domain.Package) (*domain.Shipment, error)
	SoftDelete(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Shipment, error)
	Restore(ctx context.Context, actor auth.Actor, id string) (*domain.Shipment, error)
	HardDelete(ctx context.Context, actor auth.Actor, id string, confirm bool) error
	Trash(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Shipment], error)
	EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error)
	Statistics(ctx context.Context, actor auth.Actor, filter domain.Filter) (lifecycle.Stats, error)
}

// ShipmentRepository defines the secondary port for shipment storage.
type ShipmentRepository interface {
	lifecycle.Repository[*domain.Shipment]
	identifiers.SequenceSource
	identifiers.TrackingLookup
}

// NumberIssuer allocates shipment and tracking numbers.
type NumberIssuer interface {
	ShipmentNumber(ctx context.Context) (string, error)
	TrackingNumber(ctx context.Context) (string, error)
}

// BookingReader loads the booking a shipment is created from.
type BookingReader interface {
	Get(ctx context.Context, actor auth.Actor, id string) (*bookingdomain.Booking, error)
}
