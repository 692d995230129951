package service

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	bookingdomain "freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/shipments/domain"
	"freight-booking/internal/features/shipments/ports"
)

type manager = lifecycle.Manager[domain.Status, *domain.Shipment]

// ShipmentServiceImpl implements ports.ShipmentService.
type ShipmentServiceImpl struct {
	manager  *manager
	numbers  ports.NumberIssuer
	bookings ports.BookingReader
}

// NewShipmentService creates a new ShipmentServiceImpl.
func NewShipmentService(repo ports.ShipmentRepository, numbers ports.NumberIssuer, bookings ports.BookingReader, notifier lifecycle.Notifier) *ShipmentServiceImpl {
	return newShipmentService(repo, numbers, bookings, notifier, nil)
}

func newShipmentService(repo ports.ShipmentRepository, numbers ports.NumberIssuer, bookings ports.BookingReader, notifier lifecycle.Notifier, now func() time.Time) *ShipmentServiceImpl {
	return &ShipmentServiceImpl{
		manager: lifecycle.NewManager(domain.Table(), lifecycle.Repository[*domain.Shipment](repo), lifecycle.Options[domain.Status, *domain.Shipment]{
			Tracking: numbers,
			Notifier: notifier,
			Now:      now,
		}),
		numbers:  numbers,
		bookings: bookings,
	}
}

// Create stores a new shipment. Staff only. With a booking id the empty
// fields are copied from that booking, which must be confirmed and live.
func (s *ShipmentServiceImpl) Create(ctx context.Context, actor auth.Actor, req domain.CreateRequest) (*domain.Shipment, error) {
	if !actor.IsStaff() {
		return nil, apperror.Unauthorized("create shipments", string(actor.Role))
	}
	if req.BookingID != "" {
		b, err := s.bookings.Get(ctx, actor, req.BookingID)
		if err != nil {
			return nil, wrap("load booking for", err)
		}
		if b.IsDeleted || b.Status == bookingdomain.StatusRequested || b.Status == bookingdomain.StatusCancelled {
			return nil, apperror.Validation("booking_id", "booking "+b.Number+" is "+string(b.Status))
		}
		req = fromBooking(req, b)
	}

	sh, err := domain.NewShipment(req)
	if err != nil {
		return nil, err
	}
	created, err := s.manager.Create(ctx, sh, actor, s.numbers.ShipmentNumber)
	if err != nil {
		return nil, wrap("create", err)
	}
	return created, nil
}

// fromBooking fills the fields req leaves empty.
func fromBooking(req domain.CreateRequest, b *bookingdomain.Booking) domain.CreateRequest {
	if req.CustomerID == "" {
		req.CustomerID = b.CustomerID
	}
	if req.Consignee.Name == "" {
		req.Consignee = b.Customer
	}
	if req.Mode == "" {
		req.Mode = b.ShipmentCategory
	}
	if req.Origin == "" {
		req.Origin = b.Origin
	}
	if req.Destination == "" {
		req.Destination = b.Destination
	}
	if len(req.Packages) == 0 {
		for _, item := range b.CargoDetails {
			req.Packages = append(req.Packages, domain.Package{
				Type:     b.PackageCategory,
				Quantity: item.Cartons,
				Weight:   item.Weight,
				Volume:   item.Volume,
			})
		}
	}
	return req
}

// Get returns one shipment visible to actor.
func (s *ShipmentServiceImpl) Get(ctx context.Context, actor auth.Actor, id string) (*domain.Shipment, error) {
	sh, err := s.manager.Get(ctx, id, actor)
	if err != nil {
		return nil, wrap("get", err)
	}
	return sh, nil
}

// List returns live shipments matching filter. Customers only see their own.
func (s *ShipmentServiceImpl) List(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Shipment], error) {
	q, err := filter.Query()
	if err != nil {
		return query.Page[*domain.Shipment]{}, err
	}
	page, err := s.manager.List(ctx, actor, q)
	if err != nil {
		return query.Page[*domain.Shipment]{}, wrap("list", err)
	}
	return page, nil
}

func (s *ShipmentServiceImpl) Transition(ctx context.Context, actor auth.Actor, id string, req domain.TransitionRequest) (*domain.Shipment, error) {
	sh, err := s.manager.Transition(ctx, id, actor, req.Lifecycle())
	if err != nil {
		return nil, wrap("transition", err)
	}
	return sh, nil
}

func (s *ShipmentServiceImpl) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Shipment, error) {
	sh, err := s.manager.Cancel(ctx, id, actor, reason)
	if err != nil {
		return nil, wrap("cancel", err)
	}
	return sh, nil
}

func (s *ShipmentServiceImpl) Assign(ctx context.Context, actor auth.Actor, id, assignee string) (*domain.Shipment, error) {
	sh, err := s.manager.Assign(ctx, id, actor, assignee)
	if err != nil {
		return nil, wrap("assign", err)
	}
	return sh, nil
}

// UpdatePackages replaces the packing list of a shipment that is still moving.
func (s *ShipmentServiceImpl) UpdatePackages(ctx context.Context, actor auth.Actor, id string, packages []domain.Package) (*domain.Shipment, error) {
	if !actor.IsStaff() {
		return nil, apperror.Unauthorized("change shipment packages", string(actor.Role))
	}
	if len(packages) == 0 {
		return nil, apperror.Validation("packages", "at least one package is required")
	}
	sh, err := s.manager.Mutate(ctx, id, actor, "update_packages", func(_ context.Context, sh *domain.Shipment) ([]lifecycle.Event, error) {
		if domain.Table().IsTerminal(sh.Status) {
			return nil, apperror.Validation("status", "packages cannot change once the shipment is "+string(sh.Status))
		}
		return nil, sh.SetPackages(packages)
	})
	if err != nil {
		return nil, wrap("update packages of", err)
	}
	return sh, nil
}

func (s *ShipmentServiceImpl) SoftDelete(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Shipment, error) {
	sh, err := s.manager.SoftDelete(ctx, id, actor, reason)
	if err != nil {
		return nil, wrap("delete", err)
	}
	return sh, nil
}

func (s *ShipmentServiceImpl) Restore(ctx context.Context, actor auth.Actor, id string) (*domain.Shipment, error) {
	sh, err := s.manager.Restore(ctx, id, actor)
	if err != nil {
		return nil, wrap("restore", err)
	}
	return sh, nil
}

func (s *ShipmentServiceImpl) HardDelete(ctx context.Context, actor auth.Actor, id string, confirm bool) error {
	return wrap("permanently delete", s.manager.HardDelete(ctx, id, actor, confirm))
}

func (s *ShipmentServiceImpl) Trash(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Shipment], error) {
	q, err := filter.Query()
	if err != nil {
		return query.Page[*domain.Shipment]{}, err
	}
	page, err := s.manager.Trash(ctx, actor, q)
	if err != nil {
		return query.Page[*domain.Shipment]{}, wrap("list trashed", err)
	}
	return page, nil
}

func (s *ShipmentServiceImpl) EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error) {
	n, err := s.manager.EmptyTrash(ctx, actor, confirm)
	if err != nil {
		return 0, wrap("empty trash of", err)
	}
	return n, nil
}

func (s *ShipmentServiceImpl) Statistics(ctx context.Context, actor auth.Actor, filter domain.Filter) (lifecycle.Stats, error) {
	q, err := filter.Query()
	if err != nil {
		return lifecycle.Stats{}, err
	}
	stats, err := s.manager.Statistics(ctx, actor, q)
	if err != nil {
		return lifecycle.Stats{}, wrap("count", err)
	}
	return stats, nil
}

func wrap(operation string, err error) error {
	if err == nil || apperror.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("service: failed to %s shipment: %w", operation, err)
}
