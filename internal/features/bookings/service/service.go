package service

import (
	"context"
	"fmt"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	"freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/bookings/ports"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"

	"github.com/shopspring/decimal"
)

type manager = lifecycle.Manager[domain.Status, *domain.Booking]

// BookingServiceImpl implements ports.BookingService.
type BookingServiceImpl struct {
	manager    *manager
	numbers    ports.NumberIssuer
	calculator *charges.Calculator
}

// NewBookingService creates a new BookingServiceImpl. Events for persisted changes go to notifier.
func NewBookingService(repo ports.BookingRepository, numbers ports.NumberIssuer, calculator *charges.Calculator, notifier lifecycle.Notifier) *BookingServiceImpl {
	return newBookingService(repo, numbers, calculator, notifier, nil)
}

func newBookingService(repo ports.BookingRepository, numbers ports.NumberIssuer, calculator *charges.Calculator, notifier lifecycle.Notifier, now func() time.Time) *BookingServiceImpl {
	s := &BookingServiceImpl{
		numbers:    numbers,
		calculator: calculator,
	}
	s.manager = lifecycle.NewManager(domain.Table(), lifecycle.Repository[*domain.Booking](repo), lifecycle.Options[domain.Status, *domain.Booking]{
		Tracking: numbers,
		Notifier: notifier,
		Hooks: map[domain.Status]lifecycle.Hook[*domain.Booking]{
			domain.StatusReceived:      s.assignWarehouseReceipt,
			domain.StatusConsolidating: s.assignConsolidation,
		},
		Now: now,
	})
	return s
}

// Create validates and prices the request, then stores it as a new booking.
// Customers always book for themselves; staff must name the customer.
func (s *BookingServiceImpl) Create(ctx context.Context, actor auth.Actor, req domain.CreateRequest) (*domain.Booking, error) {
	if actor.Role == auth.RoleCustomer {
		req.CustomerID = actor.ID
	} else if req.CustomerID == "" {
		return nil, apperror.Validation("customer_id", "is required when staff create a booking")
	}

	b, err := domain.NewBooking(req)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.calculator.Calculate(b.PricingInput())
	if err != nil {
		return nil, err
	}
	b.ApplyPricing(breakdown)
	if req.Notes != "" {
		if err := b.AddNote(domain.Note{Text: req.Notes, AuthorID: actor.ID, CreatedAt: s.manager.Now()}); err != nil {
			return nil, err
		}
	}

	created, err := s.manager.Create(ctx, b, actor, func(ctx context.Context) (string, error) {
		return s.numbers.BookingNumber(ctx, string(b.ShipmentCategory))
	})
	if err != nil {
		return nil, wrap("create", err)
	}
	return created, nil
}

// Get returns one booking visible to actor.
func (s *BookingServiceImpl) Get(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	b, err := s.manager.Get(ctx, id, actor)
	if err != nil {
		return nil, wrap("get", err)
	}
	return b, nil
}

// List returns live bookings matching filter. Customers only see their own.
func (s *BookingServiceImpl) List(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error) {
	q, err := filter.Query()
	if err != nil {
		return query.Page[*domain.Booking]{}, err
	}
	page, err := s.manager.List(ctx, actor, q)
	if err != nil {
		return query.Page[*domain.Booking]{}, wrap("list", err)
	}
	return page, nil
}

// Transition moves a booking along its lifecycle.
func (s *BookingServiceImpl) Transition(ctx context.Context, actor auth.Actor, id string, req domain.TransitionRequest) (*domain.Booking, error) {
	b, err := s.manager.Transition(ctx, id, actor, req.Lifecycle())
	if err != nil {
		return nil, wrap("transition", err)
	}
	return b, nil
}

// Cancel cancels a booking with a reason.
func (s *BookingServiceImpl) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error) {
	b, err := s.manager.Cancel(ctx, id, actor, reason)
	if err != nil {
		return nil, wrap("cancel", err)
	}
	return b, nil
}

// Assign makes assignee responsible for the booking.
func (s *BookingServiceImpl) Assign(ctx context.Context, actor auth.Actor, id, assignee string) (*domain.Booking, error) {
	b, err := s.manager.Assign(ctx, id, actor, assignee)
	if err != nil {
		return nil, wrap("assign", err)
	}
	return b, nil
}

// AddNote appends a remark. The owner and staff may comment.
func (s *BookingServiceImpl) AddNote(ctx context.Context, actor auth.Actor, id, text string) (*domain.Booking, error) {
	b, err := s.manager.Mutate(ctx, id, actor, "add_note", func(_ context.Context, b *domain.Booking) ([]lifecycle.Event, error) {
		return nil, b.AddNote(domain.Note{Text: text, AuthorID: actor.ID, CreatedAt: s.manager.Now()})
	})
	if err != nil {
		return nil, wrap("add note to", err)
	}
	return b, nil
}

// AddCharge adds an extra cost and recomputes the quoted amount.
func (s *BookingServiceImpl) AddCharge(ctx context.Context, actor auth.Actor, id, label string, amount decimal.Decimal) (*domain.Booking, error) {
	if !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return nil, apperror.Unauthorized("add charges to a booking", string(actor.Role))
	}
	b, err := s.manager.Mutate(ctx, id, actor, "add_charge", func(_ context.Context, b *domain.Booking) ([]lifecycle.Event, error) {
		if b.Invoice != nil {
			return nil, apperror.Validation("invoice", "booking is already invoiced as "+b.Invoice.Number)
		}
		return nil, b.AddCharge(domain.Charge{Label: label, Amount: amount, AddedBy: actor.ID, AddedAt: s.manager.Now()})
	})
	if err != nil {
		return nil, wrap("add charge to", err)
	}
	return b, nil
}

// UpdateCargo replaces the manifest. Totals always follow the new list; the
// price is recalculated only while the booking awaits confirmation.
func (s *BookingServiceImpl) UpdateCargo(ctx context.Context, actor auth.Actor, id string, items []domain.CargoItem) (*domain.Booking, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("cargo_details", "at least one item is required")
	}
	b, err := s.manager.Mutate(ctx, id, actor, "update_cargo", func(_ context.Context, b *domain.Booking) ([]lifecycle.Event, error) {
		if domain.Table().IsTerminal(b.Status) {
			return nil, apperror.Validation("status", "cargo cannot change once the booking is "+string(b.Status))
		}
		if !actor.IsStaff() && b.Status != domain.StatusRequested {
			err := apperror.Unauthorized("change the cargo of a confirmed booking", string(actor.Role))
			err.Details["current_status"] = string(b.Status)
			return nil, err
		}
		if err := b.SetCargo(items); err != nil {
			return nil, err
		}
		if b.Status == domain.StatusRequested {
			breakdown, err := s.calculator.Calculate(b.PricingInput())
			if err != nil {
				return nil, err
			}
			b.ApplyPricing(breakdown)
		}
		return nil, nil
	})
	if err != nil {
		return nil, wrap("update cargo of", err)
	}
	return b, nil
}

// IssueInvoice bills a confirmed booking once and notifies the customer.
func (s *BookingServiceImpl) IssueInvoice(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	if !actor.HasRole(auth.RoleOperations, auth.RoleAdmin) {
		return nil, apperror.Unauthorized("issue invoices", string(actor.Role))
	}
	b, err := s.manager.Mutate(ctx, id, actor, "issue_invoice", func(ctx context.Context, b *domain.Booking) ([]lifecycle.Event, error) {
		if err := b.CheckInvoice(); err != nil {
			return nil, err
		}
		number, err := s.numbers.InvoiceNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("service: failed to allocate invoice number: %w", err)
		}
		if err := b.IssueInvoice(number, actor.ID, s.manager.Now()); err != nil {
			return nil, err
		}
		ev := s.manager.Event(lifecycle.EventInvoiceIssued, b, actor)
		ev.Data = map[string]any{
			"invoice_number": b.Invoice.Number,
			"amount":         b.Invoice.Amount.StringFixed(2),
			"currency":       b.Invoice.Currency,
		}
		return []lifecycle.Event{ev}, nil
	})
	if err != nil {
		return nil, wrap("invoice", err)
	}
	return b, nil
}

// SoftDelete moves a booking to the trash.
func (s *BookingServiceImpl) SoftDelete(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error) {
	b, err := s.manager.SoftDelete(ctx, id, actor, reason)
	if err != nil {
		return nil, wrap("delete", err)
	}
	return b, nil
}

// Restore takes a booking out of the trash.
func (s *BookingServiceImpl) Restore(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	b, err := s.manager.Restore(ctx, id, actor)
	if err != nil {
		return nil, wrap("restore", err)
	}
	return b, nil
}

// HardDelete permanently removes a booking.
func (s *BookingServiceImpl) HardDelete(ctx context.Context, actor auth.Actor, id string, confirm bool) error {
	return wrap("permanently delete", s.manager.HardDelete(ctx, id, actor, confirm))
}

// Trash lists trashed bookings.
func (s *BookingServiceImpl) Trash(ctx context.Context, actor auth.Actor, filter domain.Filter) (query.Page[*domain.Booking], error) {
	q, err := filter.Query()
	if err != nil {
		return query.Page[*domain.Booking]{}, err
	}
	page, err := s.manager.Trash(ctx, actor, q)
	if err != nil {
		return query.Page[*domain.Booking]{}, wrap("list trashed", err)
	}
	return page, nil
}

// EmptyTrash permanently removes every trashed booking.
func (s *BookingServiceImpl) EmptyTrash(ctx context.Context, actor auth.Actor, confirm bool) (int64, error) {
	n, err := s.manager.EmptyTrash(ctx, actor, confirm)
	if err != nil {
		return 0, wrap("empty trash of", err)
	}
	return n, nil
}

// Statistics counts live bookings per status and the trash.
func (s *BookingServiceImpl) Statistics(ctx context.Context, actor auth.Actor, filter domain.Filter) (lifecycle.Stats, error) {
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

func (s *BookingServiceImpl) assignWarehouseReceipt(ctx context.Context, b *domain.Booking, _ auth.Actor) error {
	if b.WarehouseReceiptNumber != "" {
		return nil
	}
	n, err := s.numbers.WarehouseReceiptNumber(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to allocate warehouse receipt number: %w", err)
	}
	b.WarehouseReceiptNumber = n
	return nil
}

func (s *BookingServiceImpl) assignConsolidation(ctx context.Context, b *domain.Booking, _ auth.Actor) error {
	if b.ConsolidationNumber != "" {
		return nil
	}
	n, err := s.numbers.ConsolidationNumber(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to allocate consolidation number: %w", err)
	}
	b.ConsolidationNumber = n
	return nil
}

// wrap leaves classified errors untouched so handlers can map them.
func wrap(operation string, err error) error {
	if err == nil || apperror.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("service: failed to %s booking: %w", operation, err)
}
