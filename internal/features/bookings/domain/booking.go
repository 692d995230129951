package domain

import (
	"strings"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/timeline"

	"github.com/shopspring/decimal"
)

// CargoItem is one line of the cargo manifest.
type CargoItem struct {
	Description string  `json:"description"`
	Cartons     int     `json:"cartons"`
	Weight      float64 `json:"weight"`
	Volume      float64 `json:"volume"`
}

// Charge is an extra cost added by staff after pricing.
type Charge struct {
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	AddedBy string          `json:"added_by"`
	AddedAt time.Time       `json:"added_at"`
}

// Note is a free text remark left on a booking.
type Note struct {
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is the bill issued for a booking.
type Invoice struct {
	Number   string          `json:"number"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	IssuedAt time.Time       `json:"issued_at"`
	IssuedBy string          `json:"issued_by"`
}

// Options are the priced service flags of a booking.
type Options struct {
	PickupRequired   bool            `json:"pickup_required"`
	DeliveryRequired bool            `json:"delivery_required"`
	DeclaredValue    decimal.Decimal `json:"declared_value"`
	Discount         decimal.Decimal `json:"discount"`
}

// Booking is a customer's request to move cargo, tracked from request to delivery.
type Booking struct {
	lifecycle.Record[Status]

	CustomerID       string                   `json:"customer_id"`
	Customer         lifecycle.Contact        `json:"customer"`
	ShipmentCategory charges.ShipmentCategory `json:"shipment_category"`
	ProductCategory  charges.ProductCategory  `json:"product_category"`
	PackageCategory  charges.PackageCategory  `json:"package_category"`
	Origin           string                   `json:"origin"`
	Destination      string                   `json:"destination"`
	Options          Options                  `json:"options"`

	CargoDetails []CargoItem `json:"cargo_details"`
	TotalCartons int         `json:"total_cartons"`
	TotalWeight  float64     `json:"total_weight"`
	TotalVolume  float64     `json:"total_volume"`

	Charges           charges.Breakdown `json:"charges"`
	AdditionalCharges []Charge          `json:"additional_charges"`
	QuotedAmount      decimal.Decimal   `json:"quoted_amount"`
	Currency          string            `json:"currency"`
	Notes             []Note            `json:"notes"`

	WarehouseReceiptNumber string   `json:"warehouse_receipt_number,omitempty"`
	ConsolidationNumber    string   `json:"consolidation_number,omitempty"`
	Invoice                *Invoice `json:"invoice,omitempty"`
}

// OwnerID implements lifecycle.Entity.
func (b *Booking) OwnerID() string { return b.CustomerID }

// Contact implements lifecycle.Entity.
func (b *Booking) Contact() lifecycle.Contact { return b.Customer }

// RecomputeAggregates derives the totals from the current cargo list.
func (b *Booking) RecomputeAggregates() {
	b.TotalCartons = 0
	b.TotalWeight = 0
	b.TotalVolume = 0
	for _, item := range b.CargoDetails {
		b.TotalCartons += item.Cartons
		b.TotalWeight += item.Weight
		b.TotalVolume += item.Volume
	}
}

// SetCargo replaces the manifest and its totals together.
func (b *Booking) SetCargo(items []CargoItem) error {
	for i, item := range items {
		if err := item.validate(); err != nil {
			err.Details["index"] = i
			return err
		}
	}
	b.CargoDetails = append([]CargoItem(nil), items...)
	b.RecomputeAggregates()
	return nil
}

// PricingInput is the calculator input for the booking as it stands.
func (b *Booking) PricingInput() charges.Input {
	return charges.Input{
		Weight:           b.TotalWeight,
		Volume:           b.TotalVolume,
		ShipmentCategory: b.ShipmentCategory,
		ProductCategory:  b.ProductCategory,
		PackageCategory:  b.PackageCategory,
		Origin:           b.Origin,
		Destination:      b.Destination,
		PickupRequired:   b.Options.PickupRequired,
		DeliveryRequired: b.Options.DeliveryRequired,
		DeclaredValue:    b.Options.DeclaredValue,
		Discount:         b.Options.Discount,
	}
}

// ApplyPricing stores a fresh breakdown and recomputes the quoted amount.
func (b *Booking) ApplyPricing(breakdown charges.Breakdown) {
	b.Charges = breakdown
	b.Currency = breakdown.Currency
	b.RecomputeTotal()
}

// AddCharge appends an extra cost and recomputes the quoted amount.
func (b *Booking) AddCharge(c Charge) error {
	if strings.TrimSpace(c.Label) == "" {
		return apperror.Validation("label", "is required")
	}
	if !c.Amount.IsPositive() {
		return apperror.Validation("amount", "must be positive")
	}
	b.AdditionalCharges = append(b.AdditionalCharges, c)
	b.RecomputeTotal()
	return nil
}

// RecomputeTotal sets QuotedAmount to the priced total plus every extra charge.
func (b *Booking) RecomputeTotal() {
	total := b.Charges.Total
	for _, c := range b.AdditionalCharges {
		total = total.Add(c.Amount)
	}
	b.QuotedAmount = total.Round(2)
}

// AddNote appends a remark.
func (b *Booking) AddNote(n Note) error {
	if strings.TrimSpace(n.Text) == "" {
		return apperror.Validation("text", "is required")
	}
	b.Notes = append(b.Notes, n)
	return nil
}

// CheckInvoice reports why an invoice cannot be issued now, or nil.
func (b *Booking) CheckInvoice() error {
	if b.Invoice != nil {
		err := apperror.Validation("invoice", "already issued as "+b.Invoice.Number)
		err.Details["invoice_number"] = b.Invoice.Number
		return err
	}
	if !Invoiceable(b.Status) {
		return apperror.InvalidTransition(string(b.Status), "invoiced")
	}
	return nil
}

// IssueInvoice bills the current quoted amount under number.
func (b *Booking) IssueInvoice(number, issuedBy string, at time.Time) error {
	if err := b.CheckInvoice(); err != nil {
		return err
	}
	b.Invoice = &Invoice{
		Number:   number,
		Amount:   b.QuotedAmount,
		Currency: b.Currency,
		IssuedAt: at,
		IssuedBy: issuedBy,
	}
	return nil
}

func (i CargoItem) validate() *apperror.Error {
	switch {
	case i.Cartons < 0:
		return apperror.Validation("cargo_details.cartons", "must not be negative")
	case i.Weight < 0:
		return apperror.Validation("cargo_details.weight", "must not be negative")
	case i.Volume < 0:
		return apperror.Validation("cargo_details.volume", "must not be negative")
	}
	return nil
}

// CreateRequest is the input for a new booking.
type CreateRequest struct {
	CustomerID       string                   `json:"customer_id"`
	Customer         lifecycle.Contact        `json:"customer"`
	ShipmentCategory charges.ShipmentCategory `json:"shipment_category"`
	ProductCategory  charges.ProductCategory  `json:"product_category"`
	PackageCategory  charges.PackageCategory  `json:"package_category"`
	Origin           string                   `json:"origin"`
	Destination      string                   `json:"destination"`
	Options          Options                  `json:"options"`
	CargoDetails     []CargoItem              `json:"cargo_details"`
	Notes            string                   `json:"notes,omitempty"`
}

// Validate checks the fields every booking needs.
func (r CreateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Customer.Name) == "":
		return apperror.Validation("customer.name", "is required")
	case !strings.Contains(r.Customer.Email, "@"):
		return apperror.Validation("customer.email", "must be an email address")
	case !r.ShipmentCategory.Valid():
		return apperror.Validation("shipment_category", "unsupported value "+string(r.ShipmentCategory))
	case len(r.Origin) != 2:
		return apperror.Validation("origin", "must be a two letter country code")
	case len(r.Destination) != 2:
		return apperror.Validation("destination", "must be a two letter country code")
	case len(r.CargoDetails) == 0:
		return apperror.Validation("cargo_details", "at least one item is required")
	}
	return nil
}

// NewBooking builds an unsaved booking from r. Status, number and timeline are
// set by the lifecycle manager on create.
func NewBooking(r CreateRequest) (*Booking, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	b := &Booking{
		CustomerID:       r.CustomerID,
		Customer:         r.Customer,
		ShipmentCategory: r.ShipmentCategory,
		ProductCategory:  r.ProductCategory,
		PackageCategory:  r.PackageCategory,
		Origin:           strings.ToUpper(r.Origin),
		Destination:      strings.ToUpper(r.Destination),
		Options:          r.Options,
	}
	if err := b.SetCargo(r.CargoDetails); err != nil {
		return nil, err
	}
	return b, nil
}

// Payload is the API representation of a booking. The timeline is shown newest first.
type Payload struct {
	*Booking
	Timeline           []timeline.Entry `json:"timeline"`
	ProgressPercentage int              `json:"progressPercentage"`
	AllowedTransitions []Status         `json:"allowed_transitions"`
}

// NewPayload renders b for the API without touching its stored timeline order.
func NewPayload(b *Booking) Payload {
	p := Payload{
		Booking:            b,
		Timeline:           b.Timeline.SortedDesc(),
		ProgressPercentage: table.Progress(b.Status),
	}
	if !b.IsDeleted {
		p.AllowedTransitions = table.Allowed(b.Status)
	}
	return p
}
