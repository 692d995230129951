package domain

import (
	"strings"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/timeline"
)

// Package is one line of the shipment's packing list.
type Package struct {
	Type     charges.PackageCategory `json:"type"`
	Quantity int                     `json:"quantity"`
	Weight   float64                 `json:"weight"`
	Volume   float64                 `json:"volume"`
}

// Shipment is the physical movement of goods, optionally linked to a booking.
type Shipment struct {
	lifecycle.Record[Status]

	BookingID   string                   `json:"booking_id,omitempty"`
	CustomerID  string                   `json:"customer_id"`
	Consignee   lifecycle.Contact        `json:"consignee"`
	Mode        charges.ShipmentCategory `json:"mode"`
	Origin      string                   `json:"origin"`
	Destination string                   `json:"destination"`

	Packages      []Package `json:"packages"`
	TotalPackages int       `json:"total_packages"`
	TotalWeight   float64   `json:"total_weight"`
	TotalVolume   float64   `json:"total_volume"`

	Carrier         string `json:"carrier,omitempty"`
	ContainerNumber string `json:"container_number,omitempty"`
	FlightNumber    string `json:"flight_number,omitempty"`
}

// OwnerID implements lifecycle.Entity.
func (s *Shipment) OwnerID() string { return s.CustomerID }

// Contact implements lifecycle.Entity.
func (s *Shipment) Contact() lifecycle.Contact { return s.Consignee }

// RecomputeAggregates derives the totals from the current packing list.
func (s *Shipment) RecomputeAggregates() {
	s.TotalPackages = 0
	s.TotalWeight = 0
	s.TotalVolume = 0
	for _, p := range s.Packages {
		s.TotalPackages += p.Quantity
		s.TotalWeight += p.Weight
		s.TotalVolume += p.Volume
	}
}

// SetPackages replaces the packing list and its totals together.
func (s *Shipment) SetPackages(packages []Package) error {
	for i, p := range packages {
		if err := p.validate(); err != nil {
			err.Details["index"] = i
			return err
		}
	}
	s.Packages = append([]Package(nil), packages...)
	s.RecomputeAggregates()
	return nil
}

func (p Package) validate() *apperror.Error {
	switch {
	case p.Type != "" && !p.Type.Valid():
		return apperror.Validation("packages.type", "unsupported value "+string(p.Type))
	case p.Quantity < 0:
		return apperror.Validation("packages.quantity", "must not be negative")
	case p.Weight < 0:
		return apperror.Validation("packages.weight", "must not be negative")
	case p.Volume < 0:
		return apperror.Validation("packages.volume", "must not be negative")
	}
	return nil
}

// CreateRequest is the input for a new shipment. When BookingID is set the
// service fills the empty fields from that booking.
type CreateRequest struct {
	BookingID       string                   `json:"booking_id,omitempty"`
	CustomerID      string                   `json:"customer_id"`
	Consignee       lifecycle.Contact        `json:"consignee"`
	Mode            charges.ShipmentCategory `json:"mode"`
	Origin          string                   `json:"origin"`
	Destination     string                   `json:"destination"`
	Packages        []Package                `json:"packages"`
	Carrier         string                   `json:"carrier,omitempty"`
	ContainerNumber string                   `json:"container_number,omitempty"`
	FlightNumber    string                   `json:"flight_number,omitempty"`
}

// Validate checks the fields every shipment needs.
func (r CreateRequest) Validate() error {
	switch {
	case r.CustomerID == "":
		return apperror.Validation("customer_id", "is required")
	case strings.TrimSpace(r.Consignee.Name) == "":
		return apperror.Validation("consignee.name", "is required")
	case !r.Mode.Valid():
		return apperror.Validation("mode", "unsupported value "+string(r.Mode))
	case len(r.Origin) != 2:
		return apperror.Validation("origin", "must be a two letter country code")
	case len(r.Destination) != 2:
		return apperror.Validation("destination", "must be a two letter country code")
	case len(r.Packages) == 0:
		return apperror.Validation("packages", "at least one package is required")
	}
	return nil
}

// NewShipment builds an unsaved shipment from r.
func NewShipment(r CreateRequest) (*Shipment, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s := &Shipment{
		BookingID:       r.BookingID,
		CustomerID:      r.CustomerID,
		Consignee:       r.Consignee,
		Mode:            r.Mode,
		Origin:          strings.ToUpper(r.Origin),
		Destination:     strings.ToUpper(r.Destination),
		Carrier:         r.Carrier,
		ContainerNumber: r.ContainerNumber,
		FlightNumber:    r.FlightNumber,
	}
	if err := s.SetPackages(r.Packages); err != nil {
		return nil, err
	}
	return s, nil
}

// Payload is the API representation of a shipment.
type Payload struct {
	*Shipment
	Timeline           []timeline.Entry `json:"timeline"`
	ProgressPercentage int              `json:"progressPercentage"`
	AllowedTransitions []Status         `json:"allowed_transitions"`
}

// NewPayload renders s for the API, newest timeline entry first.
func NewPayload(s *Shipment) Payload {
	p := Payload{
		Shipment:           s,
		Timeline:           s.Timeline.SortedDesc(),
		ProgressPercentage: table.Progress(s.Status),
	}
	if !s.IsDeleted {
		p.AllowedTransitions = table.Allowed(s.Status)
	}
	return p
}
