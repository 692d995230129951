package domain

import (
	"freight-booking/internal/core/auth"
	"freight-booking/internal/features/lifecycle"
)

// Status is a booking lifecycle status.
type Status string

const (
	// StatusRequested is the status of a booking the customer just submitted.
	StatusRequested Status = "booking_requested"
	// StatusConfirmed means operations accepted the booking.
	StatusConfirmed Status = "booking_confirmed"
	// StatusPickupScheduled means a collection from the shipper is planned.
	StatusPickupScheduled Status = "pickup_scheduled"
	// StatusReceived means the cargo is at the origin warehouse.
	StatusReceived Status = "received_at_warehouse"
	// StatusConsolidating means the cargo is being grouped with other bookings.
	StatusConsolidating Status = "consolidation_in_progress"
	// StatusLoadedInContainer is the sea route loading stage.
	StatusLoadedInContainer Status = "loaded_in_container"
	// StatusLoadedOnFlight is the air route loading stage.
	StatusLoadedOnFlight Status = "loaded_on_flight"
	StatusInTransit      Status = "in_transit"
	StatusArrived        Status = "arrived_at_destination"
	StatusCustoms        Status = "customs_clearance"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusReturned       Status = "returned"
)

var warehouseRoles = []auth.Role{auth.RoleOperations, auth.RoleWarehouse, auth.RoleAdmin}

var table = lifecycle.NewTable(lifecycle.Definition[Status]{
	Entity:    "booking",
	Initial:   StatusRequested,
	Confirmed: StatusConfirmed,
	Cancelled: StatusCancelled,
	Next: map[Status][]Status{
		StatusRequested:         {StatusConfirmed, StatusCancelled},
		StatusConfirmed:         {StatusPickupScheduled, StatusReceived, StatusCancelled},
		StatusPickupScheduled:   {StatusReceived, StatusCancelled},
		StatusReceived:          {StatusConsolidating, StatusCancelled},
		StatusConsolidating:     {StatusLoadedInContainer, StatusLoadedOnFlight, StatusCancelled},
		StatusLoadedInContainer: {StatusInTransit},
		StatusLoadedOnFlight:    {StatusInTransit},
		StatusInTransit:         {StatusArrived},
		StatusArrived:           {StatusCustoms, StatusOutForDelivery},
		StatusCustoms:           {StatusOutForDelivery, StatusReturned},
		StatusOutForDelivery:    {StatusDelivered},
		StatusDelivered:         {},
		StatusCancelled:         {},
		StatusReturned:          {},
	},
	Roles: map[Status][]auth.Role{
		StatusPickupScheduled:   warehouseRoles,
		StatusReceived:          warehouseRoles,
		StatusConsolidating:     warehouseRoles,
		StatusLoadedInContainer: warehouseRoles,
		StatusLoadedOnFlight:    warehouseRoles,
	},
	DefaultRoles: []auth.Role{auth.RoleOperations, auth.RoleAdmin},
	Deletable:    []Status{StatusRequested, StatusConfirmed},
	Stages: [][]Status{
		{StatusRequested},
		{StatusConfirmed},
		{StatusPickupScheduled},
		{StatusReceived},
		{StatusConsolidating},
		{StatusLoadedInContainer, StatusLoadedOnFlight},
		{StatusInTransit},
		{StatusArrived},
		{StatusCustoms},
		{StatusOutForDelivery},
		{StatusDelivered},
	},
})

// Table returns the booking transition table.
func Table() *lifecycle.Table[Status] {
	return table
}

// ParseStatus returns the status named s, or false if the table does not know it.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, table.Known(st)
}

// Invoiceable reports whether an invoice may be issued for a booking in s.
// Every status from confirmation onwards qualifies, excluding cancellation.
func Invoiceable(s Status) bool {
	switch s {
	case StatusRequested, StatusCancelled:
		return false
	}
	return table.Known(s)
}
