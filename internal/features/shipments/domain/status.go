package domain

import (
	"freight-booking/internal/core/auth"
	"freight-booking/internal/features/lifecycle"
)

// Status is a shipment lifecycle status.
type Status string

const (
	StatusRequested         Status = "BOOKING_REQUESTED"
	StatusConfirmed         Status = "BOOKING_CONFIRMED"
	StatusPickupScheduled   Status = "PICKUP_SCHEDULED"
	StatusReceived          Status = "RECEIVED_AT_WAREHOUSE"
	StatusConsolidating     Status = "CONSOLIDATION_IN_PROGRESS"
	StatusLoadedInContainer Status = "LOADED_IN_CONTAINER"
	StatusLoadedOnFlight    Status = "LOADED_ON_FLIGHT"
	StatusInTransit         Status = "IN_TRANSIT"
	StatusArrived           Status = "ARRIVED_AT_DESTINATION"
	StatusCustoms           Status = "CUSTOMS_CLEARANCE"
	StatusOutForDelivery    Status = "OUT_FOR_DELIVERY"
	StatusDelivered         Status = "DELIVERED"
	StatusCancelled         Status = "CANCELLED"
	StatusReturned          Status = "RETURNED"
)

var warehouseRoles = []auth.Role{auth.RoleOperations, auth.RoleWarehouse, auth.RoleAdmin}

var table = lifecycle.NewTable(lifecycle.Definition[Status]{
	Entity:    "shipment",
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

// Table returns the shipment transition table.
func Table() *lifecycle.Table[Status] {
	return table
}

// ParseStatus returns the status named s, or false if the table does not know it.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, table.Known(st)
}
