package charges

// ShipmentCategory is the transport mode priced by the calculator.
type ShipmentCategory string

const (
	AirFreight  ShipmentCategory = "AIR_FREIGHT"
	SeaFreight  ShipmentCategory = "SEA_FREIGHT"
	Express     ShipmentCategory = "EXPRESS"
	RoadFreight ShipmentCategory = "ROAD_FREIGHT"
)

// ProductCategory is the nature of the goods.
type ProductCategory string

const (
	General               ProductCategory = "general"
	Hazardous             ProductCategory = "hazardous"
	TemperatureControlled ProductCategory = "temperature_controlled"
	Fragile               ProductCategory = "fragile"
	HighValue             ProductCategory = "high_value"
	Oversized             ProductCategory = "oversized"
	Perishable            ProductCategory = "perishable"
)

// PackageCategory is how the goods are packed.
type PackageCategory string

const (
	Carton   PackageCategory = "carton"
	Pallet   PackageCategory = "pallet"
	Crate    PackageCategory = "crate"
	Drum     PackageCategory = "drum"
	Bag      PackageCategory = "bag"
	Envelope PackageCategory = "envelope"
)

// ShipmentCategories lists every supported mode.
func ShipmentCategories() []ShipmentCategory {
	return []ShipmentCategory{AirFreight, SeaFreight, Express, RoadFreight}
}

// Valid reports whether c is a supported mode.
func (c ShipmentCategory) Valid() bool {
	switch c {
	case AirFreight, SeaFreight, Express, RoadFreight:
		return true
	}
	return false
}

// Valid reports whether c is a supported product category.
func (c ProductCategory) Valid() bool {
	switch c {
	case General, Hazardous, TemperatureControlled, Fragile, HighValue, Oversized, Perishable:
		return true
	}
	return false
}

// Valid reports whether c is a supported package category.
func (c PackageCategory) Valid() bool {
	switch c {
	case Carton, Pallet, Crate, Drum, Bag, Envelope:
		return true
	}
	return false
}
