package charges

import (
	"strings"

	"freight-booking/internal/core/apperror"

	"github.com/shopspring/decimal"
)

// Rate is the per-unit price of one shipment category.
type Rate struct {
	PerKg  decimal.Decimal
	PerCbm decimal.Decimal
}

// Surcharge routes a product category to a fee bucket.
type Surcharge struct {
	Bucket Bucket
	Amount decimal.Decimal
	// Percent of the declared value, used instead of Amount when set.
	Percent decimal.Decimal
	// Minimum applies to percentage surcharges.
	Minimum decimal.Decimal
}

// Bucket is a fee line of the breakdown.
type Bucket string

const (
	BucketHandling        Bucket = "handling"
	BucketSpecialHandling Bucket = "special_handling"
	BucketInsurance       Bucket = "insurance"
	BucketPackaging       Bucket = "packaging"
)

// Input is everything the price depends on.
type Input struct {
	Weight           float64          `json:"weight"`
	Volume           float64          `json:"volume"`
	ShipmentCategory ShipmentCategory `json:"shipment_category"`
	ProductCategory  ProductCategory  `json:"product_category"`
	PackageCategory  PackageCategory  `json:"package_category"`
	Origin           string           `json:"origin"`
	Destination      string           `json:"destination"`
	PickupRequired   bool             `json:"pickup_required"`
	DeliveryRequired bool             `json:"delivery_required"`
	DeclaredValue    decimal.Decimal  `json:"declared_value"`
	Discount         decimal.Decimal  `json:"discount"`
}

// Breakdown is the priced result. Every amount is rounded to two decimals.
type Breakdown struct {
	FreightByWeight    decimal.Decimal `json:"freight_by_weight"`
	FreightByVolume    decimal.Decimal `json:"freight_by_volume"`
	Basis              string          `json:"basis"`
	Freight            decimal.Decimal `json:"freight"`
	RouteMultiplier    decimal.Decimal `json:"route_multiplier"`
	AdjustedFreight    decimal.Decimal `json:"adjusted_freight"`
	HandlingFee        decimal.Decimal `json:"handling_fee"`
	SpecialHandlingFee decimal.Decimal `json:"special_handling_fee"`
	InsuranceFee       decimal.Decimal `json:"insurance_fee"`
	PackagingFee       decimal.Decimal `json:"packaging_fee"`
	CustomsFee         decimal.Decimal `json:"customs_fee"`
	PickupFee          decimal.Decimal `json:"pickup_fee"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"`
	Currency           string          `json:"currency"`
}

// Fees returns the sum of every fee bucket.
func (b Breakdown) Fees() decimal.Decimal {
	return b.HandlingFee.Add(b.SpecialHandlingFee).Add(b.InsuranceFee).Add(b.PackagingFee).
		Add(b.CustomsFee).Add(b.PickupFee).Add(b.DeliveryFee)
}

// Tariff is the full price list.
type Tariff struct {
	Currency          string
	Rates             map[ShipmentCategory]Rate
	ProductSurcharges map[ProductCategory]Surcharge
	PackageSurcharges map[PackageCategory]decimal.Decimal
	// RouteMultipliers is keyed "ORIGIN-DEST". Absent routes use 1.
	RouteMultipliers map[string]decimal.Decimal
	CustomsPercent   decimal.Decimal
	PickupFee        decimal.Decimal
	DeliveryFee      decimal.Decimal
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultTariff returns the standard price list.
func DefaultTariff() Tariff {
	return Tariff{
		Currency: "USD",
		Rates: map[ShipmentCategory]Rate{
			AirFreight:  {PerKg: d("5.5"), PerCbm: d("1800")},
			SeaFreight:  {PerKg: d("0.8"), PerCbm: d("120")},
			Express:     {PerKg: d("9.0"), PerCbm: d("2500")},
			RoadFreight: {PerKg: d("1.2"), PerCbm: d("250")},
		},
		ProductSurcharges: map[ProductCategory]Surcharge{
			Hazardous:             {Bucket: BucketHandling, Amount: d("150")},
			TemperatureControlled: {Bucket: BucketSpecialHandling, Amount: d("120")},
			Fragile:               {Bucket: BucketHandling, Amount: d("45")},
			HighValue:             {Bucket: BucketInsurance, Percent: d("0.02"), Minimum: d("25")},
			Oversized:             {Bucket: BucketHandling, Amount: d("95")},
			Perishable:            {Bucket: BucketSpecialHandling, Amount: d("80")},
		},
		PackageSurcharges: map[PackageCategory]decimal.Decimal{
			Pallet:   d("35"),
			Crate:    d("60"),
			Drum:     d("40"),
			Carton:   decimal.Zero,
			Bag:      decimal.Zero,
			Envelope: decimal.Zero,
		},
		RouteMultipliers: map[string]decimal.Decimal{
			"CN-US": d("1.15"),
			"CN-GB": d("1.10"),
			"US-CN": d("0.95"),
			"GB-US": d("1.05"),
			"NG-GB": d("1.20"),
			"AE-NG": d("1.10"),
		},
		CustomsPercent: d("0.05"),
		PickupFee:      d("40"),
		DeliveryFee:    d("50"),
	}
}

// Calculator prices cargo. It is pure and safe for concurrent use.
type Calculator struct {
	tariff Tariff
}

// NewCalculator returns a calculator for tariff.
func NewCalculator(tariff Tariff) *Calculator {
	return &Calculator{tariff: tariff}
}

// Default returns a calculator on the standard tariff.
func Default() *Calculator {
	return NewCalculator(DefaultTariff())
}

// RouteMultiplier returns the freight multiplier for a route.
func (c *Calculator) RouteMultiplier(origin, destination string) decimal.Decimal {
	key := strings.ToUpper(origin) + "-" + strings.ToUpper(destination)
	if m, ok := c.tariff.RouteMultipliers[key]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Calculate prices in. Freight is the greater of the weight and volume charges;
// surcharges go to fee buckets; the route multiplier applies to freight only and
// customs is a percentage of the adjusted freight. Rounding happens once at the end.
func (c *Calculator) Calculate(in Input) (Breakdown, error) {
	rate, ok := c.tariff.Rates[in.ShipmentCategory]
	if !ok {
		return Breakdown{}, apperror.Validation("shipment_category", "unsupported category "+string(in.ShipmentCategory))
	}
	if in.ProductCategory != "" && !in.ProductCategory.Valid() {
		return Breakdown{}, apperror.Validation("product_category", "unsupported category "+string(in.ProductCategory))
	}
	if in.PackageCategory != "" && !in.PackageCategory.Valid() {
		return Breakdown{}, apperror.Validation("package_category", "unsupported category "+string(in.PackageCategory))
	}
	if in.Weight < 0 || in.Volume < 0 {
		return Breakdown{}, apperror.Validation("cargo", "weight and volume must not be negative")
	}
	if in.Discount.IsNegative() || in.DeclaredValue.IsNegative() {
		return Breakdown{}, apperror.Validation("options", "discount and declared value must not be negative")
	}

	byWeight := decimal.NewFromFloat(in.Weight).Mul(rate.PerKg)
	byVolume := decimal.NewFromFloat(in.Volume).Mul(rate.PerCbm)
	freight, basis := byWeight, "weight"
	if byVolume.GreaterThan(byWeight) {
		freight, basis = byVolume, "volume"
	}

	multiplier := c.RouteMultiplier(in.Origin, in.Destination)
	adjusted := freight.Mul(multiplier)

	buckets := map[Bucket]decimal.Decimal{}
	if s, ok := c.tariff.ProductSurcharges[in.ProductCategory]; ok {
		amount := s.Amount
		if s.Percent.IsPositive() {
			amount = decimal.Max(in.DeclaredValue.Mul(s.Percent), s.Minimum)
		}
		buckets[s.Bucket] = buckets[s.Bucket].Add(amount)
	}
	if p, ok := c.tariff.PackageSurcharges[in.PackageCategory]; ok {
		buckets[BucketPackaging] = buckets[BucketPackaging].Add(p)
	}

	customs := adjusted.Mul(c.tariff.CustomsPercent)
	pickup, delivery := decimal.Zero, decimal.Zero
	if in.PickupRequired {
		pickup = c.tariff.PickupFee
	}
	if in.DeliveryRequired {
		delivery = c.tariff.DeliveryFee
	}

	total := adjusted.
		Add(buckets[BucketHandling]).
		Add(buckets[BucketSpecialHandling]).
		Add(buckets[BucketInsurance]).
		Add(buckets[BucketPackaging]).
		Add(customs).
		Add(pickup).
		Add(delivery).
		Sub(in.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Breakdown{
		FreightByWeight:    byWeight.Round(2),
		FreightByVolume:    byVolume.Round(2),
		Basis:              basis,
		Freight:            freight.Round(2),
		RouteMultiplier:    multiplier,
		AdjustedFreight:    adjusted.Round(2),
		HandlingFee:        buckets[BucketHandling].Round(2),
		SpecialHandlingFee: buckets[BucketSpecialHandling].Round(2),
		InsuranceFee:       buckets[BucketInsurance].Round(2),
		PackagingFee:       buckets[BucketPackaging].Round(2),
		CustomsFee:         customs.Round(2),
		PickupFee:          pickup.Round(2),
		DeliveryFee:        delivery.Round(2),
		Discount:           in.Discount.Round(2),
		Total:              total.Round(2),
		Currency:           c.tariff.Currency,
	}, nil
}
