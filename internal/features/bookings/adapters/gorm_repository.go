package adapters

import (
	"time"

	"freight-booking/internal/core/docstore"
	"freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/timeline"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookingRow is the stored form of a booking. Identifiers that are issued
// later are nullable so the unique indexes ignore bookings that lack them.
type BookingRow struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	Number         string  `gorm:"uniqueIndex;not null"`
	TrackingNumber *string `gorm:"uniqueIndex"`
	Status         string  `gorm:"index;not null"`
	Version        int     `gorm:"not null"`

	CustomerID       string `gorm:"index"`
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	ShipmentCategory string `gorm:"index"`
	ProductCategory  string
	PackageCategory  string
	Origin           string
	Destination      string
	PickupRequired   bool
	DeliveryRequired bool
	DeclaredValue    decimal.Decimal `gorm:"type:decimal(14,2)"`
	Discount         decimal.Decimal `gorm:"type:decimal(14,2)"`

	CargoDetails datatypes.JSONSlice[domain.CargoItem]
	TotalCartons int
	TotalWeight  float64
	TotalVolume  float64

	Charges           datatypes.JSONType[charges.Breakdown]
	AdditionalCharges datatypes.JSONSlice[domain.Charge]
	QuotedAmount      decimal.Decimal `gorm:"type:decimal(14,2)"`
	Currency          string
	Notes             datatypes.JSONSlice[domain.Note]
	Timeline          datatypes.JSONSlice[timeline.Entry]

	WarehouseReceiptNumber *string             `gorm:"uniqueIndex"`
	ConsolidationNumber    *string             `gorm:"uniqueIndex"`
	InvoiceNumber          *string             `gorm:"uniqueIndex"`
	InvoiceAmount          decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	InvoiceCurrency        string
	InvoiceIssuedAt        *time.Time
	InvoiceIssuedBy        string

	IsDeleted      bool `gorm:"index;not null;default:false"`
	DeletedAt      *time.Time
	DeletedBy      string
	DeletionReason string
	RestoredAt     *time.Time
	RestoredBy     string

	CreatedBy          string
	UpdatedBy          string
	AssignedTo         string `gorm:"index"`
	CancelledBy        string
	CancelledAt        *time.Time
	CancellationReason string
	CreatedAt          time.Time `gorm:"index;autoCreateTime:false"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime:false"`
}

// TableName overrides the gorm default.
func (BookingRow) TableName() string { return "bookings" }

// Schema whitelists the fields bookings may be filtered and sorted on.
var Schema = docstore.Schema{
	Fields: map[string]string{
		"number":                   "number",
		"tracking_number":          "tracking_number",
		"status":                   "status",
		"customer_id":              "customer_id",
		"customer_email":           "customer_email",
		"shipment_category":        "shipment_category",
		"product_category":         "product_category",
		"origin":                   "origin",
		"destination":              "destination",
		"assigned_to":              "assigned_to",
		"quoted_amount":            "quoted_amount",
		"warehouse_receipt_number": "warehouse_receipt_number",
		"consolidation_number":     "consolidation_number",
		"invoice_number":           "invoice_number",
		"created_at":               "created_at",
		"updated_at":               "updated_at",
	},
}

// GormBookingRepository implements ports.BookingRepository on a docstore.
type GormBookingRepository struct {
	*docstore.Repository[*domain.Booking, BookingRow]
}

// NewGormBookingRepository creates a repository over db. Migrate must have run.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	store := docstore.New[BookingRow](db, Schema)
	return &GormBookingRepository{
		Repository: docstore.NewRepository(store, "booking", docstore.Mapper[*domain.Booking, BookingRow]{
			ToRow:   toRow,
			FromRow: fromRow,
			ID:      func(b *domain.Booking) string { return b.ID },
		}),
	}
}

// Migrate creates or updates the bookings table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&BookingRow{})
}

func toRow(b *domain.Booking) *BookingRow {
	row := &BookingRow{
		ID:             b.ID,
		Number:         b.Number,
		TrackingNumber: docstore.NullString(b.TrackingNumber),
		Status:         string(b.Status),
		Version:        b.Version,

		CustomerID:       b.CustomerID,
		CustomerName:     b.Customer.Name,
		CustomerEmail:    b.Customer.Email,
		CustomerPhone:    b.Customer.Phone,
		ShipmentCategory: string(b.ShipmentCategory),
		ProductCategory:  string(b.ProductCategory),
		PackageCategory:  string(b.PackageCategory),
		Origin:           b.Origin,
		Destination:      b.Destination,
		PickupRequired:   b.Options.PickupRequired,
		DeliveryRequired: b.Options.DeliveryRequired,
		DeclaredValue:    b.Options.DeclaredValue,
		Discount:         b.Options.Discount,

		CargoDetails: datatypes.JSONSlice[domain.CargoItem](b.CargoDetails),
		TotalCartons: b.TotalCartons,
		TotalWeight:  b.TotalWeight,
		TotalVolume:  b.TotalVolume,

		Charges:           datatypes.NewJSONType(b.Charges),
		AdditionalCharges: datatypes.JSONSlice[domain.Charge](b.AdditionalCharges),
		QuotedAmount:      b.QuotedAmount,
		Currency:          b.Currency,
		Notes:             datatypes.JSONSlice[domain.Note](b.Notes),
		Timeline:          datatypes.JSONSlice[timeline.Entry](b.Timeline),

		WarehouseReceiptNumber: docstore.NullString(b.WarehouseReceiptNumber),
		ConsolidationNumber:    docstore.NullString(b.ConsolidationNumber),

		IsDeleted:      b.IsDeleted,
		DeletedAt:      b.DeletedAt,
		DeletedBy:      b.DeletedBy,
		DeletionReason: b.DeletionReason,
		RestoredAt:     b.RestoredAt,
		RestoredBy:     b.RestoredBy,

		CreatedBy:          b.CreatedBy,
		UpdatedBy:          b.UpdatedBy,
		AssignedTo:         b.AssignedTo,
		CancelledBy:        b.CancelledBy,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if inv := b.Invoice; inv != nil {
		issuedAt := inv.IssuedAt
		row.InvoiceNumber = docstore.NullString(inv.Number)
		row.InvoiceAmount = decimal.NewNullDecimal(inv.Amount)
		row.InvoiceCurrency = inv.Currency
		row.InvoiceIssuedAt = &issuedAt
		row.InvoiceIssuedBy = inv.IssuedBy
	}
	return row
}

func fromRow(row *BookingRow) (*domain.Booking, error) {
	b := &domain.Booking{
		Record: lifecycle.Record[domain.Status]{
			ID:             row.ID,
			Number:         row.Number,
			TrackingNumber: docstore.StringValue(row.TrackingNumber),
			Status:         domain.Status(row.Status),
			Timeline:       timeline.Timeline(row.Timeline),
			Version:        row.Version,

			IsDeleted:      row.IsDeleted,
			DeletedAt:      docstore.UTC(row.DeletedAt),
			DeletedBy:      row.DeletedBy,
			DeletionReason: row.DeletionReason,
			RestoredAt:     docstore.UTC(row.RestoredAt),
			RestoredBy:     row.RestoredBy,

			CreatedBy:          row.CreatedBy,
			UpdatedBy:          row.UpdatedBy,
			AssignedTo:         row.AssignedTo,
			CancelledBy:        row.CancelledBy,
			CancelledAt:        docstore.UTC(row.CancelledAt),
			CancellationReason: row.CancellationReason,
			CreatedAt:          row.CreatedAt.UTC(),
			UpdatedAt:          row.UpdatedAt.UTC(),
		},
		CustomerID: row.CustomerID,
		Customer: lifecycle.Contact{
			Name:  row.CustomerName,
			Email: row.CustomerEmail,
			Phone: row.CustomerPhone,
		},
		ShipmentCategory: charges.ShipmentCategory(row.ShipmentCategory),
		ProductCategory:  charges.ProductCategory(row.ProductCategory),
		PackageCategory:  charges.PackageCategory(row.PackageCategory),
		Origin:           row.Origin,
		Destination:      row.Destination,
		Options: domain.Options{
			PickupRequired:   row.PickupRequired,
			DeliveryRequired: row.DeliveryRequired,
			DeclaredValue:    row.DeclaredValue,
			Discount:         row.Discount,
		},

		CargoDetails: []domain.CargoItem(row.CargoDetails),
		TotalCartons: row.TotalCartons,
		TotalWeight:  row.TotalWeight,
		TotalVolume:  row.TotalVolume,

		Charges:           row.Charges.Data(),
		AdditionalCharges: []domain.Charge(row.AdditionalCharges),
		QuotedAmount:      row.QuotedAmount,
		Currency:          row.Currency,
		Notes:             []domain.Note(row.Notes),

		WarehouseReceiptNumber: docstore.StringValue(row.WarehouseReceiptNumber),
		ConsolidationNumber:    docstore.StringValue(row.ConsolidationNumber),
	}
	if row.InvoiceNumber != nil {
		b.Invoice = &domain.Invoice{
			Number:   *row.InvoiceNumber,
			Amount:   row.InvoiceAmount.Decimal,
			Currency: row.InvoiceCurrency,
			IssuedBy: row.InvoiceIssuedBy,
		}
		if row.InvoiceIssuedAt != nil {
			b.Invoice.IssuedAt = row.InvoiceIssuedAt.UTC()
		}
	}
	return b, nil
}
