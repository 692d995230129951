package adapters

import (
	"time"

	"freight-booking/internal/core/docstore"
	"freight-booking/internal/features/charges"
	"freight-booking/internal/features/lifecycle"
	"freight-booking/internal/features/shipments/domain"
	"freight-booking/internal/features/timeline"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ShipmentRow is the stored form of a shipment.
type ShipmentRow struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	Number         string  `gorm:"uniqueIndex;not null"`
	TrackingNumber *string `gorm:"uniqueIndex"`
	Status         string  `gorm:"index;not null"`
	Version        int     `gorm:"not null"`

	BookingID      string `gorm:"index"`
	CustomerID     string `gorm:"index"`
	ConsigneeName  string
	ConsigneeEmail string
	ConsigneePhone string
	Mode           string `gorm:"index"`
	Origin         string
	Destination    string

	Packages      datatypes.JSONSlice[domain.Package]
	TotalPackages int
	TotalWeight   float64
	TotalVolume   float64

	Carrier         string
	ContainerNumber string
	FlightNumber    string
	Timeline        datatypes.JSONSlice[timeline.Entry]

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

func (ShipmentRow) TableName() string { return "shipments" }

// Schema whitelists the fields shipments may be filtered and sorted on.
var Schema = docstore.Schema{
	Fields: map[string]string{
		"number":           "number",
		"tracking_number":  "tracking_number",
		"status":           "status",
		"booking_id":       "booking_id",
		"customer_id":      "customer_id",
		"mode":             "mode",
		"origin":           "origin",
		"destination":      "destination",
		"carrier":          "carrier",
		"container_number": "container_number",
		"assigned_to":      "assigned_to",
		"total_weight":     "total_weight",
		"created_at":       "created_at",
		"updated_at":       "updated_at",
	},
}

// GormShipmentRepository implements ports.ShipmentRepository on a docstore.
type GormShipmentRepository struct {
	*docstore.Repository[*domain.Shipment, ShipmentRow]
}

// NewGormShipmentRepository creates a repository over db. Migrate must have run.
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	store := docstore.New[ShipmentRow](db, Schema)
	return &GormShipmentRepository{
		Repository: docstore.NewRepository(store, "shipment", docstore.Mapper[*domain.Shipment, ShipmentRow]{
			ToRow:   toRow,
			FromRow: fromRow,
			ID:      func(s *domain.Shipment) string { return s.ID },
		}),
	}
}

// Migrate creates or updates the shipments table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&ShipmentRow{})
}

func toRow(s *domain.Shipment) *ShipmentRow {
	return &ShipmentRow{
		ID:             s.ID,
		Number:         s.Number,
		TrackingNumber: docstore.NullString(s.TrackingNumber),
		Status:         string(s.Status),
		Version:        s.Version,

		BookingID:      s.BookingID,
		CustomerID:     s.CustomerID,
		ConsigneeName:  s.Consignee.Name,
		ConsigneeEmail: s.Consignee.Email,
		ConsigneePhone: s.Consignee.Phone,
		Mode:           string(s.Mode),
		Origin:         s.Origin,
		Destination:    s.Destination,

		Packages:      datatypes.JSONSlice[domain.Package](s.Packages),
		TotalPackages: s.TotalPackages,
		TotalWeight:   s.TotalWeight,
		TotalVolume:   s.TotalVolume,

		Carrier:         s.Carrier,
		ContainerNumber: s.ContainerNumber,
		FlightNumber:    s.FlightNumber,
		Timeline:        datatypes.JSONSlice[timeline.Entry](s.Timeline),

		IsDeleted:      s.IsDeleted,
		DeletedAt:      s.DeletedAt,
		DeletedBy:      s.DeletedBy,
		DeletionReason: s.DeletionReason,
		RestoredAt:     s.RestoredAt,
		RestoredBy:     s.RestoredBy,

		CreatedBy:          s.CreatedBy,
		UpdatedBy:          s.UpdatedBy,
		AssignedTo:         s.AssignedTo,
		CancelledBy:        s.CancelledBy,
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromRow(row *ShipmentRow) (*domain.Shipment, error) {
	return &domain.Shipment{
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
		BookingID:  row.BookingID,
		CustomerID: row.CustomerID,
		Consignee: lifecycle.Contact{
			Name:  row.ConsigneeName,
			Email: row.ConsigneeEmail,
			Phone: row.ConsigneePhone,
		},
		Mode:        charges.ShipmentCategory(row.Mode),
		Origin:      row.Origin,
		Destination: row.Destination,

		Packages:      []domain.Package(row.Packages),
		TotalPackages: row.TotalPackages,
		TotalWeight:   row.TotalWeight,
		TotalVolume:   row.TotalVolume,

		Carrier:         row.Carrier,
		ContainerNumber: row.ContainerNumber,
		FlightNumber:    row.FlightNumber,
	}, nil
}
