package lifecycle

import (
	"time"

	"freight-booking/internal/features/timeline"
)

// Contact is a party that receives notifications about an entity.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Record holds the lifecycle state shared by every managed entity.
type Record[S Status] struct {
	ID             string            `json:"id"`
	Number         string            `json:"number"`
	TrackingNumber string            `json:"tracking_number,omitempty"`
	Status         S                 `json:"status"`
	Timeline       timeline.Timeline `json:"timeline"`
	Version        int               `json:"version"`

	IsDeleted      bool       `json:"is_deleted"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedBy      string     `json:"deleted_by,omitempty"`
	DeletionReason string     `json:"deletion_reason,omitempty"`
	RestoredAt     *time.Time `json:"restored_at,omitempty"`
	RestoredBy     string     `json:"restored_by,omitempty"`

	CreatedBy          string     `json:"created_by"`
	UpdatedBy          string     `json:"updated_by,omitempty"`
	AssignedTo         string     `json:"assigned_to,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Lifecycle gives the manager access to the embedded record.
func (r *Record[S]) Lifecycle() *Record[S] {
	return r
}

// Entity is implemented by types embedding Record.
type Entity[S Status] interface {
	Lifecycle() *Record[S]
	// OwnerID is the customer who owns the entity.
	OwnerID() string
	// Contact is the party notified about the entity.
	Contact() Contact
}
