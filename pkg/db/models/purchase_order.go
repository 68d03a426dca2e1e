package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// PurchaseOrder is a vendor-scoped subset of an order's items. Item
// membership lives on the items themselves (CartItem.PurchaseOrderID); the
// sets claimed by any two POs of the same order are disjoint by construction.
type PurchaseOrder struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OriginalOrderID  uuid.UUID                 `gorm:"column:original_order_id;type:uuid;not null"`
	VendorID         uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	Status           enums.PurchaseOrderStatus `gorm:"column:status;type:purchase_order_status;not null;default:'issued'"`
	Carrier          *string                   `gorm:"column:carrier"`
	TrackingNumber   *string                   `gorm:"column:tracking_number"`
	ETA              *time.Time                `gorm:"column:eta"`
	PaymentDate      *time.Time                `gorm:"column:payment_date"`
	DeliveryProofURL *string                   `gorm:"column:delivery_proof_url"`
	Items            []CartItem                `gorm:"foreignKey:PurchaseOrderID"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// Paid reports whether the purchase order has a payment date recorded.
func (p PurchaseOrder) Paid() bool {
	return p.PaymentDate != nil && !p.PaymentDate.IsZero()
}
