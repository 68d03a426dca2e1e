package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// CartItem is a single line of a procurement request. The same row serves the
// cart before submission and the order afterwards: OrderID is set on submit
// and CartID is cleared if the cart is deleted while the order survives.
// PurchaseOrderID is set at most once, when the item is claimed by a PO, and
// is never moved to another PO.
type CartItem struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID          *uuid.UUID               `gorm:"column:cart_id;type:uuid"`
	OrderID         *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	Name            string                   `gorm:"column:name;not null"`
	SKU             string                   `gorm:"column:sku;not null"`
	Quantity        int                      `gorm:"column:quantity;not null"`
	UnitPriceCents  int                      `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int                      `gorm:"column:total_price_cents;not null"`
	VendorID        *uuid.UUID               `gorm:"column:vendor_id;type:uuid"`
	ApprovalStatus  enums.ItemApprovalStatus `gorm:"column:approval_status;type:item_approval_status;not null;default:'pending'"`
	RejectionReason *string                  `gorm:"column:rejection_reason"`
	PurchaseOrderID *uuid.UUID               `gorm:"column:purchase_order_id;type:uuid"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// Procured reports whether the item has already been claimed by a purchase
// order.
func (i CartItem) Procured() bool {
	return i.PurchaseOrderID != nil && *i.PurchaseOrderID != uuid.Nil
}
