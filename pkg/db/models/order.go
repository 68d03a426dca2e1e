package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/enums"
	"github.com/calderaops/procurehub-backend/pkg/types"
)

// Order is the submitted, trackable counterpart of a cart. Status is a
// derived value; the column is a snapshot rewritten inside the same
// transaction as every item or purchase-order mutation.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         *uuid.UUID          `gorm:"column:cart_id;type:uuid"`
	CompanyID      uuid.UUID           `gorm:"column:company_id;type:uuid;not null"`
	SubmittedBy    uuid.UUID           `gorm:"column:submitted_by;type:uuid;not null"`
	PropertyID     *uuid.UUID          `gorm:"column:property_id;type:uuid"`
	TotalCents     int                 `gorm:"column:total_cents;not null;default:0"`
	Status         enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending_approval'"`
	StatusHistory  types.StatusHistory `gorm:"column:status_history;type:jsonb;serializer:json"`
	Items          []CartItem          `gorm:"foreignKey:OrderID"`
	PurchaseOrders []PurchaseOrder     `gorm:"foreignKey:OriginalOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
