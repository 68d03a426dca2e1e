package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// BillableItem is a pass-through cost record queued for customer invoicing.
// The unique index on (source_type, source_id, cart_item_id) backstops the
// existence check in the billback reconciler against concurrent syncs.
type BillableItem struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID     uuid.UUID                `gorm:"column:company_id;type:uuid;not null"`
	SourceType    enums.BillableSourceType `gorm:"column:source_type;type:billable_source_type;not null;uniqueIndex:ux_billable_items_source_item,priority:1"`
	SourceID      uuid.UUID                `gorm:"column:source_id;type:uuid;not null;uniqueIndex:ux_billable_items_source_item,priority:2"`
	CartItemID    *uuid.UUID               `gorm:"column:cart_item_id;type:uuid;uniqueIndex:ux_billable_items_source_item,priority:3"`
	PropertyID    *uuid.UUID               `gorm:"column:property_id;type:uuid"`
	UnitID        *uuid.UUID               `gorm:"column:unit_id;type:uuid"`
	CustomerID    *uuid.UUID               `gorm:"column:customer_id;type:uuid"`
	Description   string                   `gorm:"column:description;not null"`
	CostCents     int                      `gorm:"column:cost_cents;not null"`
	MarkupCents   int                      `gorm:"column:markup_cents;not null;default:0"`
	TotalCents    int                      `gorm:"column:total_cents;not null"`
	MarkupPercent decimal.Decimal          `gorm:"column:markup_percent;type:numeric(7,4);not null;default:0"`
	Status        enums.BillableItemStatus `gorm:"column:status;type:billable_item_status;not null;default:'pending'"`
	InvoiceID     *uuid.UUID               `gorm:"column:invoice_id;type:uuid"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
