package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// Cart is a draft procurement request. Content mutations are only allowed
// while the status is draft or ready_for_review; after submission the linked
// order becomes the trackable record.
type Cart struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID         uuid.UUID        `gorm:"column:company_id;type:uuid;not null"`
	OwnerID           uuid.UUID        `gorm:"column:owner_id;type:uuid;not null"`
	PropertyID        *uuid.UUID       `gorm:"column:property_id;type:uuid"`
	Name              string           `gorm:"column:name;not null"`
	Type              enums.CartType   `gorm:"column:type;type:cart_type;not null;default:'standard'"`
	Status            enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'draft'"`
	TotalCents        int              `gorm:"column:total_cents;not null;default:0"`
	ItemCount         int              `gorm:"column:item_count;not null;default:0"`
	ScheduleDays      pq.StringArray   `gorm:"column:schedule_days;type:text[]"`
	ScheduleStartDate *time.Time       `gorm:"column:schedule_start_date"`
	Items             []CartItem       `gorm:"foreignKey:CartID"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
